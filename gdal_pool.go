// gdal_pool.go
package Spectra

import (
	"runtime"
	"sync"
)

// GDALWorkerPool GDAL工作池 - 控制并发数量
type GDALWorkerPool struct {
	semaphore chan struct{}
	size      int
}

var (
	gdalPool     *GDALWorkerPool
	gdalPoolOnce sync.Once
)

// GetGDALPool 获取全局GDAL工作池（单例）
func GetGDALPool() *GDALWorkerPool {
	gdalPoolOnce.Do(func() {
		// 根据CPU核心数设置工作池大小，GDAL操作密集型建议 CPU核心数 * 2
		poolSize := runtime.NumCPU() * 2
		if poolSize < 4 {
			poolSize = 4
		}
		if poolSize > 16 {
			poolSize = 16 // 上限，避免GDAL资源竞争
		}

		gdalPool = &GDALWorkerPool{
			semaphore: make(chan struct{}, poolSize),
			size:      poolSize,
		}
	})
	return gdalPool
}

// Acquire 获取工作槽
func (p *GDALWorkerPool) Acquire() {
	p.semaphore <- struct{}{}
}

// Release 释放工作槽
func (p *GDALWorkerPool) Release() {
	<-p.semaphore
}

// Size 工作池大小
func (p *GDALWorkerPool) Size() int {
	return p.size
}

// BatchOpenRasterAssets 批量加载影像资产
// 通过工作池限制并发打开的数据集数量，返回按路径索引的资产和出错列表
func BatchOpenRasterAssets(paths []string) (map[string]*RasterAsset, []error) {
	pool := GetGDALPool()

	assets := make(map[string]*RasterAsset)
	var errs []error

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, path := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()

			pool.Acquire()
			asset, err := OpenRasterAsset(p)
			pool.Release()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			assets[p] = asset
		}(path)
	}

	wg.Wait()
	return assets, errs
}
