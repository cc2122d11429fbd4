// RasterAsset.go
package Spectra

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
)

// RasterProfile 栅格基本信息（尺寸、地理变换、投影、像素类型）
type RasterProfile struct {
	Width        int
	Height       int
	Bands        int
	GeoTransform [6]float64
	Projection   string // WKT
	DataType     string // GDAL数据类型名称，如 "UInt16"、"Float64"
	NoData       float64
	HasNoData    bool
}

// Clone 复制一份Profile
func (p *RasterProfile) Clone() *RasterProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Datacube 像素立方体，按 波段×行×列 连续存储
type Datacube struct {
	Bands int
	Rows  int
	Cols  int
	Data  []float64
}

// NewDatacube 创建指定尺寸的空立方体
func NewDatacube(bands, rows, cols int) *Datacube {
	return &Datacube{
		Bands: bands,
		Rows:  rows,
		Cols:  cols,
		Data:  make([]float64, bands*rows*cols),
	}
}

// Band 返回第band个波段的切片视图（band从0开始，与底层数组共享内存）
func (dc *Datacube) Band(band int) []float64 {
	size := dc.Rows * dc.Cols
	return dc.Data[band*size : (band+1)*size]
}

// At 读取像素值
func (dc *Datacube) At(band, row, col int) float64 {
	return dc.Data[band*dc.Rows*dc.Cols+row*dc.Cols+col]
}

// Set 写入像素值
func (dc *Datacube) Set(band, row, col int, v float64) {
	dc.Data[band*dc.Rows*dc.Cols+row*dc.Cols+col] = v
}

// Clone 深拷贝立方体
func (dc *Datacube) Clone() *Datacube {
	out := NewDatacube(dc.Bands, dc.Rows, dc.Cols)
	copy(out.Data, dc.Data)
	return out
}

// RasterAsset 多波段影像资产：像素立方体 + Profile + 边车元数据
type RasterAsset struct {
	Name       string
	Path       string
	Wavelength []float64
	Profile    *RasterProfile
	Metadata   *SceneMetadata

	datacube *Datacube
}

// NewRasterAsset 从内存字段直接构造影像资产
func NewRasterAsset(name string, datacube *Datacube, wavelength []float64, profile *RasterProfile, metadata *SceneMetadata) *RasterAsset {
	return &RasterAsset{
		Name:       name,
		Wavelength: wavelength,
		Profile:    profile,
		Metadata:   metadata,
		datacube:   datacube,
	}
}

// OpenRasterAsset 从文件加载影像资产
// 读取像素立方体和Profile，并解析同目录下的边车元数据XML，
// 元数据文件名由影像文件名做子串替换得到（SPECTRAL_IMAGE.TIF -> METADATA.XML）。
// 元数据文件缺失时返回 ErrMetadataNotFound。
func OpenRasterAsset(path string) (*RasterAsset, error) {
	profile, datacube, err := readRasterCube(path)
	if err != nil {
		return nil, err
	}

	metadataPath, err := findMetadataFile(path)
	if err != nil {
		return nil, err
	}

	metadata, err := ParseSceneMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	wavelength, err := metadata.Wavelengths()
	if err != nil {
		return nil, err
	}

	return &RasterAsset{
		Name:       filepath.Base(path),
		Path:       path,
		Wavelength: wavelength,
		Profile:    profile,
		Metadata:   metadata,
		datacube:   datacube,
	}, nil
}

// Datacube 获取像素立方体
func (ra *RasterAsset) Datacube() *Datacube {
	return ra.datacube
}

// SetDatacube 替换像素立方体，校验波段数与波长向量的一致性
func (ra *RasterAsset) SetDatacube(dc *Datacube) error {
	if dc == nil {
		return fmt.Errorf("立方体为空")
	}
	if ra.Wavelength != nil && dc.Bands != len(ra.Wavelength) {
		return fmt.Errorf("波段数不一致: 立方体%d个波段, 波长向量%d个", dc.Bands, len(ra.Wavelength))
	}
	ra.datacube = dc
	return nil
}

// Rescale 按元数据中的增益/偏移对每个波段做线性定标
// pixel' = pixel*gain + offset，原地修改立方体并返回资产本身
func (ra *RasterAsset) Rescale() (*RasterAsset, error) {
	if ra.Metadata == nil {
		return nil, fmt.Errorf("缺少元数据，无法定标")
	}
	if ra.datacube == nil {
		return nil, fmt.Errorf("立方体为空")
	}

	gains, offsets, err := ra.Metadata.GainsAndOffsets()
	if err != nil {
		return nil, err
	}
	if len(gains) != ra.datacube.Bands {
		return nil, fmt.Errorf("定标系数数量与波段数不一致: %d != %d", len(gains), ra.datacube.Bands)
	}

	for b := 0; b < ra.datacube.Bands; b++ {
		band := ra.datacube.Band(b)
		floats.Scale(gains[b], band)
		floats.AddConst(offsets[b], band)
	}

	return ra, nil
}
