// MemoryRaster.go
package Spectra

/*
#cgo pkg-config: gdal
#include "gdal.h"
#include "cpl_conv.h"
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// newMemoryDataset 将像素立方体写入临时内存数据集
// 掩膜等GDAL原语需要数据集句柄而不是裸数组，用完后调用方负责GDALClose
func newMemoryDataset(profile *RasterProfile, cube *Datacube) (C.GDALDatasetH, error) {
	InitializeGDAL()

	driverName := C.CString("MEM")
	defer C.free(unsafe.Pointer(driverName))

	driver := C.GDALGetDriverByName(driverName)
	if driver == nil {
		return nil, fmt.Errorf("无法获取MEM驱动")
	}

	emptyName := C.CString("")
	defer C.free(unsafe.Pointer(emptyName))

	dataset := C.GDALCreate(driver, emptyName,
		C.int(profile.Width), C.int(profile.Height), C.int(profile.Bands),
		C.GDT_Float64, nil)
	if dataset == nil {
		return nil, fmt.Errorf("创建内存数据集失败: %s", C.GoString(C.CPLGetLastErrorMsg()))
	}

	var geoTransform [6]C.double
	for i := 0; i < 6; i++ {
		geoTransform[i] = C.double(profile.GeoTransform[i])
	}
	C.GDALSetGeoTransform(dataset, &geoTransform[0])

	if profile.Projection != "" {
		cWKT := C.CString(profile.Projection)
		C.GDALSetProjection(dataset, cWKT)
		C.free(unsafe.Pointer(cWKT))
	}

	if profile.HasNoData {
		for b := 1; b <= profile.Bands; b++ {
			band := C.GDALGetRasterBand(dataset, C.int(b))
			C.GDALSetRasterNoDataValue(band, C.double(profile.NoData))
		}
	}

	err := C.GDALDatasetRasterIO(dataset, C.GF_Write,
		0, 0, C.int(profile.Width), C.int(profile.Height),
		unsafe.Pointer(&cube.Data[0]),
		C.int(profile.Width), C.int(profile.Height),
		C.GDT_Float64,
		C.int(profile.Bands), nil,
		0, 0, 0)
	if err != C.CE_None {
		C.GDALClose(dataset)
		return nil, fmt.Errorf("写入内存数据集失败: %s", C.GoString(C.CPLGetLastErrorMsg()))
	}

	return dataset, nil
}
