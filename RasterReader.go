// RasterReader.go
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

// datasetProfile 从GDAL数据集提取Profile信息
func datasetProfile(dataset C.GDALDatasetH) *RasterProfile {
	profile := &RasterProfile{
		Width:  int(C.GDALGetRasterXSize(dataset)),
		Height: int(C.GDALGetRasterYSize(dataset)),
		Bands:  int(C.GDALGetRasterCount(dataset)),
	}

	var geoTransform [6]C.double
	if C.GDALGetGeoTransform(dataset, &geoTransform[0]) == C.CE_None {
		for i := 0; i < 6; i++ {
			profile.GeoTransform[i] = float64(geoTransform[i])
		}
	} else {
		// 没有地理信息时使用像素坐标系的地理变换
		profile.GeoTransform = [6]float64{0, 1, 0, 0, 0, 1}
	}

	profile.Projection = C.GoString(C.GDALGetProjectionRef(dataset))

	if profile.Bands > 0 {
		band := C.GDALGetRasterBand(dataset, 1)
		profile.DataType = C.GoString(C.GDALGetDataTypeName(C.GDALGetRasterDataType(band)))

		var hasNoData C.int
		noData := C.GDALGetRasterNoDataValue(band, &hasNoData)
		if hasNoData != 0 {
			profile.NoData = float64(noData)
			profile.HasNoData = true
		}
	}

	return profile
}

// datasetCube 将数据集的全部波段一次性读入float64立方体（波段连续存储）
func datasetCube(dataset C.GDALDatasetH, profile *RasterProfile) (*Datacube, error) {
	cube := NewDatacube(profile.Bands, profile.Height, profile.Width)
	if len(cube.Data) == 0 {
		return nil, fmt.Errorf("数据集为空: %dx%dx%d", profile.Bands, profile.Height, profile.Width)
	}

	err := C.GDALDatasetRasterIO(dataset, C.GF_Read,
		0, 0, C.int(profile.Width), C.int(profile.Height),
		unsafe.Pointer(&cube.Data[0]),
		C.int(profile.Width), C.int(profile.Height),
		C.GDT_Float64,
		C.int(profile.Bands), nil,
		0, 0, 0)
	if err != C.CE_None {
		return nil, fmt.Errorf("读取像素数据失败: %s", C.GoString(C.CPLGetLastErrorMsg()))
	}

	return cube, nil
}

// readRasterCube 打开栅格文件，读取Profile和完整像素立方体
func readRasterCube(path string) (*RasterProfile, *Datacube, error) {
	InitializeGDAL()

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	dataset := C.GDALOpen(cPath, C.GA_ReadOnly)
	if dataset == nil {
		return nil, nil, fmt.Errorf("failed to open image: %s", path)
	}
	defer C.GDALClose(dataset)

	profile := datasetProfile(dataset)

	cube, err := datasetCube(dataset, profile)
	if err != nil {
		return nil, nil, err
	}

	return profile, cube, nil
}
