// Spectra/tiff_writer.go
package Spectra

/*
#cgo pkg-config: gdal
#include "gdal.h"
#include "cpl_conv.h"
#include "cpl_string.h"
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// gdalTypeByName 数据类型名称转GDAL类型，未知名称回退为Float64
func gdalTypeByName(name string) C.GDALDataType {
	if name == "" {
		return C.GDT_Float64
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	dataType := C.GDALGetDataTypeByName(cName)
	if dataType == C.GDT_Unknown {
		return C.GDT_Float64
	}
	return dataType
}

// SaveGeoTIFF 将影像资产写出为GeoTIFF文件
// 像素类型沿用Profile中的DataType，GDAL负责从float64缓冲转换
func (ra *RasterAsset) SaveGeoTIFF(path string) error {
	if ra.Profile == nil || ra.datacube == nil {
		return fmt.Errorf("资产缺少Profile或像素立方体")
	}

	InitializeGDAL()

	driverName := C.CString("GTiff")
	defer C.free(unsafe.Pointer(driverName))

	driver := C.GDALGetDriverByName(driverName)
	if driver == nil {
		return fmt.Errorf("无法获取GTiff驱动")
	}

	var options **C.char
	compress := C.CString("COMPRESS")
	lzw := C.CString("LZW")
	options = C.CSLSetNameValue(options, compress, lzw)
	C.free(unsafe.Pointer(compress))
	C.free(unsafe.Pointer(lzw))
	defer C.CSLDestroy(options)

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	profile := ra.Profile
	dataset := C.GDALCreate(driver, cPath,
		C.int(profile.Width), C.int(profile.Height), C.int(profile.Bands),
		gdalTypeByName(profile.DataType), options)
	if dataset == nil {
		return fmt.Errorf("创建GeoTIFF失败 %s: %s", path, C.GoString(C.CPLGetLastErrorMsg()))
	}
	defer C.GDALClose(dataset)

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

	ioErr := C.GDALDatasetRasterIO(dataset, C.GF_Write,
		0, 0, C.int(profile.Width), C.int(profile.Height),
		unsafe.Pointer(&ra.datacube.Data[0]),
		C.int(profile.Width), C.int(profile.Height),
		C.GDT_Float64,
		C.int(profile.Bands), nil,
		0, 0, 0)
	if ioErr != C.CE_None {
		return fmt.Errorf("写入GeoTIFF失败 %s: %s", path, C.GoString(C.CPLGetLastErrorMsg()))
	}

	return nil
}
