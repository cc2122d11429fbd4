package Spectra

/*
#cgo pkg-config: gdal
#include "gdal.h"
#include "gdal_alg.h"
#include "ogr_api.h"
#include "ogr_srs_api.h"
#include "cpl_conv.h"
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/paulmach/orb"
)

// ClipRasterByPolygon 用多边形图层裁剪影像资产
// 多边形先重投影到影像坐标系，像素立方体写入临时内存数据集后
// 按多边形外包范围裁剪并做几何掩膜，结果原地覆盖资产的立方体、
// 尺寸和地理变换。多边形与影像范围不相交时返回错误。
func ClipRasterByPolygon(asset *RasterAsset, polygon *VectorLayer) (*RasterAsset, error) {
	if asset == nil || asset.Profile == nil || asset.Datacube() == nil {
		return nil, fmt.Errorf("invalid raster asset")
	}
	if polygon == nil || polygon.Features == nil || len(polygon.Features.Features) == 0 {
		return nil, fmt.Errorf("invalid polygon layer")
	}

	InitializeGDAL()

	profile := asset.Profile

	// 将多边形重投影到影像坐标系
	var rasterSRS C.OGRSpatialReferenceH
	if profile.Projection != "" {
		var err error
		rasterSRS, err = srsFromWKT(profile.Projection)
		if err != nil {
			return nil, err
		}
		defer C.OSRDestroySpatialReference(rasterSRS)

		polygon, err = reprojectLayerToSRS(polygon, rasterSRS)
		if err != nil {
			return nil, err
		}
	}

	// 多边形外包范围对应的像素窗口
	bound := polygon.Features.Features[0].Geometry.Bound()
	for _, feature := range polygon.Features.Features[1:] {
		bound = bound.Union(feature.Geometry.Bound())
	}

	col0, row0, col1, row1, err := windowFromBound(profile.GeoTransform, bound, profile.Width, profile.Height)
	if err != nil {
		return nil, err
	}
	width := col1 - col0
	height := row1 - row0

	// 裁剪后的地理变换
	geoTransform := profile.GeoTransform
	geoTransform[0] = profile.GeoTransform[0] + float64(col0)*profile.GeoTransform[1] + float64(row0)*profile.GeoTransform[2]
	geoTransform[3] = profile.GeoTransform[3] + float64(col0)*profile.GeoTransform[4] + float64(row0)*profile.GeoTransform[5]

	// 立方体写入临时内存数据集，按窗口读出裁剪部分
	memDS, err := newMemoryDataset(profile, asset.Datacube())
	if err != nil {
		return nil, err
	}
	defer C.GDALClose(memDS)

	clipped := NewDatacube(profile.Bands, height, width)
	ioErr := C.GDALDatasetRasterIO(memDS, C.GF_Read,
		C.int(col0), C.int(row0), C.int(width), C.int(height),
		unsafe.Pointer(&clipped.Data[0]),
		C.int(width), C.int(height),
		C.GDT_Float64,
		C.int(profile.Bands), nil,
		0, 0, 0)
	if ioErr != C.CE_None {
		return nil, fmt.Errorf("failed to read clip window: %s", C.GoString(C.CPLGetLastErrorMsg()))
	}

	// 栅格化多边形得到掩膜，窗口外的像素置为NoData
	geoms := make([]C.OGRGeometryH, 0, len(polygon.Features.Features))
	defer func() {
		for _, g := range geoms {
			C.OGR_G_DestroyGeometry(g)
		}
	}()
	for _, feature := range polygon.Features.Features {
		hGeom, err := orbGeometryToOGR(feature.Geometry, rasterSRS)
		if err != nil {
			return nil, err
		}
		geoms = append(geoms, hGeom)
	}

	maskData, err := rasterizeMask(geoms, geoTransform, profile.Projection, width, height)
	if err != nil {
		return nil, err
	}

	fill := 0.0
	if profile.HasNoData {
		fill = profile.NoData
	}
	size := height * width
	for b := 0; b < profile.Bands; b++ {
		band := clipped.Band(b)
		for i := 0; i < size; i++ {
			if maskData[i] == 0 {
				band[i] = fill
			}
		}
	}

	// 原地覆盖资产
	asset.datacube = clipped
	asset.Profile.Width = width
	asset.Profile.Height = height
	asset.Profile.GeoTransform = geoTransform

	return asset, nil
}

// windowFromBound 将坐标范围换算为像素窗口并与影像范围求交
func windowFromBound(gt [6]float64, bound orb.Bound, width, height int) (int, int, int, int, error) {
	if gt[1] == 0 || gt[5] == 0 {
		return 0, 0, 0, 0, fmt.Errorf("invalid geotransform")
	}

	left := snapPixel((bound.Min[0] - gt[0]) / gt[1])
	right := snapPixel((bound.Max[0] - gt[0]) / gt[1])
	top := snapPixel((bound.Max[1] - gt[3]) / gt[5])
	bottom := snapPixel((bound.Min[1] - gt[3]) / gt[5])

	col0 := int(math.Floor(math.Min(left, right)))
	col1 := int(math.Ceil(math.Max(left, right)))
	row0 := int(math.Floor(math.Min(top, bottom)))
	row1 := int(math.Ceil(math.Max(top, bottom)))

	if col0 < 0 {
		col0 = 0
	}
	if row0 < 0 {
		row0 = 0
	}
	if col1 > width {
		col1 = width
	}
	if row1 > height {
		row1 = height
	}

	if col1 <= col0 || row1 <= row0 {
		return 0, 0, 0, 0, fmt.Errorf("polygon does not overlap raster extent")
	}

	return col0, row0, col1, row1, nil
}

// snapPixel 吸附到整数像素边界，消除坐标换算的浮点误差
func snapPixel(v float64) float64 {
	r := math.Round(v)
	if math.Abs(v-r) < 1e-6 {
		return r
	}
	return v
}

// rasterizeMask 将几何体烧入字节掩膜（覆盖像素为255，其余为0）
// 掩膜画布通过MEM驱动的DATAPOINTER语法挂到GDAL数据集上
func rasterizeMask(geoms []C.OGRGeometryH, geoTransform [6]float64, projection string, width, height int) ([]uint8, error) {
	canvas := make([]uint8, width*height)

	memStr := fmt.Sprintf("MEM:::DATAPOINTER=%d,PIXELS=%d,LINES=%d,DATATYPE=Byte",
		uintptr(unsafe.Pointer(&canvas[0])), width, height)
	memStrC := C.CString(memStr)
	defer C.free(unsafe.Pointer(memStrC))

	maskDS := C.GDALOpen(memStrC, C.GA_Update)
	if maskDS == nil {
		return nil, fmt.Errorf("failed to create mask dataset")
	}
	defer C.GDALClose(maskDS)

	if projection != "" {
		cWKT := C.CString(projection)
		C.GDALSetProjection(maskDS, cWKT)
		C.free(unsafe.Pointer(cWKT))
	}

	var cGeoTransform [6]C.double
	for i := 0; i < 6; i++ {
		cGeoTransform[i] = C.double(geoTransform[i])
	}
	if gdalErr := C.GDALSetGeoTransform(maskDS, &cGeoTransform[0]); gdalErr != C.CE_None {
		return nil, fmt.Errorf("failed to set mask geotransform: %v", gdalErr)
	}

	bandList := []C.int{1}
	burnValues := make([]C.double, len(geoms))
	for i := range burnValues {
		burnValues[i] = 255
	}

	gdalErr := C.GDALRasterizeGeometries(maskDS,
		1, &bandList[0],
		C.int(len(geoms)), &geoms[0],
		nil, nil,
		&burnValues[0],
		nil, nil, nil)
	if gdalErr != C.CE_None {
		return nil, fmt.Errorf("failed to rasterize mask: %s", C.GoString(C.CPLGetLastErrorMsg()))
	}

	runtime.KeepAlive(canvas)
	return canvas, nil
}
