/*
Copyright (C) 2025 [GrainArc]

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package Spectra

/*
#cgo pkg-config: gdal
#include "gdal.h"
#include "ogr_api.h"
#include "ogr_srs_api.h"
#include "cpl_conv.h"
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
)

// DefaultEPSG 默认目标坐标系：WGS84经纬度
const DefaultEPSG = 4326

// VectorLayer 矢量图层：要素集合 + 坐标系
type VectorLayer struct {
	Name     string
	EPSG     int
	Features *geojson.FeatureCollection
}

// NewVectorLayer 从要素集合构造矢量图层
func NewVectorLayer(name string, epsg int, features *geojson.FeatureCollection) *VectorLayer {
	return &VectorLayer{Name: name, EPSG: epsg, Features: features}
}

// ==================== 坐标系辅助函数 ====================

// srsFromEPSG 根据EPSG代码创建空间参考（调用方负责销毁）
func srsFromEPSG(epsg int) (C.OGRSpatialReferenceH, error) {
	srs := C.OSRNewSpatialReference(nil)
	if C.OSRImportFromEPSG(srs, C.int(epsg)) != C.OGRERR_NONE {
		C.OSRDestroySpatialReference(srs)
		return nil, fmt.Errorf("无法创建EPSG:%d坐标系", epsg)
	}
	// 保持 经度/X 在前的传统轴序
	C.OSRSetAxisMappingStrategy(srs, C.OAMS_TRADITIONAL_GIS_ORDER)
	return srs, nil
}

// srsFromWKT 根据WKT创建空间参考（调用方负责销毁）
func srsFromWKT(wkt string) (C.OGRSpatialReferenceH, error) {
	cWKT := C.CString(wkt)
	defer C.free(unsafe.Pointer(cWKT))

	srs := C.OSRNewSpatialReference(cWKT)
	if srs == nil {
		return nil, fmt.Errorf("无法解析WKT坐标系")
	}
	C.OSRSetAxisMappingStrategy(srs, C.OAMS_TRADITIONAL_GIS_ORDER)
	return srs, nil
}

// ProjectionWKT 导出EPSG代码对应的WKT表示
func ProjectionWKT(epsg int) (string, error) {
	InitializeGDAL()

	srs, err := srsFromEPSG(epsg)
	if err != nil {
		return "", err
	}
	defer C.OSRDestroySpatialReference(srs)

	var cWKT *C.char
	if C.OSRExportToWkt(srs, &cWKT) != C.OGRERR_NONE {
		return "", fmt.Errorf("导出WKT失败: EPSG:%d", epsg)
	}
	defer C.CPLFree(unsafe.Pointer(cWKT))

	return C.GoString(cWKT), nil
}

// srsAuthorityEPSG 读取空间参考的EPSG代码，没有权威代码时返回0
func srsAuthorityEPSG(srs C.OGRSpatialReferenceH) int {
	if srs == nil {
		return 0
	}
	code := C.OSRGetAuthorityCode(srs, nil)
	if code == nil {
		return 0
	}
	epsg, err := strconv.Atoi(C.GoString(code))
	if err != nil {
		return 0
	}
	return epsg
}

// ==================== orb与OGR几何互转 ====================

// orbGeometryToOGR 将orb几何转换为OGR几何句柄（经WKB，调用方负责销毁）
func orbGeometryToOGR(geom orb.Geometry, srs C.OGRSpatialReferenceH) (C.OGRGeometryH, error) {
	data, err := wkb.Marshal(geom)
	if err != nil {
		return nil, fmt.Errorf("几何编码WKB失败: %w", err)
	}

	var hGeom C.OGRGeometryH
	ogrErr := C.OGR_G_CreateFromWkb(unsafe.Pointer(&data[0]), srs, &hGeom, C.int(len(data)))
	if ogrErr != C.OGRERR_NONE {
		return nil, fmt.Errorf("WKB解析为OGR几何失败: %d", int(ogrErr))
	}
	return hGeom, nil
}

// ogrGeometryToOrb 将OGR几何句柄转换为orb几何
func ogrGeometryToOrb(hGeom C.OGRGeometryH) (orb.Geometry, error) {
	size := int(C.OGR_G_WkbSize(hGeom))
	if size <= 0 {
		return nil, fmt.Errorf("空的OGR几何")
	}

	buf := make([]byte, size)
	ogrErr := C.OGR_G_ExportToWkb(hGeom, C.wkbNDR, (*C.uchar)(unsafe.Pointer(&buf[0])))
	if ogrErr != C.OGRERR_NONE {
		return nil, fmt.Errorf("OGR几何导出WKB失败: %d", int(ogrErr))
	}

	geom, err := wkb.Unmarshal(buf)
	if err != nil {
		return nil, fmt.Errorf("WKB解码失败: %w", err)
	}
	return geom, nil
}

// ==================== 图层重投影 ====================

// ReprojectLayer 将矢量图层重投影到目标坐标系（默认EPSG:4326）
// 图层已处于目标坐标系时原样返回，不做任何拷贝
func ReprojectLayer(layer *VectorLayer, dstEPSG int) (*VectorLayer, error) {
	if dstEPSG == 0 {
		dstEPSG = DefaultEPSG
	}
	if layer.EPSG == dstEPSG {
		return layer, nil
	}

	InitializeGDAL()

	dstSRS, err := srsFromEPSG(dstEPSG)
	if err != nil {
		return nil, err
	}
	defer C.OSRDestroySpatialReference(dstSRS)

	out, err := reprojectLayerToSRS(layer, dstSRS)
	if err != nil {
		return nil, err
	}
	if out != layer {
		out.EPSG = dstEPSG
	}
	return out, nil
}

// reprojectLayerToSRS 将图层重投影到指定空间参考
// 源与目标坐标系一致时返回原图层
func reprojectLayerToSRS(layer *VectorLayer, dstSRS C.OGRSpatialReferenceH) (*VectorLayer, error) {
	if layer == nil || layer.Features == nil {
		return nil, fmt.Errorf("图层为空")
	}
	if layer.EPSG == 0 {
		return nil, fmt.Errorf("图层缺少坐标系信息")
	}

	srcSRS, err := srsFromEPSG(layer.EPSG)
	if err != nil {
		return nil, err
	}
	defer C.OSRDestroySpatialReference(srcSRS)

	if C.OSRIsSame(srcSRS, dstSRS) != 0 {
		return layer, nil
	}

	transform := C.OCTNewCoordinateTransformation(srcSRS, dstSRS)
	if transform == nil {
		return nil, fmt.Errorf("无法创建坐标转换")
	}
	defer C.OCTDestroyCoordinateTransformation(transform)

	outFC := geojson.NewFeatureCollection()
	for _, feature := range layer.Features.Features {
		hGeom, err := orbGeometryToOGR(feature.Geometry, srcSRS)
		if err != nil {
			return nil, err
		}

		if C.OGR_G_Transform(hGeom, transform) != C.OGRERR_NONE {
			C.OGR_G_DestroyGeometry(hGeom)
			return nil, fmt.Errorf("几何坐标转换失败: %s", C.GoString(C.CPLGetLastErrorMsg()))
		}

		newGeom, err := ogrGeometryToOrb(hGeom)
		C.OGR_G_DestroyGeometry(hGeom)
		if err != nil {
			return nil, err
		}

		outFeature := geojson.NewFeature(newGeom)
		outFeature.ID = feature.ID
		outFeature.Properties = feature.Properties
		outFC.Append(outFeature)
	}

	return &VectorLayer{
		Name:     layer.Name,
		EPSG:     srsAuthorityEPSG(dstSRS),
		Features: outFC,
	}, nil
}

// ==================== 矢量文件读取 ====================

// OpenVectorLayer 用OGR打开矢量文件（shp/gdb/geojson等）并取第一个图层
func OpenVectorLayer(path string) (*VectorLayer, error) {
	InitializeGDAL()

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	dataSource := C.OGROpen(cPath, 0, nil)
	if dataSource == nil {
		return nil, fmt.Errorf("无法打开矢量文件: %s", path)
	}
	defer C.OGRReleaseDataSource(dataSource)

	hLayer := C.OGR_DS_GetLayer(dataSource, 0)
	if hLayer == nil {
		return nil, fmt.Errorf("矢量文件中没有图层: %s", path)
	}

	layerName := C.GoString(C.OGR_L_GetName(hLayer))
	epsg := srsAuthorityEPSG(C.OGR_L_GetSpatialRef(hLayer))

	fc, err := layerToFeatureCollection(hLayer)
	if err != nil {
		return nil, err
	}

	return &VectorLayer{Name: layerName, EPSG: epsg, Features: fc}, nil
}

// layerToFeatureCollection 遍历OGR图层，转换为orb要素集合
func layerToFeatureCollection(hLayer C.OGRLayerH) (*geojson.FeatureCollection, error) {
	C.OGR_L_ResetReading(hLayer)

	hLayerDefn := C.OGR_L_GetLayerDefn(hLayer)
	if hLayerDefn == nil {
		return nil, fmt.Errorf("无法获取图层定义")
	}
	fieldCount := int(C.OGR_FD_GetFieldCount(hLayerDefn))

	fc := geojson.NewFeatureCollection()
	for {
		hFeature := C.OGR_L_GetNextFeature(hLayer)
		if hFeature == nil {
			break
		}

		hGeom := C.OGR_F_GetGeometryRef(hFeature)
		if hGeom == nil {
			C.OGR_F_Destroy(hFeature)
			continue
		}

		geom, err := ogrGeometryToOrb(hGeom)
		if err != nil {
			C.OGR_F_Destroy(hFeature)
			return nil, err
		}

		feature := geojson.NewFeature(geom)
		feature.ID = int64(C.OGR_F_GetFID(hFeature))

		for i := 0; i < fieldCount; i++ {
			hFieldDefn := C.OGR_FD_GetFieldDefn(hLayerDefn, C.int(i))
			name := C.GoString(C.OGR_Fld_GetNameRef(hFieldDefn))

			if C.OGR_F_IsFieldSet(hFeature, C.int(i)) == 0 {
				continue
			}
			switch C.OGR_Fld_GetType(hFieldDefn) {
			case C.OFTInteger:
				feature.Properties[name] = int(C.OGR_F_GetFieldAsInteger(hFeature, C.int(i)))
			case C.OFTInteger64:
				feature.Properties[name] = int64(C.OGR_F_GetFieldAsInteger64(hFeature, C.int(i)))
			case C.OFTReal:
				feature.Properties[name] = float64(C.OGR_F_GetFieldAsDouble(hFeature, C.int(i)))
			default:
				feature.Properties[name] = C.GoString(C.OGR_F_GetFieldAsString(hFeature, C.int(i)))
			}
		}

		fc.Append(feature)
		C.OGR_F_Destroy(hFeature)
	}

	return fc, nil
}
