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
#include "cpl_conv.h"
#include <stdlib.h>
*/
import "C"

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unsafe"
)

var MainConfig SpectraConfig

// SpectraConfig 库级配置，映射到GDAL运行时选项
type SpectraConfig struct {
	XMLName    xml.Name `xml:"config"`
	CacheMax   string   `xml:"gdal_cachemax"`
	NumThreads string   `xml:"gdal_num_threads"`
	TempDir    string   `xml:"temp_dir"`
}

func init() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configdata := filepath.Join(configDir, "Spectra", "config.xml")
	xmlFile, err := os.Open(configdata)
	if err != nil {
		// 配置文件可选，缺失时使用GDAL默认值
		return
	}
	defer xmlFile.Close()

	xmlDecoder := xml.NewDecoder(xmlFile)
	err = xmlDecoder.Decode(&MainConfig)
	if err != nil {
		fmt.Println("Error  decoding  XML:", err)
		return
	}
}

var gdalInitOnce sync.Once

// InitializeGDAL 注册GDAL/OGR驱动并应用配置选项（全局一次）
func InitializeGDAL() {
	gdalInitOnce.Do(func() {
		C.GDALAllRegister()
		C.OGRRegisterAll()

		setConfigOption("GDAL_CACHEMAX", MainConfig.CacheMax)
		setConfigOption("GDAL_NUM_THREADS", MainConfig.NumThreads)
		setConfigOption("CPL_TMPDIR", MainConfig.TempDir)
	})
}

func setConfigOption(key, value string) {
	if value == "" {
		return
	}
	cKey := C.CString(key)
	defer C.free(unsafe.Pointer(cKey))
	cValue := C.CString(value)
	defer C.free(unsafe.Pointer(cValue))
	C.CPLSetConfigOption(cKey, cValue)
}
