// AssetCatalog.go
package Spectra

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AssetRecord 影像资产登记记录
type AssetRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	Name          string `gorm:"index"`
	Path          string
	Bands         int
	Width         int
	Height        int
	Projection    string
	WavelengthMin float64
	WavelengthMax float64
	CreatedAt     time.Time
}

// OpenAssetCatalog 打开（或创建）SQLite资产目录库并迁移表结构
func OpenAssetCatalog(path string) (*gorm.DB, error) {
	DB, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("打开资产目录库失败 %s: %w", path, err)
	}

	if err := DB.AutoMigrate(&AssetRecord{}); err != nil {
		return nil, fmt.Errorf("迁移资产目录表失败: %w", err)
	}

	return DB, nil
}

// SaveAssetRecord 将资产当前状态登记到目录库
func SaveAssetRecord(DB *gorm.DB, asset *RasterAsset) (*AssetRecord, error) {
	if asset == nil || asset.Profile == nil {
		return nil, fmt.Errorf("资产为空")
	}

	record := &AssetRecord{
		ID:         uuid.New().String(),
		Name:       asset.Name,
		Path:       asset.Path,
		Bands:      asset.Profile.Bands,
		Width:      asset.Profile.Width,
		Height:     asset.Profile.Height,
		Projection: asset.Profile.Projection,
	}

	if len(asset.Wavelength) > 0 {
		record.WavelengthMin = asset.Wavelength[0]
		record.WavelengthMax = asset.Wavelength[0]
		for _, w := range asset.Wavelength[1:] {
			if w < record.WavelengthMin {
				record.WavelengthMin = w
			}
			if w > record.WavelengthMax {
				record.WavelengthMax = w
			}
		}
	}

	if err := DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("写入资产记录失败: %w", err)
	}

	return record, nil
}

// ListAssetRecords 按登记时间倒序列出全部资产记录
func ListAssetRecords(DB *gorm.DB) ([]AssetRecord, error) {
	var records []AssetRecord
	if err := DB.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询资产记录失败: %w", err)
	}
	return records, nil
}

// FindAssetRecord 按名称查找最近登记的资产记录
func FindAssetRecord(DB *gorm.DB, name string) (*AssetRecord, error) {
	var record AssetRecord
	err := DB.Where("name = ?", name).Order("created_at DESC").First(&record).Error
	if err != nil {
		return nil, fmt.Errorf("查询资产记录失败 %s: %w", name, err)
	}
	return &record, nil
}
