// RasterStats.go
package Spectra

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BandStats 单波段统计量
type BandStats struct {
	Band   int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// BandStatistics 计算指定波段（从0开始）的统计量
func (ra *RasterAsset) BandStatistics(band int) (*BandStats, error) {
	if ra.datacube == nil {
		return nil, fmt.Errorf("立方体为空")
	}
	if band < 0 || band >= ra.datacube.Bands {
		return nil, fmt.Errorf("波段索引越界: %d (共%d个波段)", band, ra.datacube.Bands)
	}

	data := ra.datacube.Band(band)
	return &BandStats{
		Band:   band,
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Mean:   stat.Mean(data, nil),
		StdDev: stat.StdDev(data, nil),
	}, nil
}

// AllBandStatistics 计算全部波段的统计量
func (ra *RasterAsset) AllBandStatistics() ([]*BandStats, error) {
	if ra.datacube == nil {
		return nil, fmt.Errorf("立方体为空")
	}
	out := make([]*BandStats, ra.datacube.Bands)
	for b := 0; b < ra.datacube.Bands; b++ {
		stats, err := ra.BandStatistics(b)
		if err != nil {
			return nil, err
		}
		out[b] = stats
	}
	return out, nil
}
