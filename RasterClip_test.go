package Spectra

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clipTestAsset 10x10两波段影像，范围 [10,49]-[11,50]，像元0.1度
func clipTestAsset(t *testing.T) *RasterAsset {
	t.Helper()
	return NewRasterAsset("clip-test", testCube(2, 10, 10),
		[]float64{420, 425.5}, testProfile(t, 10, 10, 2), nil)
}

func TestClipFullExtentPreservesPixels(t *testing.T) {
	asset := clipTestAsset(t)
	original := asset.Datacube().Clone()

	// 多边形略大于影像全范围
	polygon := polygonLayer(4326, orb.Ring{{9.9, 48.9}, {11.1, 48.9}, {11.1, 50.1}, {9.9, 50.1}, {9.9, 48.9}})

	out, err := ClipRasterByPolygon(asset, polygon)
	require.NoError(t, err)
	assert.Same(t, asset, out)

	assert.Equal(t, 10, asset.Profile.Width)
	assert.Equal(t, 10, asset.Profile.Height)
	assert.Equal(t, [6]float64{10.0, 0.1, 0, 50.0, 0, -0.1}, asset.Profile.GeoTransform)
	assert.Equal(t, original.Data, asset.Datacube().Data)
}

func TestClipSubregion(t *testing.T) {
	asset := clipTestAsset(t)
	original := asset.Datacube().Clone()

	// 覆盖列2..4、行2..4的3x3窗口
	polygon := polygonLayer(4326, orb.Ring{{10.2, 49.5}, {10.5, 49.5}, {10.5, 49.8}, {10.2, 49.8}, {10.2, 49.5}})

	_, err := ClipRasterByPolygon(asset, polygon)
	require.NoError(t, err)

	assert.Equal(t, 3, asset.Profile.Width)
	assert.Equal(t, 3, asset.Profile.Height)
	assert.InDelta(t, 10.2, asset.Profile.GeoTransform[0], 1e-9)
	assert.InDelta(t, 49.8, asset.Profile.GeoTransform[3], 1e-9)

	cube := asset.Datacube()
	assert.Equal(t, 2, cube.Bands)
	for b := 0; b < 2; b++ {
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				assert.Equal(t, original.At(b, r+2, c+2), cube.At(b, r, c),
					"band %d row %d col %d", b, r, c)
			}
		}
	}
}

func TestClipMasksOutsidePolygon(t *testing.T) {
	asset := clipTestAsset(t)

	// 三角形只覆盖窗口的一半，窗口内三角形外的像素应被置0
	polygon := polygonLayer(4326, orb.Ring{{10.0, 50.0}, {10.6, 50.0}, {10.0, 49.4}, {10.0, 50.0}})

	_, err := ClipRasterByPolygon(asset, polygon)
	require.NoError(t, err)

	assert.Equal(t, 6, asset.Profile.Width)
	assert.Equal(t, 6, asset.Profile.Height)

	cube := asset.Datacube()
	// 对角线右下方远离三角形的像素被置0
	assert.Equal(t, 0.0, cube.At(0, 5, 5))
	// 左上角在三角形内部，保留原值
	assert.NotEqual(t, 0.0, cube.At(1, 0, 0))
}

func TestClipNonIntersectingPolygon(t *testing.T) {
	asset := clipTestAsset(t)

	polygon := polygonLayer(4326, orb.Ring{{20, 20}, {21, 20}, {21, 21}, {20, 21}, {20, 20}})

	_, err := ClipRasterByPolygon(asset, polygon)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not overlap")
}

func TestClipReprojectsPolygonToRasterCRS(t *testing.T) {
	expected := clipTestAsset(t)
	polygon4326 := polygonLayer(4326, orb.Ring{{9.9, 48.9}, {11.1, 48.9}, {11.1, 50.1}, {9.9, 50.1}, {9.9, 48.9}})
	_, err := ClipRasterByPolygon(expected, polygon4326)
	require.NoError(t, err)

	// 同一多边形转为Web墨卡托后裁剪，结果应一致
	polygonMerc, err := ReprojectLayer(polygon4326, 3857)
	require.NoError(t, err)
	require.Equal(t, 3857, polygonMerc.EPSG)

	asset := clipTestAsset(t)
	_, err = ClipRasterByPolygon(asset, polygonMerc)
	require.NoError(t, err)

	assert.Equal(t, expected.Profile.Width, asset.Profile.Width)
	assert.Equal(t, expected.Profile.Height, asset.Profile.Height)
	assert.Equal(t, expected.Datacube().Data, asset.Datacube().Data)
}

func TestClipInvalidInputs(t *testing.T) {
	asset := clipTestAsset(t)

	_, err := ClipRasterByPolygon(asset, nil)
	require.Error(t, err)

	_, err = ClipRasterByPolygon(nil, polygonLayer(4326, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}))
	require.Error(t, err)
}
