package Spectra

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSceneBase = "ENMAP01-____L2A-DT0000001_20230815T103012Z_001_V010303_SPECTRAL_IMAGE.TIF"

// testProfile 构造WGS84测试Profile
func testProfile(t *testing.T, width, height, bands int) *RasterProfile {
	t.Helper()

	wkt, err := ProjectionWKT(4326)
	require.NoError(t, err)

	return &RasterProfile{
		Width:        width,
		Height:       height,
		Bands:        bands,
		GeoTransform: [6]float64{10.0, 0.1, 0, 50.0, 0, -0.1},
		Projection:   wkt,
		DataType:     "Float64",
	}
}

// testCube 填充确定性像素值的立方体
func testCube(bands, rows, cols int) *Datacube {
	cube := NewDatacube(bands, rows, cols)
	for b := 0; b < bands; b++ {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				cube.Set(b, r, c, float64(b*10000+r*cols+c))
			}
		}
	}
	return cube
}

// testSidecarXML 生成指定增益/偏移的边车元数据
func testSidecarXML(gains, offsets []float64) string {
	xml := "<level_X>\n  <specific>\n    <bandCharacterisation>\n"
	for i := range gains {
		xml += fmt.Sprintf("      <bandID number=\"%d\">\n", i+1)
		xml += fmt.Sprintf("        <wavelengthCenterOfBand>%g</wavelengthCenterOfBand>\n", 420.0+float64(i)*5.5)
		xml += fmt.Sprintf("        <GainOfBand>%g</GainOfBand>\n", gains[i])
		xml += fmt.Sprintf("        <OffsetOfBand>%g</OffsetOfBand>\n", offsets[i])
		xml += "      </bandID>\n"
	}
	xml += "    </bandCharacterisation>\n  </specific>\n</level_X>\n"
	return xml
}

// writeTestProduct 在目录下生成影像文件和边车元数据，返回影像路径
func writeTestProduct(t *testing.T, dir string, gains, offsets []float64) string {
	t.Helper()

	bands := len(gains)
	asset := NewRasterAsset("test", testCube(bands, 10, 10), nil, testProfile(t, 10, 10, bands), nil)

	tifPath := filepath.Join(dir, testSceneBase)
	require.NoError(t, asset.SaveGeoTIFF(tifPath))

	xmlName := "ENMAP01-____L2A-DT0000001_20230815T103012Z_001_V010303_METADATA.XML"
	require.NoError(t, os.WriteFile(filepath.Join(dir, xmlName), []byte(testSidecarXML(gains, offsets)), 0644))

	return tifPath
}

func TestOpenRasterAssetWavelengthMatchesBands(t *testing.T) {
	dir := t.TempDir()
	path := writeTestProduct(t, dir, []float64{0.5, 0.25, 2}, []float64{10, -1, 0})

	asset, err := OpenRasterAsset(path)
	require.NoError(t, err)

	assert.Equal(t, testSceneBase, asset.Name)
	assert.Equal(t, path, asset.Path)
	require.NotNil(t, asset.Datacube())
	assert.Equal(t, asset.Datacube().Bands, len(asset.Wavelength))
	assert.Equal(t, 3, asset.Profile.Bands)
	assert.Equal(t, 10, asset.Profile.Width)
	assert.Equal(t, 10, asset.Profile.Height)
	assert.InDelta(t, 420.0, asset.Wavelength[0], 1e-9)
	assert.InDelta(t, 431.0, asset.Wavelength[2], 1e-9)

	// 像素值经写出再读入保持不变
	assert.Equal(t, float64(0), asset.Datacube().At(0, 0, 0))
	assert.Equal(t, float64(10000+3*10+7), asset.Datacube().At(1, 3, 7))
}

func TestOpenRasterAssetMissingMetadata(t *testing.T) {
	dir := t.TempDir()

	asset := NewRasterAsset("test", testCube(2, 4, 4), nil, testProfile(t, 4, 4, 2), nil)
	tifPath := filepath.Join(dir, testSceneBase)
	require.NoError(t, asset.SaveGeoTIFF(tifPath))

	_, err := OpenRasterAsset(tifPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMetadataNotFound))
}

func TestRescaleAppliesGainAndOffset(t *testing.T) {
	dir := t.TempDir()
	gains := []float64{0.5, 0.25}
	offsets := []float64{10, -1}
	path := writeTestProduct(t, dir, gains, offsets)

	asset, err := OpenRasterAsset(path)
	require.NoError(t, err)

	raw01 := asset.Datacube().At(0, 0, 1)
	raw135 := asset.Datacube().At(1, 3, 5)

	out, err := asset.Rescale()
	require.NoError(t, err)
	assert.Same(t, asset, out)

	assert.InDelta(t, raw01*0.5+10, asset.Datacube().At(0, 0, 1), 1e-9)
	assert.InDelta(t, raw135*0.25-1, asset.Datacube().At(1, 3, 5), 1e-9)
}

func TestRescaleNotIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeTestProduct(t, dir, []float64{0.5, 0.5}, []float64{10, 10})

	asset, err := OpenRasterAsset(path)
	require.NoError(t, err)

	_, err = asset.Rescale()
	require.NoError(t, err)
	first := asset.Datacube().At(0, 0, 0)

	_, err = asset.Rescale()
	require.NoError(t, err)
	second := asset.Datacube().At(0, 0, 0)

	// 线性变换不是幂等的
	assert.NotEqual(t, first, second)
}

func TestRescaleIdentityIsNoOp(t *testing.T) {
	dir := t.TempDir()
	path := writeTestProduct(t, dir, []float64{1, 1}, []float64{0, 0})

	asset, err := OpenRasterAsset(path)
	require.NoError(t, err)

	before := asset.Datacube().Clone()
	_, err = asset.Rescale()
	require.NoError(t, err)

	assert.Equal(t, before.Data, asset.Datacube().Data)
}

func TestSetDatacubeShapeCheck(t *testing.T) {
	asset := NewRasterAsset("mem", testCube(3, 4, 4), []float64{420, 425, 430}, testProfile(t, 4, 4, 3), nil)

	err := asset.SetDatacube(testCube(2, 4, 4))
	require.Error(t, err)

	err = asset.SetDatacube(testCube(3, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, asset.Datacube().Rows)

	err = asset.SetDatacube(nil)
	require.Error(t, err)
}

func TestBandStatistics(t *testing.T) {
	cube := NewDatacube(1, 2, 2)
	copy(cube.Data, []float64{1, 2, 3, 4})
	asset := NewRasterAsset("mem", cube, nil, nil, nil)

	stats, err := asset.BandStatistics(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 4.0, stats.Max)
	assert.InDelta(t, 2.5, stats.Mean, 1e-9)

	_, err = asset.BandStatistics(1)
	require.Error(t, err)
}

func TestBatchOpenRasterAssets(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	pathA := writeTestProduct(t, dirA, []float64{1}, []float64{0})
	pathB := writeTestProduct(t, dirB, []float64{1, 1}, []float64{0, 0})

	assets, errs := BatchOpenRasterAssets([]string{pathA, pathB, filepath.Join(dirA, "missing.tif")})
	assert.Len(t, errs, 1)
	require.Len(t, assets, 2)
	assert.Equal(t, 1, assets[pathA].Profile.Bands)
	assert.Equal(t, 2, assets[pathB].Profile.Bands)
}
