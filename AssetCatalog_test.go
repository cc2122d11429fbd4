package Spectra

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetCatalogRoundTrip(t *testing.T) {
	DB, err := OpenAssetCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)

	asset := NewRasterAsset("scene-a", testCube(3, 4, 4),
		[]float64{423.03, 428.56, 434.16}, testProfile(t, 4, 4, 3), nil)
	asset.Path = "/data/scene-a.tif"

	record, err := SaveAssetRecord(DB, asset)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, 3, record.Bands)
	assert.InDelta(t, 423.03, record.WavelengthMin, 1e-9)
	assert.InDelta(t, 434.16, record.WavelengthMax, 1e-9)

	records, err := ListAssetRecords(DB)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "scene-a", records[0].Name)
	assert.Equal(t, "/data/scene-a.tif", records[0].Path)

	found, err := FindAssetRecord(DB, "scene-a")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)

	_, err = FindAssetRecord(DB, "missing")
	require.Error(t, err)
}

func TestSaveAssetRecordNilAsset(t *testing.T) {
	DB, err := OpenAssetCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)

	_, err = SaveAssetRecord(DB, nil)
	require.Error(t, err)
}
