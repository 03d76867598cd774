package training

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileModelStore_SaveLoad(t *testing.T) {
	store := NewFileModelStore(filepath.Join(t.TempDir(), "models"))

	x, y := syntheticLinear(20)
	m, err := Fit(x, y, 1e-6)
	require.NoError(t, err)
	m.AssetID = "eth"
	m.TrainedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Metrics = Metrics{MAE: 1.5, R2: 0.9, TrainSize: 16, TestSize: 4}

	require.NoError(t, store.Save(m))
	assert.FileExists(t, filepath.Join(store.Dir(), "eth_model.msgpack"))

	loaded, err := store.Load("eth")
	require.NoError(t, err)
	assert.Equal(t, m.Coefficients, loaded.Coefficients)
	assert.Equal(t, m.Intercept, loaded.Intercept)
	assert.Equal(t, m.FeatureNames, loaded.FeatureNames)
	assert.Equal(t, m.Metrics, loaded.Metrics)
	assert.True(t, m.TrainedAt.Equal(loaded.TrainedAt))

	want, _ := m.Predict(x[3])
	got, err := loaded.Predict(x[3])
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assets, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"eth"}, assets)

	_, err = store.ModifiedAt("eth")
	assert.NoError(t, err)
}

func TestFileModelStore_NotFound(t *testing.T) {
	store := NewFileModelStore(t.TempDir())

	_, err := store.Load("btc")
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = store.ModifiedAt("btc")
	assert.ErrorIs(t, err, ErrModelNotFound)

	assets, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestFileModelStore_RejectsPathLikeAssetIDs(t *testing.T) {
	store := NewFileModelStore(t.TempDir())

	for _, id := range []string{"", ".", "..", "../btc", "a/b", `a\b`} {
		_, err := store.Load(id)
		assert.ErrorIs(t, err, ErrInvalidAssetID, "id %q", id)
		assert.ErrorIs(t, store.Save(&LinearModel{AssetID: id}), ErrInvalidAssetID, "id %q", id)
	}
}

func TestFileModelStore_Info(t *testing.T) {
	dir := t.TempDir()
	store := NewFileModelStore(dir)
	require.NoError(t, store.Save(&LinearModel{AssetID: "btc"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))

	info, err := store.Info()
	require.NoError(t, err)
	assert.Equal(t, int64(1), *info.Rows)
}
