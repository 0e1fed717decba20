package wireschema

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheLoadAndReuse(t *testing.T) {
	store := buildSyntheticStore(10, 5.0)
	dir := t.TempDir()
	path := filepath.Join(dir, "geom.json")
	require.NoError(t, Dump(path, store))

	c := NewCache()

	loaded, err := c.Load(path, Loaded)
	require.NoError(t, err)
	require.Equal(t, Loaded, loaded.Level)

	pitched, err := c.Load(path, Pitch)
	require.NoError(t, err)
	require.Equal(t, Pitch, pitched.Level)

	// A second request at the same level must hit the cache and return an
	// identical result without reparsing.
	again, err := c.Load(path, Pitch)
	require.NoError(t, err)
	require.Equal(t, pitched, again)
}

func TestCacheDifferentLevelsIndependentlyKeyed(t *testing.T) {
	store := buildSyntheticStore(6, 4.0)
	dir := t.TempDir()
	path := filepath.Join(dir, "geom.json")
	require.NoError(t, Dump(path, store))

	c := NewCache()

	order, err := c.Load(path, Order)
	require.NoError(t, err)
	require.Equal(t, Order, order.Level)

	direction, err := c.Load(path, Direction)
	require.NoError(t, err)
	require.Equal(t, Direction, direction.Level)

	require.NotEqual(t, order.Level, direction.Level)
}

func TestCacheRejectsMissingFile(t *testing.T) {
	c := NewCache()
	_, err := c.Load(filepath.Join(t.TempDir(), "missing.json"), Loaded)
	require.Error(t, err)
}
