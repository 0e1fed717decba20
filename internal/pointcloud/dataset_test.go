package pointcloud

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func float64Array(t *testing.T, values ...float64) *Array {
	t.Helper()
	data := make([]byte, 0, 8*len(values))
	for _, v := range values {
		data = append(data, encodeFloat64(v)...)
	}
	arr, err := NewArray(Float64, []int{len(values)}, data)
	require.NoError(t, err)
	return arr
}

func TestArrayEqual(t *testing.T) {
	a := float64Array(t, 1, 2, 3)
	b := float64Array(t, 1, 2, 3)
	c := float64Array(t, 1, 2, 4)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestNewArrayRejectsMismatchedByteLength(t *testing.T) {
	_, err := NewArray(Float64, []int{3}, make([]byte, 16))
	require.Error(t, err)
}

func TestDatasetPutRequiresMatchingMajorSize(t *testing.T) {
	ds := NewDataset()
	require.NoError(t, ds.Put("x", float64Array(t, 1, 2, 3)))
	err := ds.Put("y", float64Array(t, 1, 2))
	require.Error(t, err)
}

func TestDatasetAppendTailLockStep(t *testing.T) {
	ds := NewDataset()
	require.NoError(t, ds.Put("x", float64Array(t, 1, 2)))
	require.NoError(t, ds.Put("y", float64Array(t, 10, 20)))

	tail := NewDataset()
	require.NoError(t, tail.Put("x", float64Array(t, 3)))
	require.NoError(t, tail.Put("y", float64Array(t, 30)))

	require.NoError(t, ds.AppendTail(tail))
	require.Equal(t, 3, ds.MajorSize())

	xv, err := ds.Get("x").Float64At(2)
	require.NoError(t, err)
	require.Equal(t, 3.0, xv)
	yv, err := ds.Get("y").Float64At(2)
	require.NoError(t, err)
	require.Equal(t, 30.0, yv)
}

func TestDatasetAppendTailRejectsColumnMismatch(t *testing.T) {
	ds := NewDataset()
	require.NoError(t, ds.Put("x", float64Array(t, 1)))

	tail := NewDataset()
	require.NoError(t, tail.Put("z", float64Array(t, 1)))

	require.Error(t, ds.AppendTail(tail))
}

func TestDatasetEqual(t *testing.T) {
	a := NewDataset()
	require.NoError(t, a.Put("x", float64Array(t, 1, 2)))
	b := NewDataset()
	require.NoError(t, b.Put("x", float64Array(t, 1, 2)))
	require.True(t, a.Equal(b))

	c := NewDataset()
	require.NoError(t, c.Put("x", float64Array(t, 1, 3)))
	require.False(t, a.Equal(c))
}
