package pointcloud

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func gridDataset(t *testing.T) *Dataset {
	t.Helper()
	xs := []float64{0, 1, 2, 0, 1, 2, 0, 1, 2}
	ys := []float64{0, 0, 0, 1, 1, 1, 2, 2, 2}
	ds := NewDataset()
	require.NoError(t, ds.Put("x", float64Array(t, xs...)))
	require.NoError(t, ds.Put("y", float64Array(t, ys...)))
	return ds
}

func TestKNNFindsNearestGridPoints(t *testing.T) {
	tree, err := NewTree(gridDataset(t), []string{"x", "y"}, nil)
	require.NoError(t, err)

	// (1,1) is index 4 itself, exact match at distance zero, plus its four
	// axis neighbors all at distance 1.
	idxs, dists := tree.KNN(5, []float64{1, 1})
	require.Len(t, idxs, 5)
	require.Equal(t, 0.0, dists[0])
	require.Equal(t, 4, idxs[0])
	for _, d := range dists[1:] {
		require.Equal(t, 1.0, d)
	}
}

func TestKNNZeroOrEmptyTree(t *testing.T) {
	tree, err := NewTree(gridDataset(t), []string{"x", "y"}, nil)
	require.NoError(t, err)
	idxs, dists := tree.KNN(0, []float64{1, 1})
	require.Nil(t, idxs)
	require.Nil(t, dists)
}

func TestRadiusReturnsAllPointsWithinSquaredDistance(t *testing.T) {
	tree, err := NewTree(gridDataset(t), []string{"x", "y"}, nil)
	require.NoError(t, err)
	idxs := tree.Radius(1, []float64{1, 1})
	// center + 4 axis-adjacent points all sit at squared distance <= 1.
	require.Len(t, idxs, 5)
}

func TestDynamicTreeExtendsOnAppend(t *testing.T) {
	ds := gridDataset(t)
	tree, err := NewDynamicTree(ds, []string{"x", "y"}, nil)
	require.NoError(t, err)

	before := tree.Radius(0.01, []float64{5, 5})
	require.Empty(t, before)

	tail := NewDataset()
	require.NoError(t, tail.Put("x", float64Array(t, 5)))
	require.NoError(t, tail.Put("y", float64Array(t, 5)))
	require.NoError(t, ds.AppendTail(tail))

	after := tree.Radius(0.01, []float64{5, 5})
	require.Len(t, after, 1)
	require.Equal(t, 9, after[0])
}

func TestL1Metric(t *testing.T) {
	tree, err := NewTree(gridDataset(t), []string{"x", "y"}, L1)
	require.NoError(t, err)
	idxs, dists := tree.KNN(1, []float64{0, 0})
	require.Equal(t, []int{0}, idxs)
	require.Equal(t, 0.0, dists[0])
}

func TestMultiQueryMemoizesBySelectionDynamicMetric(t *testing.T) {
	ds := gridDataset(t)
	mq := NewMultiQuery(ds)

	t1, err := mq.QueryL2Squared([]string{"x", "y"}, false)
	require.NoError(t, err)
	t2, err := mq.QueryL2Squared([]string{"x", "y"}, false)
	require.NoError(t, err)
	require.Same(t, t1, t2)

	t3, err := mq.QueryL1([]string{"x", "y"}, false)
	require.NoError(t, err)
	require.NotSame(t, t1, t3)

	t4, err := mq.QueryL2Squared([]string{"x", "y"}, true)
	require.NoError(t, err)
	require.NotSame(t, t1, t4)
}
