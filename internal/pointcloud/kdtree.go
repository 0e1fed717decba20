package pointcloud

import (
	"container/heap"
	"sort"

	"github.com/samber/lo"

	"github.com/wirecell/wct-core/internal/wcerr"
)

// Metric computes a distance between two points in the tree's selected
// column space. The default, L2Squared, avoids a square root so knn/radius
// comparisons stay exact for integer-ish inputs.
type Metric func(a, b []float64) float64

// L2Squared is the default metric: sum of squared per-axis differences.
func L2Squared(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// L1 is the Manhattan-distance metric.
func L1(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

type kdNode struct {
	idx         int
	axis        int
	left, right *kdNode
}

// Tree is a k-d tree built over a Dataset's selected columns. It holds
// its own copy of the selected points, extracted from the Dataset at
// construction; a dynamic Tree's append callback adds new rows to that
// copy.
type Tree struct {
	selection []string
	metric    Metric
	points    [][]float64
	root      *kdNode
	dynamic   bool
}

// NewTree builds a k-d tree over ds's selection columns, each of which
// must be a Float64 array sharing ds's major size. metric defaults to
// L2Squared if nil.
func NewTree(ds *Dataset, selection []string, metric Metric) (*Tree, error) {
	if metric == nil {
		metric = L2Squared
	}
	points, err := extractPoints(ds, selection)
	if err != nil {
		return nil, err
	}
	t := &Tree{selection: selection, metric: metric, points: points}
	t.root = t.build(indexRange(len(points)), 0)
	return t, nil
}

// NewDynamicTree is like NewTree but also registers an append callback on
// ds: every future AppendTail extends the tree's point set and inserts
// the new points, rather than leaving the tree stale.
func NewDynamicTree(ds *Dataset, selection []string, metric Metric) (*Tree, error) {
	t, err := NewTree(ds, selection, metric)
	if err != nil {
		return nil, err
	}
	t.dynamic = true
	ds.onAppend(func(tail *Dataset) {
		newPoints, err := extractPoints(tail, selection)
		if err != nil {
			return
		}
		for _, p := range newPoints {
			t.insert(p)
		}
	})
	return t, nil
}

func extractPoints(ds *Dataset, selection []string) ([][]float64, error) {
	cols := make([][]float64, len(selection))
	n := ds.MajorSize()
	for i, name := range selection {
		arr := ds.Get(name)
		if arr == nil {
			return nil, wcerr.Newf(wcerr.Index, "pointcloud", "selection column %q not found", name)
		}
		if arr.Dtype != Float64 {
			return nil, wcerr.Newf(wcerr.Value, "pointcloud", "selection column %q must be f8, got %s", name, arr.Dtype)
		}
		col := make([]float64, n)
		for r := 0; r < n; r++ {
			v, err := arr.Float64At(r)
			if err != nil {
				return nil, err
			}
			col[r] = v
		}
		cols[i] = col
	}
	points := make([][]float64, n)
	for r := 0; r < n; r++ {
		p := make([]float64, len(selection))
		for i := range selection {
			p[i] = cols[i][r]
		}
		points[r] = p
	}
	return points, nil
}

func indexRange(n int) []int {
	return lo.Range(n)
}

func (t *Tree) build(idxs []int, depth int) *kdNode {
	if len(idxs) == 0 {
		return nil
	}
	axis := depth % len(t.selection)
	sort.Slice(idxs, func(i, j int) bool {
		return t.points[idxs[i]][axis] < t.points[idxs[j]][axis]
	})
	mid := len(idxs) / 2
	node := &kdNode{idx: idxs[mid], axis: axis}
	node.left = t.build(idxs[:mid], depth+1)
	node.right = t.build(idxs[mid+1:], depth+1)
	return node
}

// insert adds p as a new point and descends the existing tree to place
// it as a leaf, keeping prior structure (and thus prior query results
// that didn't touch the new region) intact.
func (t *Tree) insert(p []float64) {
	idx := len(t.points)
	t.points = append(t.points, p)
	if t.root == nil {
		t.root = &kdNode{idx: idx, axis: 0}
		return
	}
	depth := 0
	n := t.root
	for {
		axis := depth % len(t.selection)
		if p[axis] < t.points[n.idx][axis] {
			if n.left == nil {
				n.left = &kdNode{idx: idx, axis: axis}
				return
			}
			n = n.left
		} else {
			if n.right == nil {
				n.right = &kdNode{idx: idx, axis: axis}
				return
			}
			n = n.right
		}
		depth++
	}
}

type neighbor struct {
	idx  int
	dist float64
}

// maxHeap keeps the k nearest candidates seen so far, root = farthest.
type maxHeap []neighbor

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(neighbor)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// KNN returns the k nearest point indices to point and their distances
// (per the tree's metric), nearest first.
func (t *Tree) KNN(k int, point []float64) ([]int, []float64) {
	if k <= 0 || t.root == nil {
		return nil, nil
	}
	h := &maxHeap{}
	heap.Init(h)
	t.knnVisit(t.root, point, k, h)

	result := make([]neighbor, h.Len())
	copy(result, *h)
	sort.Slice(result, func(i, j int) bool { return result[i].dist < result[j].dist })

	idxs := make([]int, len(result))
	dists := make([]float64, len(result))
	for i, r := range result {
		idxs[i] = r.idx
		dists[i] = r.dist
	}
	return idxs, dists
}

func (t *Tree) knnVisit(n *kdNode, point []float64, k int, h *maxHeap) {
	if n == nil {
		return
	}
	d := t.metric(point, t.points[n.idx])
	if h.Len() < k {
		heap.Push(h, neighbor{idx: n.idx, dist: d})
	} else if d < (*h)[0].dist {
		heap.Pop(h)
		heap.Push(h, neighbor{idx: n.idx, dist: d})
	}

	diff := point[n.axis] - t.points[n.idx][n.axis]
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	t.knnVisit(near, point, k, h)

	// Only descend the far side if it could still hold a closer point
	// than the current worst kept candidate (the metric distance to the
	// splitting plane is a lower bound on true distance through that
	// subtree).
	proj := append([]float64(nil), point...)
	proj[n.axis] = t.points[n.idx][n.axis]
	axisDist := t.metric(point, proj)
	if h.Len() < k || axisDist < (*h)[0].dist {
		t.knnVisit(far, point, k, h)
	}
}

// Radius returns all point indices within squared distance r2 of point
// (per the tree's metric), with no particular ordering.
func (t *Tree) Radius(r2 float64, point []float64) []int {
	var out []int
	t.radiusVisit(t.root, point, r2, &out)
	return out
}

func (t *Tree) radiusVisit(n *kdNode, point []float64, r2 float64, out *[]int) {
	if n == nil {
		return
	}
	if d := t.metric(point, t.points[n.idx]); d <= r2 {
		*out = append(*out, n.idx)
	}
	diff := point[n.axis] - t.points[n.idx][n.axis]
	proj := append([]float64(nil), point...)
	proj[n.axis] = t.points[n.idx][n.axis]
	planeDist := t.metric(point, proj)
	if diff <= 0 {
		t.radiusVisit(n.left, point, r2, out)
		if planeDist <= r2 {
			t.radiusVisit(n.right, point, r2, out)
		}
	} else {
		t.radiusVisit(n.right, point, r2, out)
		if planeDist <= r2 {
			t.radiusVisit(n.left, point, r2, out)
		}
	}
}
