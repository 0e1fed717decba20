package sampling

import (
	"math"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wirecell/wct-core/internal/geom"
	"github.com/wirecell/wct-core/internal/raygrid"
)

// planeRayPair and boundsRayPairs mirror the microBooNE-ish test geometry
// used by the ray-grid tiling tests (U at +60 deg, V at -60 deg, W at 0
// deg, 3mm pitch), rebuilt here from exported raygrid/geom types since
// that geometry helper itself is package-private to raygrid.
func planeRayPair(angleDeg, pitchMag float64, alignG int, alignPoint geom.Point) raygrid.RayPair {
	rad := angleDeg * math.Pi / 180
	wireDir := geom.Point{X: 0, Y: math.Sin(rad), Z: math.Cos(rad)}
	pitchDir := geom.Point{X: 0, Y: math.Cos(rad), Z: -math.Sin(rad)}
	pitchVec := pitchDir.Scale(pitchMag)

	center := alignPoint.Sub(pitchVec.Scale(float64(alignG)))
	return raygrid.RayPair{
		Ray0: geom.Ray{Tail: center, Head: center.Add(wireDir)},
		Ray1: geom.Ray{Tail: center.Add(pitchVec), Head: center.Add(pitchVec).Add(wireDir)},
	}
}

func pitchVecFor(angleDeg, pitchMag float64) geom.Point {
	rad := angleDeg * math.Pi / 180
	pitchDir := geom.Point{X: 0, Y: math.Cos(rad), Z: -math.Sin(rad)}
	return pitchDir.Scale(pitchMag)
}

func boundsRayPairs() (raygrid.RayPair, raygrid.RayPair) {
	origin := geom.Point{X: 0, Y: 0, Z: 0}
	horiz := planeRayPair(90, 1000, 0, origin.Sub(pitchVecFor(90, 1000).Scale(0.5)))
	vert := planeRayPair(30, 1000, 0, origin.Sub(pitchVecFor(30, 1000).Scale(0.5)))
	return horiz, vert
}

func microboonishCoords(t *testing.T) *raygrid.Coordinates {
	t.Helper()
	origin := geom.Point{X: 0, Y: 0, Z: 0}
	b0, b1 := boundsRayPairs()
	u := planeRayPair(60, 3.0, 1200, origin)
	v := planeRayPair(-60, 3.0, 1200, origin)
	w := planeRayPair(0, 3.0, 1728, origin)

	coords, err := raygrid.NewCoordinates([]raygrid.RayPair{b0, b1, u, v, w})
	require.NoError(t, err)
	return coords
}

func windowActivity(layer, center, width int) raygrid.Activity {
	values := make([]float64, width)
	for i := range values {
		values[i] = 1
	}
	return raygrid.Activity{Layer: layer, Offset: center - width/2, Values: values, Threshold: 0}
}

func boundsActivity(layer int) raygrid.Activity {
	return raygrid.Activity{Layer: layer, Offset: 0, Values: []float64{1}, Threshold: 0}
}

// singleHexagonalBlob tiles the microBooNE-ish three-plane geometry with
// width-3 activity windows in every plane (wider than scenario E1's
// single-wire strips) and returns the first blob Tile produces.
func singleHexagonalBlob(t *testing.T) (*raygrid.Coordinates, raygrid.Blob) {
	t.Helper()
	coords := microboonishCoords(t)
	activities := []raygrid.Activity{
		boundsActivity(0),
		boundsActivity(1),
		windowActivity(2, 1200, 3),
		windowActivity(3, 1200, 3),
		windowActivity(4, 1728, 3),
	}
	blobs, err := raygrid.Tile(coords, activities, 1e-3)
	require.NoError(t, err)
	require.NotEmpty(t, blobs)
	return coords, blobs[0]
}

func TestCenterStrategyReturnsCentroid(t *testing.T) {
	coords, blob := singleHexagonalBlob(t)
	pts, err := CenterStrategy{}.Sample(coords, blob)
	require.NoError(t, err)
	require.Len(t, pts, 1)

	var cy, cz float64
	for _, c := range blob.Corners {
		cy += c.Point.Y
		cz += c.Point.Z
	}
	n := float64(len(blob.Corners))
	require.InDelta(t, cy/n, pts[0].Y, 1e-9)
	require.InDelta(t, cz/n, pts[0].Z, 1e-9)
}

// TestCornerStrategyIdempotence implements testable property 7: the
// corner strategy's output equals, as a set, the blob's corners as
// produced by ray_crossing.
func TestCornerStrategyIdempotence(t *testing.T) {
	coords, blob := singleHexagonalBlob(t)
	first, err := CornerStrategy{}.Sample(coords, blob)
	require.NoError(t, err)
	second, err := CornerStrategy{}.Sample(coords, blob)
	require.NoError(t, err)

	require.ElementsMatch(t, pointSet(first), pointSet(second))

	var want []geom.Point
	for _, c := range blob.Corners {
		want = append(want, c.Point)
	}
	require.ElementsMatch(t, pointSet(want), pointSet(first))
}

func pointSet(pts []geom.Point) []string {
	out := make([]string, len(pts))
	for i, p := range pts {
		out[i] = geomKey(p)
	}
	sort.Strings(out)
	return out
}

func geomKey(p geom.Point) string {
	return roundKey(p.Y) + "," + roundKey(p.Z)
}

func roundKey(v float64) string {
	return strconv.FormatInt(int64(math.Round(v*1e6)), 10)
}

func TestEdgeStrategyMidpointsMatchRingEdges(t *testing.T) {
	coords, blob := singleHexagonalBlob(t)
	corners := make([]geom.Point, len(blob.Corners))
	for i, c := range blob.Corners {
		corners[i] = c.Point
	}
	ring := raygrid.RingPoints(corners)

	pts, err := EdgeStrategy{}.Sample(coords, blob)
	require.NoError(t, err)
	require.Len(t, pts, len(ring))

	for i, p := range pts {
		next := ring[(i+1)%len(ring)]
		require.InDelta(t, (ring[i].Y+next.Y)/2, p.Y, 1e-9)
		require.InDelta(t, (ring[i].Z+next.Z)/2, p.Z, 1e-9)
	}
}

func TestGridStrategyAlignedProducesBoundedLattice(t *testing.T) {
	coords, blob := singleHexagonalBlob(t)
	g := GridStrategy{Layer1: 2, Layer2: 3, Step: 1.0}
	pts, err := g.Sample(coords, blob)
	require.NoError(t, err)
	require.NotEmpty(t, pts)

	s1, ok := blob.StripFor(2)
	require.True(t, ok)
	s2, ok := blob.StripFor(3)
	require.True(t, ok)
	// Every aligned crossing inside the third strip is a subset of the
	// full s1 x s2 lattice; it can never exceed that lattice's size.
	require.LessOrEqual(t, len(pts), s1.Width()*s2.Width())
}

func TestGridStrategyMissingLayerYieldsNoPoints(t *testing.T) {
	coords, blob := singleHexagonalBlob(t)
	g := GridStrategy{Layer1: 2, Layer2: 10, Step: 1.0}
	pts, err := g.Sample(coords, blob)
	require.NoError(t, err)
	require.Empty(t, pts)
}

func TestBoundsStrategyExcludesCornersAndStaysOnRing(t *testing.T) {
	coords, blob := singleHexagonalBlob(t)
	pts, err := BoundsStrategy{Step: 1.0}.Sample(coords, blob)
	require.NoError(t, err)

	corners := make([]geom.Point, len(blob.Corners))
	for i, c := range blob.Corners {
		corners[i] = c.Point
	}
	for _, p := range pts {
		for _, c := range corners {
			dist := math.Hypot(p.Y-c.Y, p.Z-c.Z)
			require.Greater(t, dist, 1e-6)
		}
	}
}

func TestTimeBinningDefaultSingleSampleAtStart(t *testing.T) {
	tb := DefaultTimeBinning()
	times := tb.times(10, 4)
	require.Equal(t, []float64{10}, times)
}

func TestTimeBinningMultipleSamplesSpanFraction(t *testing.T) {
	tb := TimeBinning{TBins: 3, TMin: 0, TMax: 1}
	times := tb.times(0, 9)
	require.Equal(t, []float64{0, 4.5, 9}, times)
}

func TestSamplerComposesStrategiesIntoDataset(t *testing.T) {
	coords, blob := singleHexagonalBlob(t)
	drift := DriftConfig{XOrigin: 0, XSign: 1, TimeOffset: 0, DriftSpeed: 2}
	sampler, err := NewSampler(drift, DefaultTimeBinning(), "rec_", CenterStrategy{}, CornerStrategy{})
	require.NoError(t, err)

	ds, err := sampler.Sample(coords, 5, blob, 100, 10)
	require.NoError(t, err)

	want := 1 + len(blob.Corners)
	require.Equal(t, want, ds.Get("rec_x").MajorSize())
	require.Equal(t, want, ds.Get("rec_blob").MajorSize())

	bid, err := ds.Get("rec_blob").Float64At(0)
	require.NoError(t, err)
	require.Equal(t, 5.0, bid)
}

func TestNewSamplerRejectsEmptyStrategyList(t *testing.T) {
	_, err := NewSampler(DriftConfig{}, DefaultTimeBinning(), "")
	require.Error(t, err)
}

func TestNewSamplerRejectsDuplicateStrategy(t *testing.T) {
	_, err := NewSampler(DriftConfig{}, DefaultTimeBinning(), "", CenterStrategy{}, CenterStrategy{})
	require.Error(t, err)
}
