package raygrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wirecell/wct-core/internal/geom"
)

// planeRayPair builds a wire-plane layer whose wire direction sits at
// angleDeg from vertical (measured in the Y-Z plane) and whose pitch
// spacing is pitchMag, positioned so that the ray at index alignG passes
// through alignPoint.
func planeRayPair(angleDeg, pitchMag float64, alignG int, alignPoint geom.Point) RayPair {
	rad := angleDeg * math.Pi / 180
	wireDir := geom.Point{X: 0, Y: math.Sin(rad), Z: math.Cos(rad)}
	pitchDir := geom.Point{X: 0, Y: math.Cos(rad), Z: -math.Sin(rad)}
	pitchVec := pitchDir.Scale(pitchMag)

	center := alignPoint.Sub(pitchVec.Scale(float64(alignG)))
	return RayPair{
		Ray0: geom.Ray{Tail: center, Head: center.Add(wireDir)},
		Ray1: geom.Ray{Tail: center.Add(pitchVec), Head: center.Add(pitchVec).Add(wireDir)},
	}
}

// boundsRayPairs returns the two bounding-box layers: a horizontal-wire
// layer measuring vertical position, and an off-axis layer measuring
// horizontal position. Each layer's single bin [0,1) straddles the origin
// symmetrically (ray 0 at origin-pitchVec/2, ray 1 at origin+pitchVec/2) so
// the 1000mm bounding box contains any wire-plane geometry built around the
// origin regardless of the bound layer's own angle.
func boundsRayPairs() (RayPair, RayPair) {
	origin := geom.Point{X: 0, Y: 0, Z: 0}
	horiz := planeRayPair(90, 1000, 0, origin.Sub(pitchVecFor(90, 1000).Scale(0.5)))
	vert := planeRayPair(30, 1000, 0, origin.Sub(pitchVecFor(30, 1000).Scale(0.5)))
	return horiz, vert
}

// pitchVecFor returns the pitch-direction step vector planeRayPair derives
// internally, so callers can pre-offset the alignment point by half a pitch.
func pitchVecFor(angleDeg, pitchMag float64) geom.Point {
	rad := angleDeg * math.Pi / 180
	pitchDir := geom.Point{X: 0, Y: math.Cos(rad), Z: -math.Sin(rad)}
	return pitchDir.Scale(pitchMag)
}

func microboonishCoordinates(t *testing.T) (*Coordinates, geom.Point) {
	t.Helper()
	origin := geom.Point{X: 0, Y: 0, Z: 0}
	b0, b1 := boundsRayPairs()
	u := planeRayPair(60, 3.0, 1200, origin)
	v := planeRayPair(-60, 3.0, 1200, origin)
	w := planeRayPair(0, 3.0, 1728, origin)

	coords, err := NewCoordinates([]RayPair{b0, b1, u, v, w})
	require.NoError(t, err)
	return coords, origin
}

func TestCoordinatesCrossAtAlignedPoint(t *testing.T) {
	coords, origin := microboonishCoordinates(t)

	// Wire-plane layers are indices 2 (U), 3 (V), 4 (W).
	p, err := coords.RayCrossing(2, 1200, 3, 1200)
	require.NoError(t, err)
	require.InDelta(t, origin.Y, p.Y, 1e-6)
	require.InDelta(t, origin.Z, p.Z, 1e-6)

	p2, err := coords.RayCrossing(2, 1200, 4, 1728)
	require.NoError(t, err)
	require.InDelta(t, origin.Y, p2.Y, 1e-6)
	require.InDelta(t, origin.Z, p2.Z, 1e-6)
}

func TestPitchIndexAndRelative(t *testing.T) {
	coords, _ := microboonishCoordinates(t)
	require.Equal(t, 1200, coords.PitchIndex(coords.PitchMagnitude(2)*1200.5, 2))
	rel := coords.PitchRelative(coords.PitchMagnitude(2)*1200.25, 2)
	require.InDelta(t, 1200.25, rel, 1e-9)
}

func TestRayCrossingRejectsSameLayer(t *testing.T) {
	coords, _ := microboonishCoordinates(t)
	_, err := coords.RayCrossing(2, 0, 2, 1)
	require.Error(t, err)
}

func TestRayCrossingRejectsOutOfRangeLayer(t *testing.T) {
	coords, _ := microboonishCoordinates(t)
	_, err := coords.RayCrossing(2, 0, 99, 1)
	require.Error(t, err)
}

func TestNewCoordinatesRejectsTooFewLayers(t *testing.T) {
	_, err := NewCoordinates([]RayPair{planeRayPair(0, 1, 0, geom.Point{})})
	require.Error(t, err)
}

func TestRingPointsOrdersAroundCentroid(t *testing.T) {
	square := []geom.Point{
		{Y: 1, Z: 1}, {Y: -1, Z: 1}, {Y: -1, Z: -1}, {Y: 1, Z: -1},
	}
	ring := RingPoints(square)
	require.Len(t, ring, 4)
	for i := 1; i < len(ring); i++ {
		ai := math.Atan2(ring[i-1].Z, ring[i-1].Y)
		aj := math.Atan2(ring[i].Z, ring[i].Y)
		require.LessOrEqual(t, ai, aj)
	}
}
