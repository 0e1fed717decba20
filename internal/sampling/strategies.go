package sampling

import (
	"math"

	"github.com/wirecell/wct-core/internal/geom"
	"github.com/wirecell/wct-core/internal/raygrid"
	"github.com/wirecell/wct-core/internal/wcerr"
)

// Strategy samples a blob's 2-D extent, in the Y-Z plane, to a set of
// points. Every strategy must satisfy: calling Sample twice with the
// same inputs produces the same points in the same order.
type Strategy interface {
	ID() string
	Sample(coords *raygrid.Coordinates, blob raygrid.Blob) ([]geom.Point, error)
}

// CenterStrategy samples one point: the centroid of the blob's corners.
type CenterStrategy struct{}

func (CenterStrategy) ID() string { return "center" }

func (CenterStrategy) Sample(_ *raygrid.Coordinates, blob raygrid.Blob) ([]geom.Point, error) {
	if len(blob.Corners) == 0 {
		return nil, nil
	}
	var cy, cz float64
	for _, c := range blob.Corners {
		cy += c.Point.Y
		cz += c.Point.Z
	}
	n := float64(len(blob.Corners))
	return []geom.Point{{Y: cy / n, Z: cz / n}}, nil
}

// CornerStrategy samples every corner of the blob. Testable property:
// its output equals, as a set, the blob's corners as produced by
// ray_crossing — no recomputation, just a projection of Corners.
type CornerStrategy struct{}

func (CornerStrategy) ID() string { return "corner" }

func (CornerStrategy) Sample(_ *raygrid.Coordinates, blob raygrid.Blob) ([]geom.Point, error) {
	out := make([]geom.Point, len(blob.Corners))
	for i, c := range blob.Corners {
		out[i] = c.Point
	}
	return out, nil
}

// EdgeStrategy samples the midpoint of each edge of the corner ring.
type EdgeStrategy struct{}

func (EdgeStrategy) ID() string { return "edge" }

func (EdgeStrategy) Sample(_ *raygrid.Coordinates, blob raygrid.Blob) ([]geom.Point, error) {
	corners := make([]geom.Point, len(blob.Corners))
	for i, c := range blob.Corners {
		corners[i] = c.Point
	}
	ring := raygrid.RingPoints(corners)
	if len(ring) < 2 {
		return nil, nil
	}
	out := make([]geom.Point, len(ring))
	for i := range ring {
		next := ring[(i+1)%len(ring)]
		out[i] = geom.Point{Y: (ring[i].Y + next.Y) / 2, Z: (ring[i].Z + next.Z) / 2}
	}
	return out, nil
}

// GridStrategy samples a uniform lattice on Layer1 and Layer2's
// ray-crossings. Step 1.0 (the default, step<=0 maps to it) selects
// ray crossings aligned to the grid itself; other steps sample a
// non-grid-aligned lattice stepping by Step*pitch in each layer's pitch
// direction. A sampled point is kept only if it lies inside the blob's
// third strip layer — the one present in blob.Strips besides Layer1 and
// Layer2.
type GridStrategy struct {
	Layer1, Layer2 int
	Step           float64
}

func (GridStrategy) ID() string { return "grid" }

func (g GridStrategy) Sample(coords *raygrid.Coordinates, blob raygrid.Blob) ([]geom.Point, error) {
	s1, ok := blob.StripFor(g.Layer1)
	if !ok {
		return nil, nil
	}
	s2, ok := blob.StripFor(g.Layer2)
	if !ok {
		return nil, nil
	}
	thirdLayer, hasThird := thirdStripLayer(blob, g.Layer1, g.Layer2)

	step := g.Step
	if step <= 0 {
		step = 1.0
	}

	var out []geom.Point
	for g1 := float64(s1.Lo); g1 < float64(s1.Hi); g1 += step {
		for g2 := float64(s2.Lo); g2 < float64(s2.Hi); g2 += step {
			if hasThird {
				pv, err := coords.PitchLocationF(g.Layer1, g1, g.Layer2, g2, thirdLayer.Layer)
				if err != nil {
					return nil, err
				}
				idx := coords.PitchIndex(pv, thirdLayer.Layer)
				if idx < thirdLayer.Lo || idx >= thirdLayer.Hi {
					continue
				}
			}
			p, err := coords.RayCrossingF(g.Layer1, g1, g.Layer2, g2)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
	}
	return out, nil
}

func thirdStripLayer(blob raygrid.Blob, l1, l2 int) (raygrid.Strip, bool) {
	for _, s := range blob.Strips {
		if s.Layer != l1 && s.Layer != l2 {
			return s, true
		}
	}
	return raygrid.Strip{}, false
}

// BoundsStrategy steps along each edge of the corner ring with spacing
// Step*pitch, excluding the corner points themselves. The reference
// pitch is that of the first wire-plane layer present in the blob (the
// lowest-index strip layer from 2 up), matching how the tiler itself
// treats layer 2 as the first wire-plane layer in the standard
// 2-bound-plus-N-plane layout; a blob with only bounding-box strips uses
// its lowest-index strip layer.
type BoundsStrategy struct {
	Step float64
}

func (BoundsStrategy) ID() string { return "bounds" }

func (b BoundsStrategy) Sample(coords *raygrid.Coordinates, blob raygrid.Blob) ([]geom.Point, error) {
	if len(blob.Strips) == 0 {
		return nil, wcerr.New(wcerr.Value, "sampling", "bounds strategy requires a blob with at least one strip")
	}
	refLayer := -1
	for _, s := range blob.Strips {
		if s.Layer >= 2 && (refLayer < 0 || s.Layer < refLayer) {
			refLayer = s.Layer
		}
	}
	if refLayer < 0 {
		refLayer = blob.Strips[0].Layer
		for _, s := range blob.Strips {
			if s.Layer < refLayer {
				refLayer = s.Layer
			}
		}
	}
	pitch := coords.PitchMagnitude(refLayer)

	corners := make([]geom.Point, len(blob.Corners))
	for i, c := range blob.Corners {
		corners[i] = c.Point
	}
	ring := raygrid.RingPoints(corners)
	if len(ring) < 2 {
		return nil, nil
	}

	step := b.Step
	if step <= 0 {
		step = 1.0
	}
	spacing := step * pitch

	var out []geom.Point
	for i := range ring {
		a := ring[i]
		z := ring[(i+1)%len(ring)]
		edge := geom.Point{X: z.X - a.X, Y: z.Y - a.Y, Z: z.Z - a.Z}
		length := math.Hypot(edge.Y, edge.Z)
		if length == 0 || spacing <= 0 {
			continue
		}
		dir := geom.Point{Y: edge.Y / length, Z: edge.Z / length}
		for d := spacing; d < length; d += spacing {
			out = append(out, geom.Point{Y: a.Y + dir.Y*d, Z: a.Z + dir.Z*d})
		}
	}
	return out, nil
}
