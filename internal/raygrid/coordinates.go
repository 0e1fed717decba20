// Package raygrid implements the Ray-Grid coordinate system for one anode
// face: a set of layers of equally spaced parallel rays (two bounding-box
// layers plus one per wire plane) supporting O(1) crossing and pitch
// queries, and the iterative tiling algorithm that turns per-layer
// activity into geometric blobs.
package raygrid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/wirecell/wct-core/internal/geom"
	"github.com/wirecell/wct-core/internal/wcerr"
)

// RayPair is the two representative rays used to derive one layer: ray 0
// sits at pitch index 0, ray 1 at pitch index 1.
type RayPair struct {
	Ray0, Ray1 geom.Ray
}

// layer holds a Ray-Grid layer's precomputed geometry: the center of ray
// zero, the pitch vector between successive rays, and the wire direction.
type layer struct {
	center    geom.Point
	wireDir   geom.Point
	pitchVec  geom.Point
	pitchMag  float64
	pitchUnit geom.Point
}

func newLayer(pair RayPair) layer {
	wireDir := pair.Ray0.Unit()
	pitch := geom.RayPitch(pair.Ray0, pair.Ray1)
	pitchVec := pitch.Vector()
	return layer{
		center:    pitch.Tail,
		wireDir:   wireDir,
		pitchVec:  pitchVec,
		pitchMag:  pitchVec.Norm(),
		pitchUnit: pitchVec.Unit(),
	}
}

// rayAt returns the concrete ray at pitch index g.
func (l layer) rayAt(g int) geom.Ray {
	offset := l.pitchVec.Scale(float64(g))
	return geom.Ray{Tail: l.center.Add(offset), Head: l.center.Add(offset).Add(l.wireDir)}
}

// Coordinates answers O(1) geometric queries for one face's ray layers.
// All tables are populated at construction and are read-only thereafter,
// so a *Coordinates is safe for concurrent use by multiple tiling runs.
type Coordinates struct {
	layers []layer
	// base[l1][l2] is ray_crossing(l1,0,l2,0); jump[l1][l2] is the
	// Cartesian step in that crossing as l2's index advances by one,
	// holding l1 fixed (spec §4.2's jumps(l1,l2)).
	base [][]geom.Point
	jump [][]geom.Point
}

// NewCoordinates builds a Coordinates from at least 3 layer ray-pairs
// (index 0 and 1 are the bounding-box layers; 2..N-1 are wire planes).
func NewCoordinates(pairs []RayPair) (*Coordinates, error) {
	if len(pairs) < 3 {
		return nil, wcerr.Newf(wcerr.Value, "raygrid", "need at least 3 layers, got %d", len(pairs))
	}

	layers := make([]layer, len(pairs))
	for i, p := range pairs {
		layers[i] = newLayer(p)
	}

	n := len(layers)
	base := make([][]geom.Point, n)
	jump := make([][]geom.Point, n)
	for i := range base {
		base[i] = make([]geom.Point, n)
		jump[i] = make([]geom.Point, n)
	}

	for l1 := 0; l1 < n; l1++ {
		for l2 := 0; l2 < n; l2++ {
			if l1 == l2 {
				continue
			}
			c00, err := solveCrossing2D(layers[l1].rayAt(0), layers[l2].rayAt(0))
			if err != nil {
				return nil, wcerr.Wrap(wcerr.Value, "raygrid", "layers are parallel and cannot form a grid", err)
			}
			c01, err := solveCrossing2D(layers[l1].rayAt(0), layers[l2].rayAt(1))
			if err != nil {
				return nil, wcerr.Wrap(wcerr.Value, "raygrid", "layers are parallel and cannot form a grid", err)
			}
			base[l1][l2] = c00
			jump[l1][l2] = c01.Sub(c00)
		}
	}

	return &Coordinates{layers: layers, base: base, jump: jump}, nil
}

// solveCrossing2D finds the intersection of two coplanar, non-parallel
// rays by solving the 2x2 linear system A + t*dA = B + s*dB for (t,s) in
// the Y-Z plane (the drift coordinate X is not part of the Ray-Grid).
func solveCrossing2D(a, b geom.Ray) (geom.Point, error) {
	dA := a.Vector()
	dB := b.Vector()

	m := mat.NewDense(2, 2, []float64{
		dA.Y, -dB.Y,
		dA.Z, -dB.Z,
	})
	rhs := mat.NewVecDense(2, []float64{
		b.Tail.Y - a.Tail.Y,
		b.Tail.Z - a.Tail.Z,
	})

	det := mat.Det(m)
	if math.Abs(det) < 1e-12 {
		return geom.Point{}, wcerr.New(wcerr.Value, "raygrid", "rays are parallel; no unique crossing")
	}

	var ts mat.VecDense
	if err := ts.SolveVec(m, rhs); err != nil {
		return geom.Point{}, wcerr.Wrap(wcerr.Value, "raygrid", "solving ray crossing", err)
	}
	t := ts.AtVec(0)

	p := a.Tail.Add(dA.Scale(t))
	return p, nil
}

// NumLayers returns the number of layers in the Coordinates.
func (c *Coordinates) NumLayers() int { return len(c.layers) }

// PitchMagnitude returns layer's pitch spacing.
func (c *Coordinates) PitchMagnitude(layer int) float64 { return c.layers[layer].pitchMag }

// RayCrossing returns the Cartesian point where ray (l1,g1) crosses ray
// (l2,g2). The returned point's X is always zero; drift time sets it
// later.
func (c *Coordinates) RayCrossing(l1, g1, l2, g2 int) (geom.Point, error) {
	return c.RayCrossingF(l1, float64(g1), l2, float64(g2))
}

// RayCrossingF generalizes RayCrossing to fractional pitch indices, used by
// the blob sampler's non-grid-aligned lattice option (SPEC_FULL §4.5's
// grid strategy with step != 1.0).
func (c *Coordinates) RayCrossingF(l1 int, g1 float64, l2 int, g2 float64) (geom.Point, error) {
	if l1 == l2 {
		return geom.Point{}, wcerr.New(wcerr.Value, "raygrid", "cannot cross a layer with itself")
	}
	if err := c.checkLayer(l1); err != nil {
		return geom.Point{}, err
	}
	if err := c.checkLayer(l2); err != nil {
		return geom.Point{}, err
	}
	p := c.base[l1][l2]
	p = p.Add(c.jump[l1][l2].Scale(g2))
	p = p.Add(c.jump[l2][l1].Scale(g1))
	return p, nil
}

// PitchLocation returns the signed pitch coordinate, in l3's pitch basis,
// of the point where ray (l1,g1) crosses ray (l2,g2).
func (c *Coordinates) PitchLocation(l1, g1, l2, g2, l3 int) (float64, error) {
	return c.PitchLocationF(l1, float64(g1), l2, float64(g2), l3)
}

// PitchLocationF is PitchLocation generalized to fractional pitch indices.
func (c *Coordinates) PitchLocationF(l1 int, g1 float64, l2 int, g2 float64, l3 int) (float64, error) {
	p, err := c.RayCrossingF(l1, g1, l2, g2)
	if err != nil {
		return 0, err
	}
	if err := c.checkLayer(l3); err != nil {
		return 0, err
	}
	lay := c.layers[l3]
	return p.Sub(lay.center).Dot(lay.pitchUnit), nil
}

// PitchIndex returns floor(pitchValue / pitch_magnitude(layer)).
func (c *Coordinates) PitchIndex(pitchValue float64, layer int) int {
	return int(math.Floor(pitchValue / c.layers[layer].pitchMag))
}

// PitchRelative returns pitchValue / pitch_magnitude(layer) as a real
// number, used by the tiler's nudge adjustment.
func (c *Coordinates) PitchRelative(pitchValue float64, layer int) float64 {
	return pitchValue / c.layers[layer].pitchMag
}

func (c *Coordinates) checkLayer(l int) error {
	if l < 0 || l >= len(c.layers) {
		return wcerr.Newf(wcerr.Index, "raygrid", "layer %d out of range [0,%d)", l, len(c.layers))
	}
	return nil
}

// RingPoints orders corners into the unique convex ring formed by
// traversing them in angular order around their centroid.
func RingPoints(corners []geom.Point) []geom.Point {
	if len(corners) == 0 {
		return nil
	}
	var cx, cy, cz float64
	for _, p := range corners {
		cx += p.X
		cy += p.Y
		cz += p.Z
	}
	n := float64(len(corners))
	centroid := geom.Point{X: cx / n, Y: cy / n, Z: cz / n}

	out := make([]geom.Point, len(corners))
	copy(out, corners)
	sort.Slice(out, func(i, j int) bool {
		ai := math.Atan2(out[i].Z-centroid.Z, out[i].Y-centroid.Y)
		aj := math.Atan2(out[j].Z-centroid.Z, out[j].Y-centroid.Y)
		return ai < aj
	})
	return out
}
