package raygrid

import (
	"math"

	"github.com/wirecell/wct-core/internal/geom"
	"github.com/wirecell/wct-core/internal/wcerr"
)

// Strip is a contiguous half-open range [Lo,Hi) of pitch indices in Layer
// considered active.
type Strip struct {
	Layer  int
	Lo, Hi int
}

func (s Strip) width() int { return s.Width() }

// Width returns the strip's pitch-index extent, Hi-Lo.
func (s Strip) Width() int { return s.Hi - s.Lo }

// Activity is a dense vector of per-pitch-index values for one layer,
// starting at Offset. Values at or below Threshold are inactive.
type Activity struct {
	Layer     int
	Offset    int
	Values    []float64
	Threshold float64
}

// Strips groups consecutive super-threshold elements into maximal Strips.
func (a Activity) Strips() []Strip {
	var out []Strip
	start := -1
	for i, v := range a.Values {
		active := v > a.Threshold
		if active && start < 0 {
			start = i
		}
		if !active && start >= 0 {
			out = append(out, Strip{Layer: a.Layer, Lo: a.Offset + start, Hi: a.Offset + i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, Strip{Layer: a.Layer, Lo: a.Offset + start, Hi: a.Offset + len(a.Values)})
	}
	return out
}

// Corner is a crossing of two strip-boundary rays that lies inside every
// other strip of the blob it belongs to.
type Corner struct {
	Point  geom.Point
	L1, G1 int
	L2, G2 int
}

// Blob is a list of at-most-one-per-layer Strips plus the corners formed
// by their pairwise boundary crossings.
type Blob struct {
	Strips  []Strip
	Corners []Corner
}

func (b Blob) stripFor(layer int) (Strip, bool) {
	return b.StripFor(layer)
}

// StripFor returns b's strip on layer, if any.
func (b Blob) StripFor(layer int) (Strip, bool) {
	for _, s := range b.Strips {
		if s.Layer == layer {
			return s, true
		}
	}
	return Strip{}, false
}

// valid reports whether b satisfies the Blob invariant: every strip has
// nonzero width, and with 2 or more strips there are at least 3 corners.
func (b Blob) valid() bool {
	for _, s := range b.Strips {
		if s.width() <= 0 {
			return false
		}
	}
	if len(b.Strips) >= 2 && len(b.Corners) < 3 {
		return false
	}
	return true
}

// Tile runs the iterative layer-sweep tiling algorithm: one Activity per
// Coordinates layer (layers 0,1 are the always-active bounding-box
// markers), producing the set of geometrically valid Blobs.
func Tile(coords *Coordinates, activities []Activity, nudge float64) ([]Blob, error) {
	if coords.NumLayers() < 3 {
		return nil, wcerr.New(wcerr.Value, "raygrid", "coordinates need at least 3 layers")
	}
	if len(activities) != coords.NumLayers() {
		return nil, wcerr.Newf(wcerr.Value, "raygrid", "expected %d activities, got %d", coords.NumLayers(), len(activities))
	}
	for i, a := range activities {
		if a.Layer != i {
			return nil, wcerr.Newf(wcerr.Value, "raygrid", "activity %d claims layer %d", i, a.Layer)
		}
	}

	var blobs []Blob
	for _, s := range activities[0].Strips() {
		blobs = append(blobs, Blob{Strips: []Strip{s}})
	}

	for layerIdx := 1; layerIdx < len(activities); layerIdx++ {
		activity := activities[layerIdx]
		var next []Blob
		for _, blob := range blobs {
			lo, hi := projectBlob(coords, blob, layerIdx, activity)
			for _, strip := range clipStrips(activity.Strips(), lo, hi) {
				candidate, err := addStrip(coords, blob, strip, nudge)
				if err != nil {
					return nil, err
				}
				if candidate.valid() {
					next = append(next, candidate)
				}
			}
		}
		blobs = next
	}

	pruned := make([]Blob, 0, len(blobs))
	for _, b := range blobs {
		p := prune(coords, b, nudge)
		if p.valid() {
			pruned = append(pruned, p)
		}
	}
	return pruned, nil
}

// projectBlob computes the subspan of activity that a blob's existing
// corners could possibly occupy once projected into layerIdx. With no
// corners yet (the transition from the first to the second layer), there
// is nothing to restrict against, so the full activity domain is used.
func projectBlob(coords *Coordinates, blob Blob, layerIdx int, activity Activity) (lo, hi int) {
	if len(blob.Corners) == 0 {
		return activity.Offset, activity.Offset + len(activity.Values)
	}
	minProj := math.Inf(1)
	maxProj := math.Inf(-1)
	for _, c := range blob.Corners {
		v := coords.PitchRelative(pitchValue(coords, layerIdx, c.Point), layerIdx)
		if v < minProj {
			minProj = v
		}
		if v > maxProj {
			maxProj = v
		}
	}
	return int(math.Floor(minProj)), int(math.Ceil(maxProj))
}

func clipStrips(strips []Strip, lo, hi int) []Strip {
	var out []Strip
	for _, s := range strips {
		clo, chi := s.Lo, s.Hi
		if clo < lo {
			clo = lo
		}
		if chi > hi {
			chi = hi
		}
		if chi > clo {
			out = append(out, Strip{Layer: s.Layer, Lo: clo, Hi: chi})
		}
	}
	return out
}

// addStrip appends newStrip to blob and recomputes corners: the four
// pairwise crossings of newStrip's boundary rays with the previous final
// strip's boundary rays, filtered for containment in every other strip,
// merged with previously surviving corners re-filtered against newStrip.
func addStrip(coords *Coordinates, blob Blob, newStrip Strip, nudge float64) (Blob, error) {
	out := Blob{
		Strips: append(append([]Strip(nil), blob.Strips...), newStrip),
	}

	var kept []Corner
	for _, c := range blob.Corners {
		if containedInStrip(coords, c.Point, newStrip, nudge, out) {
			kept = append(kept, c)
		}
	}

	if len(blob.Strips) > 0 {
		prevStrip := blob.Strips[len(blob.Strips)-1]
		boundaries := [2]int{newStrip.Lo, newStrip.Hi}
		prevBoundaries := [2]int{prevStrip.Lo, prevStrip.Hi}
		for _, g1 := range boundaries {
			for _, g2 := range prevBoundaries {
				p, err := coords.RayCrossing(newStrip.Layer, g1, prevStrip.Layer, g2)
				if err != nil {
					return Blob{}, err
				}
				if containedInOthers(coords, p, out, newStrip.Layer, prevStrip.Layer, nudge) {
					kept = append(kept, Corner{Point: p, L1: newStrip.Layer, G1: g1, L2: prevStrip.Layer, G2: g2})
				}
			}
		}
	}

	out.Corners = kept
	return out, nil
}

// containedInStrip tests whether p lies in strip, nudged toward the
// blob's running corner centroid (or the strip's own midpoint if no
// corners exist yet) by nudge (a fraction of a pitch).
func containedInStrip(coords *Coordinates, p geom.Point, strip Strip, nudge float64, blob Blob) bool {
	rel := coords.PitchRelative(pitchValue(coords, strip.Layer, p), strip.Layer)
	centerRel := blobCenterRel(coords, blob, strip.Layer)
	adjusted := nudgeToward(rel, centerRel, nudge)
	return float64(strip.Lo) <= adjusted && adjusted < float64(strip.Hi)
}

// containedInOthers tests containment in every strip of blob except the
// two strips that produced the candidate corner (which are contained by
// construction).
func containedInOthers(coords *Coordinates, p geom.Point, blob Blob, except1, except2 int, nudge float64) bool {
	for _, s := range blob.Strips {
		if s.Layer == except1 || s.Layer == except2 {
			continue
		}
		if !containedInStrip(coords, p, s, nudge, blob) {
			return false
		}
	}
	return true
}

func blobCenterRel(coords *Coordinates, blob Blob, layer int) float64 {
	if len(blob.Corners) == 0 {
		if s, ok := blob.stripFor(layer); ok {
			return float64(s.Lo+s.Hi) / 2
		}
		return 0
	}
	var sum float64
	for _, c := range blob.Corners {
		sum += coords.PitchRelative(pitchValue(coords, layer, c.Point), layer)
	}
	return sum / float64(len(blob.Corners))
}

func nudgeToward(rel, center, nudge float64) float64 {
	switch {
	case center > rel:
		return rel + nudge
	case center < rel:
		return rel - nudge
	default:
		return rel
	}
}

// pitchValue projects p onto layer's pitch axis, returning the raw
// (un-normalized) signed pitch coordinate.
func pitchValue(coords *Coordinates, layer int, p geom.Point) float64 {
	lay := coords.layers[layer]
	return p.Sub(lay.center).Dot(lay.pitchUnit)
}

// prune tightens each of b's strips to the tightest integer bounds
// enclosing all of its corners' projections into that layer, snapping
// projections within nudge of an integer to that integer first.
func prune(coords *Coordinates, b Blob, nudge float64) Blob {
	out := Blob{Corners: b.Corners}
	for _, s := range b.Strips {
		if len(b.Corners) == 0 {
			out.Strips = append(out.Strips, s)
			continue
		}
		minProj := math.Inf(1)
		maxProj := math.Inf(-1)
		for _, c := range b.Corners {
			v := coords.PitchRelative(pitchValue(coords, s.Layer, c.Point), s.Layer)
			if snapped := snapToInt(v, nudge); snapped < minProj {
				minProj = snapped
			}
			if snapped := snapToInt(v, nudge); snapped > maxProj {
				maxProj = snapped
			}
		}
		lo := int(math.Floor(minProj))
		hi := int(math.Ceil(maxProj))
		out.Strips = append(out.Strips, Strip{Layer: s.Layer, Lo: lo, Hi: hi})
	}
	return out
}

func snapToInt(v, nudge float64) float64 {
	r := math.Round(v)
	if math.Abs(v-r) < nudge {
		return r
	}
	return v
}
