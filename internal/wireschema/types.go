// Package wireschema loads, validates, and corrects the hierarchical wire
// geometry description (detector -> anode -> face -> plane -> wire) used to
// condition a Ray-Grid coordinate system for each anode face.
package wireschema

import "github.com/wirecell/wct-core/internal/geom"

// Level is a point on the correction ladder: empty < Loaded < Order <
// Direction < Pitch. Each level is a monotonic enrichment of the previous.
type Level int

const (
	// Empty is the zero value: no store has been constructed yet.
	Empty Level = iota
	// Loaded is the level immediately after parsing the JSON document, before
	// any correction fixer has run.
	Loaded
	// Order is Loaded plus the per-plane wire ordering and tail/head
	// convention fixer.
	Order
	// Direction is Order plus the per-plane mean-direction rotation fixer.
	Direction
	// Pitch is Direction plus the per-plane uniform-pitch translation
	// fixer. This is the fully corrected level.
	Pitch
)

func (l Level) String() string {
	switch l {
	case Empty:
		return "empty"
	case Loaded:
		return "load"
	case Order:
		return "order"
	case Direction:
		return "direction"
	case Pitch:
		return "pitch"
	default:
		return "unknown"
	}
}

// Wire is a single conductive element. The signal-flow convention is
// Tail -> Head.
type Wire struct {
	Ident   int
	Channel int
	Segment int
	Tail    geom.Point
	Head    geom.Point
}

// Vector returns Head - Tail.
func (w Wire) Vector() geom.Point { return w.Head.Sub(w.Tail) }

// Center returns the wire's midpoint.
func (w Wire) Center() geom.Point { return w.Tail.Add(w.Head).Scale(0.5) }

// Plane is an ordered sequence of wire indices (into Store.Wires), ordered
// by ascending pitch coordinate once the Order correction has run.
type Plane struct {
	Ident int
	Wires []int
}

// Face bundles three plane indices (into Store.Planes), conventionally
// labeled U, V, W (induction, induction, collection).
type Face struct {
	Ident  int
	Planes []int
}

// Anode bundles one or two face indices (into Store.Faces); two for a
// dual-sided anode.
type Anode struct {
	Ident  int
	Faces  []int
}

// Detector bundles anode indices (into Store.Anodes).
type Detector struct {
	Ident  int
	Anodes []int
}

// Store owns the flat arrays for one detector description. It is
// shared-immutable after construction: callers never mutate a Store in
// place, they derive a new one via the correction pipeline.
type Store struct {
	Detectors []Detector
	Anodes    []Anode
	Faces     []Face
	Planes    []Plane
	Wires     []Wire
	Level     Level
}

// clone returns a deep copy of s so correction fixers can mutate freely
// without aliasing the input.
func (s Store) clone() Store {
	out := Store{
		Detectors: append([]Detector(nil), s.Detectors...),
		Anodes:    make([]Anode, len(s.Anodes)),
		Faces:     make([]Face, len(s.Faces)),
		Planes:    make([]Plane, len(s.Planes)),
		Wires:     append([]Wire(nil), s.Wires...),
		Level:     s.Level,
	}
	for i, a := range s.Anodes {
		out.Anodes[i] = Anode{Ident: a.Ident, Faces: append([]int(nil), a.Faces...)}
	}
	for i, f := range s.Faces {
		out.Faces[i] = Face{Ident: f.Ident, Planes: append([]int(nil), f.Planes...)}
	}
	for i, p := range s.Planes {
		out.Planes[i] = Plane{Ident: p.Ident, Wires: append([]int(nil), p.Wires...)}
	}
	for i, d := range s.Detectors {
		out.Detectors[i] = Detector{Ident: d.Ident, Anodes: append([]int(nil), d.Anodes...)}
	}
	return out
}

// PlaneWires returns the concrete Wire values (in plane order) for plane p.
func (s Store) PlaneWires(p Plane) []Wire {
	out := make([]Wire, len(p.Wires))
	for i, wi := range p.Wires {
		out[i] = s.Wires[wi]
	}
	return out
}
