package wireschema

import (
	"math"

	"github.com/wirecell/wct-core/internal/geom"
)

// StoreBuilder assembles a Store incrementally. It exists for tests and
// tools that need a synthetic geometry rather than one loaded from disk;
// production code loads Stores via Load or a Cache.
type StoreBuilder struct {
	store Store
}

// NewStoreBuilder returns an empty builder at level Loaded.
func NewStoreBuilder() *StoreBuilder {
	return &StoreBuilder{store: Store{Level: Loaded}}
}

// AddWire appends w and returns its index.
func (b *StoreBuilder) AddWire(w Wire) int {
	b.store.Wires = append(b.store.Wires, w)
	return len(b.store.Wires) - 1
}

// AddPlane appends p and returns its index.
func (b *StoreBuilder) AddPlane(p Plane) int {
	b.store.Planes = append(b.store.Planes, p)
	return len(b.store.Planes) - 1
}

// AddFace appends f and returns its index.
func (b *StoreBuilder) AddFace(f Face) int {
	b.store.Faces = append(b.store.Faces, f)
	return len(b.store.Faces) - 1
}

// AddAnode appends a and returns its index.
func (b *StoreBuilder) AddAnode(a Anode) int {
	b.store.Anodes = append(b.store.Anodes, a)
	return len(b.store.Anodes) - 1
}

// AddDetector appends d and returns its index.
func (b *StoreBuilder) AddDetector(d Detector) int {
	b.store.Detectors = append(b.store.Detectors, d)
	return len(b.store.Detectors) - 1
}

// Store returns a snapshot of the built Store.
func (b *StoreBuilder) Store() Store {
	return b.store.clone()
}

// GeneratePlane synthesizes a run of uniformly pitched, parallel wires and
// adds them, plus a Plane indexing them, to the builder.
//
// pitch's vector is the step between successive wire centers; only its
// vector is used, not its position. bounds is the diagonal of the
// rectangular region the whole run of wires must cover: its component
// along the pitch direction sets how many wires are needed to span it,
// and its component perpendicular to pitch becomes every wire's own
// tail-to-head extent (direction and length), centered at each step. The
// first wire's center is bounds.Tail moved by half that perpendicular
// extent.
//
// Wires are emitted already order-corrected: centers ascend along the
// plane's sort axis and each wire's tail/head follow the same convention
// ApplyOrder would produce.
//
// It returns the new plane's index and the number of wires generated.
func (b *StoreBuilder) GeneratePlane(pitch, bounds geom.Ray, identStart, channelStart int) (planeIdx int, nwires int) {
	pitchVec := pitch.Vector()
	pitchMag := pitchVec.Norm()
	if pitchMag == 0 {
		return b.AddPlane(Plane{Ident: identStart}), 0
	}
	pitchUnit := pitchVec.Unit()

	diag := bounds.Vector()
	along := diag.Dot(pitchUnit)
	direction := diag.Sub(pitchUnit.Scale(along))

	span := math.Abs(along)
	n := int(math.Round(span/pitchMag)) + 1
	if n < 1 {
		n = 1
	}

	axis := sortAxisFor(direction)
	firstCenter := bounds.Tail.Add(direction.Scale(0.5))

	wireIdx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		center := firstCenter.Add(pitchVec.Scale(float64(i)))
		tail := center.Sub(direction.Scale(0.5))
		head := center.Add(direction.Scale(0.5))
		switch axis {
		case "z":
			if !(head.Y > tail.Y) {
				tail, head = head, tail
			}
		case "y":
			if !(head.Z < tail.Z) {
				tail, head = head, tail
			}
		}
		w := Wire{
			Ident:   identStart + i,
			Channel: channelStart + i,
			Tail:    tail,
			Head:    head,
		}
		wireIdx = append(wireIdx, b.AddWire(w))
	}

	// Ensure ascending order along the sort axis regardless of pitch sign.
	if len(wireIdx) > 1 {
		ci := b.store.Wires[wireIdx[0]].Center()
		cj := b.store.Wires[wireIdx[len(wireIdx)-1]].Center()
		descending := false
		if axis == "y" {
			descending = cj.Y < ci.Y
		} else {
			descending = cj.Z < ci.Z
		}
		if descending {
			for i, j := 0, len(wireIdx)-1; i < j; i, j = i+1, j-1 {
				wireIdx[i], wireIdx[j] = wireIdx[j], wireIdx[i]
			}
		}
	}

	planeIdx = b.AddPlane(Plane{Ident: identStart, Wires: wireIdx})
	return planeIdx, len(wireIdx)
}
