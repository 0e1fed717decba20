package wireschema

import (
	"sort"

	"github.com/wirecell/wct-core/internal/geom"
	"github.com/wirecell/wct-core/internal/wclog"
	"github.com/wirecell/wct-core/internal/wcerr"
)

// sortAxisFor picks the plane's sort axis: y if the wires run nearly
// parallel to z (|W.z| > 0.9999), z otherwise.
func sortAxisFor(meanDir geom.Point) (axis string) {
	if absf(meanDir.Unit().Z) > 0.9999 {
		return "y"
	}
	return "z"
}

func meanVector(wires []Wire) geom.Point {
	var sum geom.Point
	for _, w := range wires {
		sum = sum.Add(w.Vector())
	}
	if len(wires) == 0 {
		return sum
	}
	return sum.Scale(1 / float64(len(wires)))
}

// ApplyOrder runs the Order fixer: sorts each plane's wires by ascending
// pitch coordinate along the plane's sort axis, then canonicalizes each
// wire's tail/head convention.
func ApplyOrder(s Store) (Store, error) {
	if s.Level < Loaded {
		return Store{}, wcerr.New(wcerr.Runtime, "wireschema", "ApplyOrder requires a loaded store")
	}
	out := s.clone()

	for _, plane := range out.Planes {
		wires := out.PlaneWires(plane)
		if len(wires) == 0 {
			continue
		}
		mean := meanVector(wires)
		axis := sortAxisFor(mean)

		sort.SliceStable(plane.Wires, func(i, j int) bool {
			wi := out.Wires[plane.Wires[i]]
			wj := out.Wires[plane.Wires[j]]
			ci := wi.Center()
			cj := wj.Center()
			if axis == "y" {
				return ci.Y < cj.Y
			}
			return ci.Z < cj.Z
		})

		for _, wi := range plane.Wires {
			w := out.Wires[wi]
			switch axis {
			case "z":
				if !(w.Head.Y > w.Tail.Y) {
					w.Tail, w.Head = w.Head, w.Tail
				}
			case "y":
				if !(w.Head.Z < w.Tail.Z) {
					w.Tail, w.Head = w.Head, w.Tail
				}
			}
			out.Wires[wi] = w
		}
	}

	out.Level = Order
	wclog.Diagf("wireschema: order correction applied to %d planes", len(out.Planes))
	return out, nil
}

// ApplyDirection runs the Direction fixer: rotates every wire in a plane to
// the plane's mean direction (computed from the Y-Z projection of each
// wire's vector), keeping length and center fixed.
func ApplyDirection(s Store) (Store, error) {
	if s.Level < Order {
		return Store{}, wcerr.New(wcerr.Runtime, "wireschema", "ApplyDirection requires an order-corrected store")
	}
	out := s.clone()

	for _, plane := range out.Planes {
		if len(plane.Wires) == 0 {
			continue
		}
		var sum geom.Point
		for _, wi := range plane.Wires {
			v := out.Wires[wi].Vector()
			sum = sum.Add(geom.Point{X: 0, Y: v.Y, Z: v.Z})
		}
		meanDir := sum.Unit()

		for _, wi := range plane.Wires {
			w := out.Wires[wi]
			center := w.Center()
			length := w.Vector().Norm()
			newVec := meanDir.Scale(length)
			w.Tail = center.Sub(newVec.Scale(0.5))
			w.Head = center.Add(newVec.Scale(0.5))
			out.Wires[wi] = w
		}
	}

	out.Level = Direction
	wclog.Diagf("wireschema: direction correction applied to %d planes", len(out.Planes))
	return out, nil
}

// ApplyPitch runs the Pitch fixer: translates each wire's center along the
// plane's mean pitch vector so centers are uniformly spaced, then forces
// every wire in the plane onto a common x (coplanar).
func ApplyPitch(s Store) (Store, error) {
	if s.Level < Direction {
		return Store{}, wcerr.New(wcerr.Runtime, "wireschema", "ApplyPitch requires a direction-corrected store")
	}
	out := s.clone()

	for _, plane := range out.Planes {
		n := len(plane.Wires)
		if n == 0 {
			continue
		}
		wires := out.PlaneWires(plane)

		var meanX float64
		for _, w := range wires {
			meanX += w.Center().X
		}
		meanX /= float64(n)

		var pitchSum geom.Point
		count := 0
		for i := 0; i+1 < n; i++ {
			r1 := geom.Ray{Tail: wires[i].Tail, Head: wires[i].Head}
			r2 := geom.Ray{Tail: wires[i+1].Tail, Head: wires[i+1].Head}
			p := geom.RayPitch(r1, r2)
			pitchSum = pitchSum.Add(p.Vector())
			count++
		}
		pitch := geom.Point{}
		if count > 0 {
			pitch = pitchSum.Scale(1 / float64(count))
		}
		// Pitch is a transverse quantity; ignore any residual X component.
		pitch.X = 0

		mid := n / 2
		midCenter := wires[mid].Center()

		for i, wi := range plane.Wires {
			w := out.Wires[wi]
			step := float64(i - mid)
			newCenter := geom.Point{
				X: meanX,
				Y: midCenter.Y + step*pitch.Y,
				Z: midCenter.Z + step*pitch.Z,
			}
			vec := w.Vector()
			vec.X = 0
			w.Tail = newCenter.Sub(vec.Scale(0.5))
			w.Head = newCenter.Add(vec.Scale(0.5))
			out.Wires[wi] = w
		}
	}

	out.Level = Pitch
	wclog.Diagf("wireschema: pitch correction applied to %d planes", len(out.Planes))
	return out, nil
}

// Correct applies the intervening fixers needed to bring s up to level to.
// It is idempotent: correcting an already-level store to the same level
// returns s unchanged. Correcting to a lower level than s currently holds is an
// error — the ladder only runs forward.
func Correct(s Store, to Level) (Store, error) {
	if to < s.Level {
		return Store{}, wcerr.Newf(wcerr.Value, "wireschema", "cannot downgrade store from %s to %s", s.Level, to)
	}
	cur := s
	for cur.Level < to {
		var err error
		switch cur.Level {
		case Loaded:
			cur, err = ApplyOrder(cur)
		case Order:
			cur, err = ApplyDirection(cur)
		case Direction:
			cur, err = ApplyPitch(cur)
		default:
			return Store{}, wcerr.Newf(wcerr.Runtime, "wireschema", "no fixer defined past level %s", cur.Level)
		}
		if err != nil {
			return Store{}, err
		}
	}
	return cur, nil
}
