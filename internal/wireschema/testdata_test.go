package wireschema

import "github.com/wirecell/wct-core/internal/geom"

// buildSyntheticStore produces a minimal but geometrically valid store: one
// detector, one anode, one face, and a single z-sorted plane of n wires
// running along y, pitched uniformly along z.
func buildSyntheticStore(n int, pitch float64) Store {
	b := NewStoreBuilder()

	pitchRay := geom.Ray{
		Tail: geom.Point{X: 10, Y: 0, Z: 0},
		Head: geom.Point{X: 10, Y: 0, Z: pitch},
	}
	// Diagonal: spans n-1 pitches along z, and 100 units of wire length
	// along y.
	bounds := geom.Ray{
		Tail: geom.Point{X: 10, Y: -50, Z: 0},
		Head: geom.Point{X: 10, Y: 50, Z: pitch * float64(n-1)},
	}

	planeIdx, _ := b.GeneratePlane(pitchRay, bounds, 0, 0)
	faceIdx := b.AddFace(Face{Ident: 0, Planes: []int{planeIdx}})
	anodeIdx := b.AddAnode(Anode{Ident: 0, Faces: []int{faceIdx}})
	b.AddDetector(Detector{Ident: 0, Anodes: []int{anodeIdx}})

	return b.Store()
}

func geomRay(tx, ty, tz, hx, hy, hz float64) geom.Ray {
	return geom.Ray{Tail: geom.Point{X: tx, Y: ty, Z: tz}, Head: geom.Point{X: hx, Y: hy, Z: hz}}
}
