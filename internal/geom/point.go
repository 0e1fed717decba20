// Package geom provides the value-typed geometric primitives — Point, Ray,
// and Binning — shared by the wire-schema, ray-grid, and sampling
// components, plus the Gaussian integration helpers used by the binning
// test suite.
package geom

import "math"

// Point is a triple of real coordinates. It is value-typed: callers copy
// it freely and never compare by address.
type Point struct {
	X, Y, Z float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s, p.Z * s} }

// Dot returns the dot product p.q.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y + p.Z*q.Z }

// Cross returns the cross product p x q.
func (p Point) Cross(q Point) Point {
	return Point{
		X: p.Y*q.Z - p.Z*q.Y,
		Y: p.Z*q.X - p.X*q.Z,
		Z: p.X*q.Y - p.Y*q.X,
	}
}

// Norm returns the Euclidean length of p treated as a vector.
func (p Point) Norm() float64 { return math.Sqrt(p.Dot(p)) }

// Unit returns p normalized to unit length. The zero vector maps to itself.
func (p Point) Unit() Point {
	n := p.Norm()
	if n == 0 {
		return p
	}
	return p.Scale(1 / n)
}

// Ray is an ordered pair of Points; direction is significant (tail -> head
// is the signal-flow convention used throughout the wire model).
type Ray struct {
	Tail, Head Point
}

// Vector returns head - tail.
func (r Ray) Vector() Point { return r.Head.Sub(r.Tail) }

// Unit returns the unit direction of the ray.
func (r Ray) Unit() Point { return r.Vector().Unit() }

// Length returns the Euclidean length of the ray.
func (r Ray) Length() float64 { return r.Vector().Norm() }

// RayPitch returns the shortest ray connecting two skew rays r1 and r2: its
// tail lies on r1, its head lies on r2, and it is perpendicular to both
// (when r1 and r2 are not parallel). This is the classic closest-points-
// between-two-lines construction, applied to the wire-schema's successive
// wire centerlines to obtain the plane's mean pitch vector.
func RayPitch(r1, r2 Ray) Ray {
	d1 := r1.Vector()
	d2 := r2.Vector()
	w0 := r1.Tail.Sub(r2.Tail)

	a := d1.Dot(d1)
	b := d1.Dot(d2)
	c := d2.Dot(d2)
	d := d1.Dot(w0)
	e := d2.Dot(w0)

	denom := a*c - b*b
	var s, t float64
	if math.Abs(denom) < 1e-15 {
		// Parallel rays: any pair of closest points works; fix s=0.
		s = 0
		if c != 0 {
			t = e / c
		}
	} else {
		s = (b*e - c*d) / denom
		t = (a*e - b*d) / denom
	}

	p1 := r1.Tail.Add(d1.Scale(s))
	p2 := r2.Tail.Add(d2.Scale(t))
	return Ray{Tail: p1, Head: p2}
}
