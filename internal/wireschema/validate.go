package wireschema

import (
	"fmt"
	"strings"

	"github.com/wirecell/wct-core/internal/geom"
	"github.com/wirecell/wct-core/internal/wcerr"
)

// ValidationError aggregates every issue found by Validate when fail_fast is
// false.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid geometry (%d issue(s)): %s", len(e.Issues), strings.Join(e.Issues, "; "))
}

// Validate walks the hierarchy and checks the invariants from the wire-
// schema design: non-negative idents, cardinality minimums, and the three
// per-plane geometric checks (perpendicularity, parallelism, uniform
// pitch) to a relative tolerance repsilon. If failFast is true, the first
// failure aborts immediately; otherwise every failure is collected and a
// single aggregated *ValidationError is returned at the end.
func Validate(s Store, repsilon float64, failFast bool) error {
	var issues []string
	fail := func(format string, args ...interface{}) error {
		msg := fmt.Sprintf(format, args...)
		if failFast {
			return wcerr.New(wcerr.Value, "wireschema", msg)
		}
		issues = append(issues, msg)
		return nil
	}

	check := func(cond bool, format string, args ...interface{}) error {
		if cond {
			return nil
		}
		return fail(format, args...)
	}

	if err := check(len(s.Detectors) >= 1, "store has no detectors"); err != nil {
		return err
	}
	if err := check(len(s.Anodes) >= 1, "store has no anodes"); err != nil {
		return err
	}
	if err := check(len(s.Faces) >= 1, "store has no faces"); err != nil {
		return err
	}
	if err := check(len(s.Planes) >= 1, "store has no planes"); err != nil {
		return err
	}

	for i, d := range s.Detectors {
		if err := check(d.Ident >= 0, "detector[%d] has negative ident %d", i, d.Ident); err != nil {
			return err
		}
	}
	for i, a := range s.Anodes {
		if err := check(a.Ident >= 0, "anode[%d] has negative ident %d", i, a.Ident); err != nil {
			return err
		}
	}
	for i, f := range s.Faces {
		if err := check(f.Ident >= 0, "face[%d] has negative ident %d", i, f.Ident); err != nil {
			return err
		}
		seen := make(map[int]bool)
		for _, pi := range f.Planes {
			if pi < 0 || pi >= len(s.Planes) {
				if err := fail("face[%d] references out-of-range plane %d", i, pi); err != nil {
					return err
				}
				continue
			}
			ident := s.Planes[pi].Ident
			if seen[ident] {
				if err := fail("face[%d] has duplicate plane ident %d", i, ident); err != nil {
					return err
				}
			}
			seen[ident] = true
		}
	}

	for i, p := range s.Planes {
		if err := check(p.Ident >= 0, "plane[%d] has negative ident %d", i, p.Ident); err != nil {
			return err
		}
		if err := check(len(p.Wires) >= 1, "plane[%d] has no wires", i); err != nil {
			return err
		}
		for _, wi := range p.Wires {
			if wi < 0 || wi >= len(s.Wires) {
				continue
			}
			if err := check(s.Wires[wi].Ident >= 0, "plane[%d] wire has negative ident %d", i, s.Wires[wi].Ident); err != nil {
				return err
			}
		}

		if err := validatePlaneGeometry(s, i, p, repsilon, fail); err != nil {
			return err
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func validatePlaneGeometry(s Store, idx int, p Plane, repsilon float64, fail func(string, ...interface{}) error) error {
	wires := s.PlaneWires(p)
	if len(wires) == 0 {
		return nil
	}

	mean := meanVector(wires)
	meanDir := mean.Unit()
	axis := sortAxisFor(mean)

	// Parallelism: every wire direction close to the plane's mean direction.
	for i, w := range wires {
		dir := w.Vector().Unit()
		// 1 - |cos(theta)| small means nearly parallel (direction-agnostic).
		cos := dir.Dot(meanDir)
		if err := failIf(fail, 1-absf(cos) > repsilon, "plane[%d] wire[%d] not parallel to plane mean direction (cos=%.9f)", idx, i, cos); err != nil {
			return err
		}
	}

	// Uniform pitch magnitude, and mean pitch direction.
	var pitchMags []float64
	var pitchSum geom.Point
	for i := 0; i+1 < len(wires); i++ {
		r1 := geom.Ray{Tail: wires[i].Tail, Head: wires[i].Head}
		r2 := geom.Ray{Tail: wires[i+1].Tail, Head: wires[i+1].Head}
		pr := geom.RayPitch(r1, r2)
		v := pr.Vector()
		pitchMags = append(pitchMags, v.Norm())
		pitchSum = pitchSum.Add(v)
	}
	if len(pitchMags) == 0 {
		return nil
	}
	meanPitchMag := 0.0
	for _, m := range pitchMags {
		meanPitchMag += m
	}
	meanPitchMag /= float64(len(pitchMags))
	for i, m := range pitchMags {
		if err := failIf(fail, absf(m-meanPitchMag) > repsilon*meanPitchMag, "plane[%d] pitch[%d] magnitude %.9f deviates from mean %.9f beyond tolerance", idx, i, m, meanPitchMag); err != nil {
			return err
		}
	}

	pitchDir := pitchSum.Unit()

	// Perpendicularity: wire direction dot pitch direction ~ 0.
	dot := meanDir.Dot(pitchDir)
	if err := failIf(fail, absf(dot) > repsilon, "plane[%d] wire direction not perpendicular to pitch direction (dot=%.9f)", idx, dot); err != nil {
		return err
	}

	// Convention Xhat x W = P: sign checks on W.y and P.z given the sort axis.
	// For axis=z sorting (wires roughly in the X-Z/X-Y general case), the
	// right-handed convention requires W.y and P.z to carry consistent sign;
	// for axis=y sorting the roles swap. We check that the convention isn't
	// violated outright (i.e. the relevant components aren't both ~zero,
	// which would mean the convention can't be asserted either way).
	switch axis {
	case "z":
		if err := failIf(fail, absf(meanDir.Y) < 1e-9 && absf(pitchDir.Z) < 1e-9, "plane[%d] cannot establish Xhat x W = P convention for z-sorted plane", idx); err != nil {
			return err
		}
	case "y":
		if err := failIf(fail, absf(meanDir.Z) < 1e-9 && absf(pitchDir.Y) < 1e-9, "plane[%d] cannot establish Xhat x W = P convention for y-sorted plane", idx); err != nil {
			return err
		}
	}

	return nil
}

func failIf(fail func(string, ...interface{}) error, cond bool, format string, args ...interface{}) error {
	if !cond {
		return nil
	}
	return fail(format, args...)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
