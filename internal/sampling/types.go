// Package sampling implements the blob-sampler strategies of SPEC_FULL
// §4.5: each strategy turns a 2-D ray-grid Blob into a set of 2-D points
// in the Y-Z plane; a Sampler promotes those points to 3-D by way of a
// common time/drift transform and concatenates every configured
// strategy's output into one point-cloud dataset.
package sampling

import "github.com/wirecell/wct-core/internal/geom"

// DriftConfig is the time/drift transform shared by every strategy: a
// blob's time interval maps to a drift position x by
// x = XOrigin + XSign*(t+TimeOffset)/DriftSpeed. XSign is not inferred;
// SPEC_FULL requires it be set explicitly from the collection plane's
// geometry rather than assumed.
type DriftConfig struct {
	XOrigin    float64
	XSign      float64
	TimeOffset float64
	DriftSpeed float64
}

func (d DriftConfig) x(t float64) float64 {
	return d.XOrigin + d.XSign*(t+d.TimeOffset)/d.DriftSpeed
}

// TimeBinning multiplies a strategy's transverse sample set along the
// drift axis into TBins samples at fractions of the blob's time span: a
// single sample sits at TMin, and TBins > 1 samples are spaced evenly from
// TMin to TMax with both ends included. The zero value is invalid; use
// DefaultTimeBinning.
type TimeBinning struct {
	TBins    int
	TMin     float64
	TMax     float64
}

// DefaultTimeBinning returns (1, 0.0, 1.0): one sample at the start of
// the blob's time span.
func DefaultTimeBinning() TimeBinning {
	return TimeBinning{TBins: 1, TMin: 0.0, TMax: 1.0}
}

// times returns the TBins absolute tick values this binning selects, from
// t0+TMin*span to t0+TMax*span inclusive (only t0+TMin*span when TBins
// is 1).
func (tb TimeBinning) times(t0, span float64) []float64 {
	if tb.TBins <= 0 {
		return nil
	}
	if tb.TBins == 1 {
		return []float64{t0 + tb.TMin*span}
	}
	out := make([]float64, tb.TBins)
	step := (tb.TMax - tb.TMin) / float64(tb.TBins-1)
	for i := range out {
		frac := tb.TMin + step*float64(i)
		out[i] = t0 + frac*span
	}
	return out
}

// Point3 is one sampled point: 3-D position, the absolute time that
// produced its drift coordinate, which strategy emitted it, and which
// blob it came from.
type Point3 struct {
	X, Y, Z    float64
	T          float64
	StrategyID string
	BlobID     int
}

func point3From(p2 geom.Point, t float64, drift DriftConfig, strategyID string, blobID int) Point3 {
	return Point3{
		X:          drift.x(t),
		Y:          p2.Y,
		Z:          p2.Z,
		T:          t,
		StrategyID: strategyID,
		BlobID:     blobID,
	}
}
