package geom

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Binning is a uniform 1-D discretization over [Min, Max) with N bins.
type Binning struct {
	N        int
	Min, Max float64
}

// NewBinning constructs a Binning. Panics if n <= 0 or max <= min, mirroring
// the toolkit's fail-fast stance on malformed configuration.
func NewBinning(n int, min, max float64) Binning {
	if n <= 0 {
		panic("geom.NewBinning: n must be positive")
	}
	if max <= min {
		panic("geom.NewBinning: max must be greater than min")
	}
	return Binning{N: n, Min: min, Max: max}
}

// BinSize returns the width of one bin.
func (b Binning) BinSize() float64 { return (b.Max - b.Min) / float64(b.N) }

// Bin returns the bin index containing v. Values below Min clip to 0, v
// equal to Max falls in the last bin N-1, and values above Max clip to N.
func (b Binning) Bin(v float64) int {
	i := int(math.Floor((v - b.Min) / b.BinSize()))
	if i < 0 {
		return 0
	}
	if i >= b.N && v <= b.Max {
		return b.N - 1
	}
	if i > b.N {
		return b.N
	}
	return i
}

// Edge returns the lower edge of bin i.
func (b Binning) Edge(i int) float64 { return b.Min + float64(i)*b.BinSize() }

// Center returns the center of bin i.
func (b Binning) Center(i int) float64 { return b.Edge(i) + b.BinSize()/2 }

// Range returns the half-open [lo, hi) span of bin i.
func (b Binning) Range(i int) (lo, hi float64) {
	lo = b.Edge(i)
	hi = b.Edge(i + 1)
	return
}

// Gaussian evaluates the integral of a normal distribution with the given
// mean and sigma over each bin of b, returning one value per bin. Values
// sum to gcumulative(b.Max) - gcumulative(b.Min) (testable property 2).
func Gaussian(b Binning, mean, sigma float64) []float64 {
	out := make([]float64, b.N)
	dist := distuv.Normal{Mu: mean, Sigma: sigma}
	prevCDF := dist.CDF(b.Edge(0))
	for i := 0; i < b.N; i++ {
		cdf := dist.CDF(b.Edge(i + 1))
		out[i] = cdf - prevCDF
		prevCDF = cdf
	}
	return out
}

// GCumulative returns the cumulative normal distribution (CDF) at x for the
// given mean and sigma. Exposed standalone so tests can check
// sum(Gaussian(...)) == GCumulative(max) - GCumulative(min) directly.
func GCumulative(x, mean, sigma float64) float64 {
	dist := distuv.Normal{Mu: mean, Sigma: sigma}
	return dist.CDF(x)
}
