package sampling

import (
	"github.com/wirecell/wct-core/internal/pointcloud"
	"github.com/wirecell/wct-core/internal/raygrid"
	"github.com/wirecell/wct-core/internal/wcerr"
)

// Sampler composes one or more Strategies, promotes each strategy's 2-D
// points to 3-D via Drift and TimeBinning, and concatenates the result
// into a pointcloud.Dataset whose columns are prefixed with
// ColumnPrefix. A Sampler with an empty Strategies list never silently
// drops a configured strategy — NewSampler rejects that configuration.
type Sampler struct {
	Strategies   []Strategy
	Drift        DriftConfig
	TimeBinning  TimeBinning
	ColumnPrefix string

	strategyIndex map[string]float64
}

// NewSampler validates and returns a Sampler. TimeBinning defaults to
// DefaultTimeBinning when its TBins is zero.
func NewSampler(drift DriftConfig, tb TimeBinning, columnPrefix string, strategies ...Strategy) (*Sampler, error) {
	if len(strategies) == 0 {
		return nil, wcerr.New(wcerr.Value, "sampling", "sampler requires at least one strategy")
	}
	if tb.TBins == 0 {
		tb = DefaultTimeBinning()
	}
	idx := make(map[string]float64, len(strategies))
	for i, s := range strategies {
		if _, dup := idx[s.ID()]; dup {
			return nil, wcerr.Newf(wcerr.Value, "sampling", "strategy %q configured more than once", s.ID())
		}
		idx[s.ID()] = float64(i)
	}
	return &Sampler{
		Strategies:    strategies,
		Drift:         drift,
		TimeBinning:   tb,
		ColumnPrefix:  columnPrefix,
		strategyIndex: idx,
	}, nil
}

// StrategyNames returns the configured strategy IDs in the numeric order
// the "strategy" column encodes them.
func (s *Sampler) StrategyNames() []string {
	out := make([]string, len(s.Strategies))
	for _, strat := range s.Strategies {
		out[int(s.strategyIndex[strat.ID()])] = strat.ID()
	}
	return out
}

// Sample runs every configured strategy against blob, time-bins each
// strategy's points at the TimeBinning's sample times between t0 and
// t0+span, and returns the concatenated
// result as a Dataset with columns {prefix+x, prefix+y, prefix+z,
// prefix+t, prefix+strategy, prefix+blob}.
func (s *Sampler) Sample(coords *raygrid.Coordinates, blobID int, blob raygrid.Blob, t0, span float64) (*pointcloud.Dataset, error) {
	var xs, ys, zs, ts, sids, bids []float64

	times := s.TimeBinning.times(t0, span)
	for _, strat := range s.Strategies {
		points, err := strat.Sample(coords, blob)
		if err != nil {
			return nil, wcerr.Wrap(wcerr.Runtime, "sampling", "strategy "+strat.ID(), err)
		}
		sid := s.strategyIndex[strat.ID()]
		for _, t := range times {
			for _, p := range points {
				pt := point3From(p, t, s.Drift, strat.ID(), blobID)
				xs = append(xs, pt.X)
				ys = append(ys, pt.Y)
				zs = append(zs, pt.Z)
				ts = append(ts, pt.T)
				sids = append(sids, sid)
				bids = append(bids, float64(blobID))
			}
		}
	}

	ds := pointcloud.NewDataset()
	cols := []struct {
		suffix string
		vals   []float64
	}{
		{"x", xs}, {"y", ys}, {"z", zs}, {"t", ts}, {"strategy", sids}, {"blob", bids},
	}
	for _, c := range cols {
		arr, err := pointcloud.NewFloat64Array(c.vals)
		if err != nil {
			return nil, err
		}
		if err := ds.Put(s.ColumnPrefix+c.suffix, arr); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
