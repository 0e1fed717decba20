package slicing

import (
	"sort"

	"github.com/wirecell/wct-core/internal/wcerr"
)

// Slicer converts Frames into Slices per a fixed Config. The sum and mask
// variants of spec §4.4 share this one algorithm; Config's DummyPlanes
// and MaskedPlanes fields select which behavior each plane gets.
type Slicer struct {
	cfg Config
}

// NewSlicer validates cfg and returns a Slicer bound to it.
func NewSlicer(cfg Config) (*Slicer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Slicer{cfg: cfg}, nil
}

// Slice converts frame into time-adjacent Slices in bin order.
func (s *Slicer) Slice(frame Frame) ([]Slice, error) {
	cfg := s.cfg
	bins := make(map[int]*Slice)
	binOf := func(slicebin int) *Slice {
		sl, ok := bins[slicebin]
		if !ok {
			sl = &Slice{
				FrameIdent: frame.Ident,
				Start:      frame.Time + float64(slicebin)*frame.Tick*float64(cfg.TickSpan),
				Span:       frame.Tick * float64(cfg.TickSpan),
				Channels:   make(map[int]Sample),
			}
			bins[slicebin] = sl
		}
		return sl
	}

	minTick, maxTick, err := s.activeTickRange(frame)
	if err != nil {
		return nil, err
	}

	for _, idx := range frame.tracesForTag(cfg.Tag) {
		tr := frame.Traces[idx]
		plane, ok := cfg.ChannelPlane[tr.Channel]
		if !ok || !cfg.ActivePlanes[plane] {
			continue
		}
		for qind, charge := range tr.Charge {
			unc := tr.uncertaintyAt(qind)
			if charge == 0 && unc == 0 {
				continue
			}
			t := tr.Tbin + qind
			slicebin := floorDiv(t, cfg.TickSpan)
			sample := binOf(slicebin).Channels[tr.Channel]
			sample.accumulate(charge, unc)
			binOf(slicebin).Channels[tr.Channel] = sample
		}
	}

	for channel, plane := range cfg.ChannelPlane {
		if cfg.DummyPlanes[plane] {
			for t := minTick; t < maxTick; t++ {
				slicebin := floorDiv(t, cfg.TickSpan)
				binOf(slicebin).Channels[channel] = Sample{Value: cfg.DummyValue, Uncertainty: cfg.DummyUncertainty}
			}
		}
		if cfg.MaskedPlanes[plane] {
			for _, r := range frame.ChannelMasks[channel] {
				for t := r.Begin; t < r.End; t++ {
					slicebin := floorDiv(t, cfg.TickSpan)
					binOf(slicebin).Channels[channel] = Sample{Value: cfg.DummyValue, Uncertainty: cfg.DummyUncertainty}
				}
			}
		}
	}

	if len(bins) == 0 {
		if !cfg.PadEmpty {
			return nil, nil
		}
		return []Slice{{FrameIdent: frame.Ident, Start: frame.Time, Span: frame.Tick * float64(cfg.TickSpan), Channels: make(map[int]Sample)}}, nil
	}

	keys := make([]int, 0, len(bins))
	for k := range bins {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]Slice, len(keys))
	for i, k := range keys {
		sl := bins[k]
		sl.Ident = i
		out[i] = *sl
	}
	return out, nil
}

// activeTickRange returns the half-open [min,max) tick extent spanned by
// traces on active planes, the window dummy and masked planes fill.
func (s *Slicer) activeTickRange(frame Frame) (min, max int, err error) {
	cfg := s.cfg
	first := true
	for _, idx := range frame.tracesForTag(cfg.Tag) {
		tr := frame.Traces[idx]
		plane, ok := cfg.ChannelPlane[tr.Channel]
		if !ok || !cfg.ActivePlanes[plane] {
			continue
		}
		begin, end := tr.Tbin, tr.Tbin+len(tr.Charge)
		if first {
			min, max = begin, end
			first = false
			continue
		}
		if begin < min {
			min = begin
		}
		if end > max {
			max = end
		}
	}
	if first && (len(cfg.DummyPlanes) > 0 || len(cfg.MaskedPlanes) > 0) {
		return 0, 0, wcerr.New(wcerr.Value, "slicing", "cannot derive dummy/masked tick range: no active-plane traces present")
	}
	return min, max, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
