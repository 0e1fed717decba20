package slicing

import (
	"github.com/wirecell/wct-core/internal/wcerr"
)

// Config selects a Slicer's behavior: which channels contribute normal
// charge, which get synthetic dummy/masked charge, and how ticks are
// grouped into slices.
type Config struct {
	// ChannelPlane maps a channel to its owning plane index (the
	// resolved "anode" channel-to-plane mapping).
	ChannelPlane map[int]int
	// TickSpan is the number of ticks each slice covers; must be positive.
	TickSpan int
	// Tag filters which traces contribute; empty means all traces.
	Tag string
	// ActivePlanes contribute their traces' real charge and uncertainty.
	ActivePlanes map[int]bool
	// DummyPlanes assign DummyValue/DummyUncertainty to every channel,
	// tick in [min_tick,max_tick) rather than summing real samples.
	DummyPlanes map[int]bool
	// MaskedPlanes behave like DummyPlanes but only within tick ranges
	// the frame's channel mask lists for that channel.
	MaskedPlanes        map[int]bool
	DummyValue          float64
	DummyUncertainty    float64
	// SliceEOS is consumed by the DFG node wrapping a Slicer, not by
	// Slice itself: whether to append an end-of-stream marker after a
	// frame's slices.
	SliceEOS bool
	// PadEmpty: an otherwise empty output still produces one empty Slice
	// so downstream stays time-aligned.
	PadEmpty bool
}

// DefaultConfig returns a Config with a tick_span of 1 and the plane
// selections the caller must still fill in.
func DefaultConfig() Config {
	return Config{
		TickSpan:     1,
		ActivePlanes: make(map[int]bool),
		DummyPlanes:  make(map[int]bool),
		MaskedPlanes: make(map[int]bool),
		PadEmpty:     true,
	}
}

// Validate checks c's invariants.
func (c Config) Validate() error {
	if c.TickSpan <= 0 {
		return wcerr.Newf(wcerr.Value, "slicing", "tick_span must be positive, got %d", c.TickSpan)
	}
	for p := range c.DummyPlanes {
		if c.ActivePlanes[p] {
			return wcerr.Newf(wcerr.Value, "slicing", "plane %d is both active and dummy", p)
		}
	}
	for p := range c.MaskedPlanes {
		if c.ActivePlanes[p] {
			return wcerr.Newf(wcerr.Value, "slicing", "plane %d is both active and masked", p)
		}
		if c.DummyPlanes[p] {
			return wcerr.Newf(wcerr.Value, "slicing", "plane %d is both dummy and masked", p)
		}
	}
	return nil
}

// WithTickSpan returns a copy of c with TickSpan set.
func (c Config) WithTickSpan(n int) Config { c.TickSpan = n; return c }

// WithTag returns a copy of c with Tag set.
func (c Config) WithTag(tag string) Config { c.Tag = tag; return c }

// WithActivePlanes returns a copy of c with ActivePlanes set from planes.
func (c Config) WithActivePlanes(planes ...int) Config {
	c.ActivePlanes = toSet(planes)
	return c
}

// WithDummyPlanes returns a copy of c with DummyPlanes set from planes.
func (c Config) WithDummyPlanes(value, uncertainty float64, planes ...int) Config {
	c.DummyPlanes = toSet(planes)
	c.DummyValue = value
	c.DummyUncertainty = uncertainty
	return c
}

// WithMaskedPlanes returns a copy of c with MaskedPlanes set from planes.
func (c Config) WithMaskedPlanes(planes ...int) Config {
	c.MaskedPlanes = toSet(planes)
	return c
}

func toSet(vals []int) map[int]bool {
	m := make(map[int]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}
