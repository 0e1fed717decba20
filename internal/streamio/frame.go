package streamio

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/wirecell/wct-core/internal/pointcloud"
	"github.com/wirecell/wct-core/internal/slicing"
	"github.com/wirecell/wct-core/internal/wcerr"
)

// FrameWriteOptions controls the optional linear pre-cast and digitization
// spec §6 allows for the frame sample array.
type FrameWriteOptions struct {
	Digitize     bool // write int16 samples instead of float32
	Scale        float64
	Offset       float64
	WriteSummary bool
	Summary      []float64 // per-channel summary, parallel to the channel list
}

// DefaultFrameWriteOptions is the identity transform (Scale=1, Offset=0),
// writing float32 samples.
func DefaultFrameWriteOptions() FrameWriteOptions {
	return FrameWriteOptions{Scale: 1}
}

// WriteFrame builds the entries for one (frame, tag) pair per spec §6:
// frame_<tag>_<ident>.npy (2-D: channels x ticks), channels_<tag>_<ident>.npy
// (1-D channel idents, in the same row order as the sample array),
// tickinfo_<tag>_<ident>.npy (length-3: frame time, tick duration, first
// tbin), an optional summary_<tag>_<ident>.npy, and, when the frame has
// any channel masks, a single chanmask_bad_<ident>.npy of (channel,
// begin, end) rows.
func WriteFrame(f slicing.Frame, tag string, opts FrameWriteOptions) ([]Entry, error) {
	traces := f.TracesForTag(tag)
	if len(traces) == 0 {
		return nil, wcerr.Newf(wcerr.Value, "streamio", "frame %d has no traces for tag %q", f.Ident, tag)
	}

	sort.Slice(traces, func(i, j int) bool { return traces[i].Channel < traces[j].Channel })

	minTbin, maxTbin := traces[0].Tbin, traces[0].Tbin+len(traces[0].Charge)
	for _, t := range traces[1:] {
		if t.Tbin < minTbin {
			minTbin = t.Tbin
		}
		if end := t.Tbin + len(t.Charge); end > maxTbin {
			maxTbin = end
		}
	}
	nticks := maxTbin - minTbin
	if nticks < 0 {
		nticks = 0
	}

	channels := make([]int32, len(traces))
	for i, t := range traces {
		channels[i] = int32(t.Channel)
	}

	var sampleData []byte
	var dtype pointcloud.DType
	if opts.Digitize {
		dtype = pointcloud.Int16
		sampleData = make([]byte, 0, len(traces)*nticks*2)
		for _, t := range traces {
			row := make([]int16, nticks)
			for i, v := range t.Charge {
				row[t.Tbin-minTbin+i] = int16(opts.Scale*v + opts.Offset)
			}
			for _, v := range row {
				sampleData = append(sampleData, byte(v), byte(v>>8))
			}
		}
	} else {
		dtype = pointcloud.Float32
		sampleData = make([]byte, 0, len(traces)*nticks*4)
		for _, t := range traces {
			row := make([]float32, nticks)
			for i, v := range t.Charge {
				row[t.Tbin-minTbin+i] = float32(opts.Scale*v + opts.Offset)
			}
			for _, v := range row {
				sampleData = append(sampleData, f32bytes(v)...)
			}
		}
	}

	sampleArr, err := pointcloud.NewArray(dtype, []int{len(traces), nticks}, sampleData)
	if err != nil {
		return nil, err
	}
	channelArr, err := pointcloud.NewArray(pointcloud.Int32, []int{len(channels)}, int32Bytes(channels))
	if err != nil {
		return nil, err
	}
	tickinfoArr, err := pointcloud.NewFloat64Array([]float64{f.Time, f.Tick, float64(minTbin)})
	if err != nil {
		return nil, err
	}

	var entries []Entry
	add := func(name string, arr *pointcloud.Array) error {
		var buf bytes.Buffer
		if err := WriteNPY(&buf, arr); err != nil {
			return err
		}
		entries = append(entries, Entry{Name: name, Body: buf.Bytes()})
		return nil
	}
	if err := add(fmt.Sprintf("frame_%s_%d.npy", tag, f.Ident), sampleArr); err != nil {
		return nil, err
	}
	if err := add(fmt.Sprintf("channels_%s_%d.npy", tag, f.Ident), channelArr); err != nil {
		return nil, err
	}
	if err := add(fmt.Sprintf("tickinfo_%s_%d.npy", tag, f.Ident), tickinfoArr); err != nil {
		return nil, err
	}

	if opts.WriteSummary && len(opts.Summary) > 0 {
		summaryArr, err := pointcloud.NewFloat64Array(opts.Summary)
		if err != nil {
			return nil, err
		}
		if err := add(fmt.Sprintf("summary_%s_%d.npy", tag, f.Ident), summaryArr); err != nil {
			return nil, err
		}
	}

	var maskNames []string
	if len(f.ChannelMasks) > 0 {
		maskNames = append(maskNames, "bad")
	}
	for _, name := range maskNames {
		rows := make([]int32, 0)
		chans := make([]int, 0, len(f.ChannelMasks))
		for ch := range f.ChannelMasks {
			chans = append(chans, ch)
		}
		sort.Ints(chans)
		n := 0
		for _, ch := range chans {
			for _, r := range f.ChannelMasks[ch] {
				rows = append(rows, int32(ch), int32(r.Begin), int32(r.End))
				n++
			}
		}
		maskArr, err := pointcloud.NewArray(pointcloud.Int32, []int{n, 3}, int32Bytes(rows))
		if err != nil {
			return nil, err
		}
		if err := add(fmt.Sprintf("chanmask_%s_%d.npy", name, f.Ident), maskArr); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func f32bytes(v float32) []byte {
	bits := math.Float32bits(v)
	return []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}

func int32Bytes(vals []int32) []byte {
	out := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		u := uint32(v)
		out = append(out, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
	}
	return out
}
