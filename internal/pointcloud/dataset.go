// Package pointcloud implements the columnar Dataset/Array store and the
// k-d tree query layer built on top of it (spec §4.7): named columns kept
// in lock-step along their shared major axis, numpy-style dtype tagging,
// and nearest-neighbor/radius queries memoized by a MultiQuery.
package pointcloud

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"

	"github.com/wirecell/wct-core/internal/wcerr"
)

// DType is a numpy-style dtype tag: a one-letter kind plus byte width
// (e.g. "i4" for int32, "f8" for float64, "c16" for complex128).
type DType string

const (
	Int8    DType = "i1"
	Int16   DType = "i2"
	Int32   DType = "i4"
	Int64   DType = "i8"
	Uint8   DType = "u1"
	Uint16  DType = "u2"
	Uint32  DType = "u4"
	Uint64  DType = "u8"
	Float32 DType = "f4"
	Float64 DType = "f8"
	Complex64  DType = "c8"
	Complex128 DType = "c16"
)

// ElemSize returns the byte width of one element of d, or 0 if d is not
// one of the recognized dtype codes.
func (d DType) ElemSize() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		return 0
	}
}

// Array is a dense, row-major column: Shape[0] is the major size (the
// number of rows this array contributes to its owning Dataset), the
// remaining dimensions are the per-row element shape. Data holds the raw
// bytes; Metadata is carried alongside for equality and serialization but
// never interpreted by this package.
type Array struct {
	Dtype    DType
	Shape    []int
	Data     []byte
	Metadata map[string]string
}

// NewArray validates shape against dtype and byte length before
// returning a populated Array.
func NewArray(dtype DType, shape []int, data []byte) (*Array, error) {
	if dtype.ElemSize() == 0 {
		return nil, wcerr.Newf(wcerr.Value, "pointcloud", "unknown dtype %q", dtype)
	}
	want := dtype.ElemSize()
	for _, s := range shape {
		if s < 0 {
			return nil, wcerr.Newf(wcerr.Value, "pointcloud", "negative shape dimension in %v", shape)
		}
		want *= s
	}
	if want != len(data) {
		return nil, wcerr.Newf(wcerr.Value, "pointcloud", "shape %v dtype %s implies %d bytes, got %d", shape, dtype, want, len(data))
	}
	return &Array{Dtype: dtype, Shape: append([]int(nil), shape...), Data: append([]byte(nil), data...)}, nil
}

// NewFloat64Array builds a 1-D Float64 Array from vals.
func NewFloat64Array(vals []float64) (*Array, error) {
	data := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		data = append(data, encodeFloat64(v)...)
	}
	return NewArray(Float64, []int{len(vals)}, data)
}

// MajorSize returns Shape[0], or 0 for a zero-dimensional array.
func (a *Array) MajorSize() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// rowBytes returns the byte width of one row (product of Shape[1:] times
// the element size).
func (a *Array) rowBytes() int {
	n := a.Dtype.ElemSize()
	for _, s := range a.Shape[1:] {
		n *= s
	}
	return n
}

// Equal reports whether a and b have identical dtype, shape, bytes, and
// metadata.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Dtype == b.Dtype &&
		cmp.Equal(a.Shape, b.Shape) &&
		bytes.Equal(a.Data, b.Data) &&
		cmp.Equal(a.Metadata, b.Metadata)
}

// Float64At decodes the float64 at row i, assuming Dtype is Float64 and
// the array is 1-D or the caller wants the first element of a wider row.
func (a *Array) Float64At(i int) (float64, error) {
	if a.Dtype != Float64 {
		return 0, wcerr.Newf(wcerr.Value, "pointcloud", "Float64At requires dtype f8, got %s", a.Dtype)
	}
	rb := a.rowBytes()
	off := i * rb
	if i < 0 || off+8 > len(a.Data) {
		return 0, wcerr.Newf(wcerr.Index, "pointcloud", "row %d out of range", i)
	}
	return decodeFloat64(a.Data[off : off+8]), nil
}

// Dataset is a name-to-Array map whose arrays share a major size. Column
// order is preserved for deterministic stream serialization. Metadata
// carries an optional free-form annotation object (e.g. the tensor-set
// metadata JSON blob streamio reads and writes alongside each Dataset).
type Dataset struct {
	arrays    map[string]*Array
	order     []string
	callbacks []func(tail *Dataset)
	Metadata  map[string]string
}

// NewDataset returns an empty Dataset.
func NewDataset() *Dataset {
	return &Dataset{arrays: make(map[string]*Array)}
}

// Put adds or replaces column name. The first column put fixes the
// Dataset's major size; subsequent columns must agree with it.
func (d *Dataset) Put(name string, arr *Array) error {
	if existing := d.MajorSize(); len(d.arrays) > 0 && arr.MajorSize() != existing {
		return wcerr.Newf(wcerr.Value, "pointcloud", "column %q has major size %d, dataset has %d", name, arr.MajorSize(), existing)
	}
	if _, ok := d.arrays[name]; !ok {
		d.order = append(d.order, name)
	}
	d.arrays[name] = arr
	return nil
}

// Get returns column name, or nil if absent.
func (d *Dataset) Get(name string) *Array { return d.arrays[name] }

// Names returns column names in insertion order.
func (d *Dataset) Names() []string { return append([]string(nil), d.order...) }

// MajorSize returns the shared major size, or 0 for an empty Dataset.
func (d *Dataset) MajorSize() int {
	for _, name := range d.order {
		return d.arrays[name].MajorSize()
	}
	return 0
}

// AppendTail appends tail's rows to every matching column in lock-step.
// tail must carry exactly d's column set, each with matching dtype and
// per-row shape; every column is extended by the same row count before
// this call returns, or none are (AppendTail is atomic on error).
func (d *Dataset) AppendTail(tail *Dataset) error {
	if len(d.order) != len(tail.order) {
		return wcerr.Newf(wcerr.Value, "pointcloud", "tail has %d columns, dataset has %d", len(tail.order), len(d.order))
	}
	for _, name := range d.order {
		ta := tail.Get(name)
		if ta == nil {
			return wcerr.Newf(wcerr.Index, "pointcloud", "tail is missing column %q", name)
		}
		a := d.arrays[name]
		if a.Dtype != ta.Dtype {
			return wcerr.Newf(wcerr.Value, "pointcloud", "column %q dtype mismatch: %s vs %s", name, a.Dtype, ta.Dtype)
		}
		if !cmp.Equal(a.Shape[1:], ta.Shape[1:]) {
			return wcerr.Newf(wcerr.Value, "pointcloud", "column %q row shape mismatch: %v vs %v", name, a.Shape[1:], ta.Shape[1:])
		}
	}
	for _, name := range d.order {
		a, ta := d.arrays[name], tail.Get(name)
		a.Shape[0] += ta.Shape[0]
		a.Data = append(a.Data, ta.Data...)
	}
	for _, cb := range d.callbacks {
		cb(tail)
	}
	return nil
}

// onAppend registers cb to run on every future AppendTail, passing the
// tail just appended. Used by dynamic k-d tree queries to extend their
// index instead of going stale.
func (d *Dataset) onAppend(cb func(tail *Dataset)) {
	d.callbacks = append(d.callbacks, cb)
}

// Equal reports whether d and other have the same column names (any
// order) each with Equal arrays.
func (d *Dataset) Equal(other *Dataset) bool {
	if other == nil {
		return false
	}
	if len(d.arrays) != len(other.arrays) {
		return false
	}
	if !cmp.Equal(d.Metadata, other.Metadata) {
		return false
	}
	return lo.EveryBy(d.order, func(name string) bool {
		return d.arrays[name].Equal(other.arrays[name])
	})
}

func decodeFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func encodeFloat64(v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}
