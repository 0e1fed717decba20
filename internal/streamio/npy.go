// Package streamio implements the on-disk envelopes named in spec §6: the
// uniform "name/body" dataset stream container (with plain, tar, tar.gz,
// tar.bz2-read, and zip/npz outer wrapping), numpy .npy array
// (de)serialization, the tensor-set naming scheme, and frame file output.
package streamio

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/wirecell/wct-core/internal/pointcloud"
	"github.com/wirecell/wct-core/internal/wcerr"
)

var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

// descrOf returns the numpy dtype descriptor string for d, little-endian
// (or byte-order-agnostic for single-byte widths) since every array this
// package ever writes was produced on this process.
func descrOf(d pointcloud.DType) (string, error) {
	if d.ElemSize() == 0 {
		return "", wcerr.Newf(wcerr.Value, "streamio", "unknown dtype %q", d)
	}
	if d.ElemSize() == 1 {
		return "|" + string(d), nil
	}
	return "<" + string(d), nil
}

var descrRE = regexp.MustCompile(`'descr':\s*'([^']*)'`)
var fortranRE = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
var shapeRE = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)

func dtypeOf(descr string) (pointcloud.DType, error) {
	trimmed := strings.TrimLeft(descr, "<>|=")
	switch trimmed {
	case string(pointcloud.Int8), string(pointcloud.Int16), string(pointcloud.Int32), string(pointcloud.Int64),
		string(pointcloud.Uint8), string(pointcloud.Uint16), string(pointcloud.Uint32), string(pointcloud.Uint64),
		string(pointcloud.Float32), string(pointcloud.Float64), string(pointcloud.Complex64), string(pointcloud.Complex128):
		if strings.HasPrefix(descr, ">") {
			return "", wcerr.Newf(wcerr.IO, "streamio", "big-endian npy arrays are not supported: %q", descr)
		}
		return pointcloud.DType(trimmed), nil
	default:
		return "", wcerr.Newf(wcerr.Value, "streamio", "unrecognized npy dtype descriptor %q", descr)
	}
}

// WriteNPY serializes arr as a numpy v1 .npy file to w.
func WriteNPY(w io.Writer, arr *pointcloud.Array) error {
	descr, err := descrOf(arr.Dtype)
	if err != nil {
		return err
	}
	var shapeStr string
	switch len(arr.Shape) {
	case 0:
		shapeStr = ""
	case 1:
		shapeStr = fmt.Sprintf("%d,", arr.Shape[0])
	default:
		parts := make([]string, len(arr.Shape))
		for i, s := range arr.Shape {
			parts[i] = strconv.Itoa(s)
		}
		shapeStr = strings.Join(parts, ", ")
	}

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shapeStr)
	// Pad with spaces (and a trailing newline) so magic+version+headerlen+header
	// is a multiple of 64 bytes, matching the layout modern numpy writes.
	const prefixLen = len(npyMagic) + 2 + 2
	total := prefixLen + len(header) + 1
	pad := (64 - total%64) % 64
	header = header + strings.Repeat(" ", pad) + "\n"

	if len(header) > 1<<16-1 {
		return wcerr.New(wcerr.Value, "streamio", "npy header too large")
	}

	if _, err := w.Write(npyMagic); err != nil {
		return wcerr.Wrap(wcerr.IO, "streamio", "write npy magic", err)
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return wcerr.Wrap(wcerr.IO, "streamio", "write npy version", err)
	}
	hlen := uint16(len(header))
	if _, err := w.Write([]byte{byte(hlen), byte(hlen >> 8)}); err != nil {
		return wcerr.Wrap(wcerr.IO, "streamio", "write npy header length", err)
	}
	if _, err := io.WriteString(w, header); err != nil {
		return wcerr.Wrap(wcerr.IO, "streamio", "write npy header", err)
	}
	if _, err := w.Write(arr.Data); err != nil {
		return wcerr.Wrap(wcerr.IO, "streamio", "write npy data", err)
	}
	return nil
}

// ReadNPY parses a numpy v1/v2 .npy file from r into a pointcloud.Array.
func ReadNPY(r io.Reader) (*pointcloud.Array, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, 6)
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, wcerr.Wrap(wcerr.IO, "streamio", "read npy magic", err)
	}
	for i := range magic {
		if magic[i] != npyMagic[i] {
			return nil, wcerr.New(wcerr.Value, "streamio", "not a numpy file: bad magic")
		}
	}
	ver := make([]byte, 2)
	if _, err := io.ReadFull(br, ver); err != nil {
		return nil, wcerr.Wrap(wcerr.IO, "streamio", "read npy version", err)
	}

	var hlen int
	if ver[0] == 1 {
		b := make([]byte, 2)
		if _, err := io.ReadFull(br, b); err != nil {
			return nil, wcerr.Wrap(wcerr.IO, "streamio", "read npy header length", err)
		}
		hlen = int(b[0]) | int(b[1])<<8
	} else {
		b := make([]byte, 4)
		if _, err := io.ReadFull(br, b); err != nil {
			return nil, wcerr.Wrap(wcerr.IO, "streamio", "read npy header length", err)
		}
		hlen = int(b[0]) | int(b[1])<<8 | int(b[2])<<16 | int(b[3])<<24
	}

	header := make([]byte, hlen)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, wcerr.Wrap(wcerr.IO, "streamio", "read npy header", err)
	}

	m := descrRE.FindSubmatch(header)
	if m == nil {
		return nil, wcerr.New(wcerr.Value, "streamio", "npy header missing descr")
	}
	dtype, err := dtypeOf(string(m[1]))
	if err != nil {
		return nil, err
	}

	if fm := fortranRE.FindSubmatch(header); fm != nil && string(fm[1]) == "True" {
		return nil, wcerr.New(wcerr.Value, "streamio", "fortran-ordered npy arrays are not supported")
	}

	sm := shapeRE.FindSubmatch(header)
	if sm == nil {
		return nil, wcerr.New(wcerr.Value, "streamio", "npy header missing shape")
	}
	shape, err := parseShape(string(sm[1]))
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, wcerr.Wrap(wcerr.IO, "streamio", "read npy data", err)
	}
	return pointcloud.NewArray(dtype, shape, data)
}

func parseShape(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	var out []int
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, wcerr.Wrap(wcerr.Value, "streamio", "parse npy shape", err)
		}
		out = append(out, n)
	}
	return out, nil
}
