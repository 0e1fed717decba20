package wireschema

import (
	"compress/bzip2"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wirecell/wct-core/internal/geom"
	"github.com/wirecell/wct-core/internal/wcerr"
)

// jsonDoc is the top-level wire geometry file shape:
//
//	{"Store": {"points": [...], "wires": [...], "planes": [...], "faces": [...], "anodes": [...], "detectors": [...]}}
type jsonDoc struct {
	Store jsonStore `json:"Store"`
}

type jsonStore struct {
	Points    []wrapped `json:"points"`
	Wires     []wrapped `json:"wires"`
	Planes    []wrapped `json:"planes"`
	Faces     []wrapped `json:"faces"`
	Anodes    []wrapped `json:"anodes"`
	Detectors []wrapped `json:"detectors,omitempty"`
}

// wrapped is a single-key object {"EntityName": {...}}. We don't care
// about the key's value (it names the entity kind for human readability);
// we only need the one nested value.
type wrapped struct {
	raw json.RawMessage
}

func (w *wrapped) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("wireschema: expected single-key wrapper object, got %d keys", len(m))
	}
	for _, v := range m {
		w.raw = v
	}
	return nil
}

func (w wrapped) MarshalJSON(key string) ([]byte, error) {
	return json.Marshal(map[string]json.RawMessage{key: w.raw})
}

type jsonPoint struct {
	X, Y, Z float64
}

type jsonWire struct {
	Ident   int
	Channel int
	Segment int
	Tail    int
	Head    int
}

type jsonPlane struct {
	Ident int
	Wires []int
}

type jsonFace struct {
	Ident  int
	Planes []int
}

type jsonAnode struct {
	Ident int
	Faces []int
}

type jsonDetector struct {
	Ident  int
	Anodes []int
}

// openReader opens path, transparently decompressing by filename suffix.
func openReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wcerr.Wrap(wcerr.IO, "wireschema", "open "+path, err)
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, wcerr.Wrap(wcerr.IO, "wireschema", "gzip "+path, err)
		}
		return struct {
			io.Reader
			io.Closer
		}{gz, f}, nil
	case strings.HasSuffix(path, ".bz2"):
		bz := bzip2.NewReader(f)
		return struct {
			io.Reader
			io.Closer
		}{bz, f}, nil
	default:
		return f, nil
	}
}

// Load parses a wire geometry JSON document at path and returns a Store at
// correction level Loaded (no fixers applied).
func Load(path string) (Store, error) {
	r, err := openReader(path)
	if err != nil {
		return Store{}, err
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return Store{}, wcerr.Wrap(wcerr.IO, "wireschema", "read "+path, err)
	}
	return Parse(body)
}

// Parse decodes a wire geometry JSON document already read into memory.
func Parse(body []byte) (Store, error) {
	var doc jsonDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return Store{}, wcerr.Wrap(wcerr.Value, "wireschema", "malformed geometry document", err)
	}

	points := make([]geom.Point, len(doc.Store.Points))
	for i, w := range doc.Store.Points {
		var jp jsonPoint
		if err := json.Unmarshal(w.raw, &jp); err != nil {
			return Store{}, wcerr.Wrap(wcerr.Value, "wireschema", fmt.Sprintf("point[%d]", i), err)
		}
		points[i] = geom.Point{X: jp.X, Y: jp.Y, Z: jp.Z}
	}

	wires := make([]Wire, len(doc.Store.Wires))
	for i, w := range doc.Store.Wires {
		var jw jsonWire
		if err := json.Unmarshal(w.raw, &jw); err != nil {
			return Store{}, wcerr.Wrap(wcerr.Value, "wireschema", fmt.Sprintf("wire[%d]", i), err)
		}
		if jw.Tail < 0 || jw.Tail >= len(points) || jw.Head < 0 || jw.Head >= len(points) {
			return Store{}, wcerr.Newf(wcerr.Index, "wireschema", "wire[%d] references out-of-range point", i)
		}
		wires[i] = Wire{
			Ident:   jw.Ident,
			Channel: jw.Channel,
			Segment: jw.Segment,
			Tail:    points[jw.Tail],
			Head:    points[jw.Head],
		}
	}

	planes := make([]Plane, len(doc.Store.Planes))
	for i, w := range doc.Store.Planes {
		var jp jsonPlane
		if err := json.Unmarshal(w.raw, &jp); err != nil {
			return Store{}, wcerr.Wrap(wcerr.Value, "wireschema", fmt.Sprintf("plane[%d]", i), err)
		}
		for _, wi := range jp.Wires {
			if wi < 0 || wi >= len(wires) {
				return Store{}, wcerr.Newf(wcerr.Index, "wireschema", "plane[%d] references out-of-range wire", i)
			}
		}
		planes[i] = Plane{Ident: jp.Ident, Wires: jp.Wires}
	}

	faces := make([]Face, len(doc.Store.Faces))
	for i, w := range doc.Store.Faces {
		var jf jsonFace
		if err := json.Unmarshal(w.raw, &jf); err != nil {
			return Store{}, wcerr.Wrap(wcerr.Value, "wireschema", fmt.Sprintf("face[%d]", i), err)
		}
		for _, pi := range jf.Planes {
			if pi < 0 || pi >= len(planes) {
				return Store{}, wcerr.Newf(wcerr.Index, "wireschema", "face[%d] references out-of-range plane", i)
			}
		}
		faces[i] = Face{Ident: jf.Ident, Planes: jf.Planes}
	}

	anodes := make([]Anode, len(doc.Store.Anodes))
	for i, w := range doc.Store.Anodes {
		var ja jsonAnode
		if err := json.Unmarshal(w.raw, &ja); err != nil {
			return Store{}, wcerr.Wrap(wcerr.Value, "wireschema", fmt.Sprintf("anode[%d]", i), err)
		}
		for _, fi := range ja.Faces {
			if fi < 0 || fi >= len(faces) {
				return Store{}, wcerr.Newf(wcerr.Index, "wireschema", "anode[%d] references out-of-range face", i)
			}
		}
		anodes[i] = Anode{Ident: ja.Ident, Faces: ja.Faces}
	}

	detectors := make([]Detector, len(doc.Store.Detectors))
	for i, w := range doc.Store.Detectors {
		var jd jsonDetector
		if err := json.Unmarshal(w.raw, &jd); err != nil {
			return Store{}, wcerr.Wrap(wcerr.Value, "wireschema", fmt.Sprintf("detector[%d]", i), err)
		}
		for _, ai := range jd.Anodes {
			if ai < 0 || ai >= len(anodes) {
				return Store{}, wcerr.Newf(wcerr.Index, "wireschema", "detector[%d] references out-of-range anode", i)
			}
		}
		detectors[i] = Detector{Ident: jd.Ident, Anodes: jd.Anodes}
	}
	if len(detectors) == 0 && len(anodes) > 0 {
		// A bare store with no explicit detector wrapper still has one
		// implicit detector owning every anode, matching files that omit
		// the optional "detectors" array.
		ids := make([]int, len(anodes))
		for i := range anodes {
			ids[i] = i
		}
		detectors = []Detector{{Ident: 0, Anodes: ids}}
	}

	return Store{
		Detectors: detectors,
		Anodes:    anodes,
		Faces:     faces,
		Planes:    planes,
		Wires:     wires,
		Level:     Loaded,
	}, nil
}

// Dump serializes store to path as a wire geometry JSON document,
// compressing by filename suffix the same way Load decompresses.
func Dump(path string, store Store) error {
	body, err := Marshal(store)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return wcerr.Wrap(wcerr.IO, "wireschema", "create "+path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var closer io.Closer
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz := gzip.NewWriter(f)
		w = gz
		closer = gz
	case strings.HasSuffix(path, ".bz2"):
		return wcerr.New(wcerr.IO, "wireschema", "bzip2 writing is not supported by the standard library; write .gz or uncompressed")
	}

	if _, err := w.Write(body); err != nil {
		return wcerr.Wrap(wcerr.IO, "wireschema", "write "+path, err)
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			return wcerr.Wrap(wcerr.IO, "wireschema", "close "+path, err)
		}
	}
	return nil
}

// Marshal encodes store into the wire geometry JSON document shape.
func Marshal(store Store) ([]byte, error) {
	// Flatten points: one entry per unique wire endpoint. Identical
	// endpoints (the source format permits but doesn't require sharing)
	// share one point index.
	points := make([]geom.Point, 0, len(store.Wires)*2)
	pointIndex := make(map[geom.Point]int)
	idxOf := func(p geom.Point) int {
		if i, ok := pointIndex[p]; ok {
			return i
		}
		i := len(points)
		points = append(points, p)
		pointIndex[p] = i
		return i
	}

	doc := jsonDoc{Store: jsonStore{}}
	for _, w := range store.Wires {
		jw := jsonWire{
			Ident:   w.Ident,
			Channel: w.Channel,
			Segment: w.Segment,
			Tail:    idxOf(w.Tail),
			Head:    idxOf(w.Head),
		}
		raw, err := json.Marshal(jw)
		if err != nil {
			return nil, err
		}
		doc.Store.Wires = append(doc.Store.Wires, wrapped{raw: raw})
	}

	pointsRaw := make([]wrapped, len(points))
	for i, p := range points {
		raw, err := json.Marshal(jsonPoint{X: p.X, Y: p.Y, Z: p.Z})
		if err != nil {
			return nil, err
		}
		pointsRaw[i] = wrapped{raw: raw}
	}
	doc.Store.Points = pointsRaw

	for _, p := range store.Planes {
		raw, err := json.Marshal(jsonPlane{Ident: p.Ident, Wires: p.Wires})
		if err != nil {
			return nil, err
		}
		doc.Store.Planes = append(doc.Store.Planes, wrapped{raw: raw})
	}
	for _, f := range store.Faces {
		raw, err := json.Marshal(jsonFace{Ident: f.Ident, Planes: f.Planes})
		if err != nil {
			return nil, err
		}
		doc.Store.Faces = append(doc.Store.Faces, wrapped{raw: raw})
	}
	for _, a := range store.Anodes {
		raw, err := json.Marshal(jsonAnode{Ident: a.Ident, Faces: a.Faces})
		if err != nil {
			return nil, err
		}
		doc.Store.Anodes = append(doc.Store.Anodes, wrapped{raw: raw})
	}
	for _, d := range store.Detectors {
		raw, err := json.Marshal(jsonDetector{Ident: d.Ident, Anodes: d.Anodes})
		if err != nil {
			return nil, err
		}
		doc.Store.Detectors = append(doc.Store.Detectors, wrapped{raw: raw})
	}

	return marshalDoc(doc)
}

// marshalDoc re-wraps each entry with its entity-name key, since wrapped's
// MarshalJSON needs the key name (which json.Marshal can't supply generically).
func marshalDoc(doc jsonDoc) ([]byte, error) {
	type rawStore struct {
		Points    []json.RawMessage `json:"points"`
		Wires     []json.RawMessage `json:"wires"`
		Planes    []json.RawMessage `json:"planes"`
		Faces     []json.RawMessage `json:"faces"`
		Anodes    []json.RawMessage `json:"anodes"`
		Detectors []json.RawMessage `json:"detectors,omitempty"`
	}

	wrap := func(key string, items []wrapped) ([]json.RawMessage, error) {
		out := make([]json.RawMessage, len(items))
		for i, it := range items {
			b, err := it.MarshalJSON(key)
			if err != nil {
				return nil, err
			}
			out[i] = b
		}
		return out, nil
	}

	var rs rawStore
	var err error
	if rs.Points, err = wrap("Point", doc.Store.Points); err != nil {
		return nil, err
	}
	if rs.Wires, err = wrap("Wire", doc.Store.Wires); err != nil {
		return nil, err
	}
	if rs.Planes, err = wrap("Plane", doc.Store.Planes); err != nil {
		return nil, err
	}
	if rs.Faces, err = wrap("Face", doc.Store.Faces); err != nil {
		return nil, err
	}
	if rs.Anodes, err = wrap("Anode", doc.Store.Anodes); err != nil {
		return nil, err
	}
	if rs.Detectors, err = wrap("Detector", doc.Store.Detectors); err != nil {
		return nil, err
	}

	return json.MarshalIndent(struct {
		Store rawStore `json:"Store"`
	}{rs}, "", "  ")
}
