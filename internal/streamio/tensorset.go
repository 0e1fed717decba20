package streamio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/wirecell/wct-core/internal/pointcloud"
	"github.com/wirecell/wct-core/internal/wcerr"
)

// tensorsetMetaName, tensorMetaName, and tensorArrayName build the three
// part names spec §6 defines for one tensor set's on-stream layout:
//
//	<prefix>tensorset_<ident>_metadata.json
//	<prefix>tensor_<ident>_<index>_metadata.json
//	<prefix>tensor_<ident>_<index>_array.npy
func tensorsetMetaName(prefix string, ident int) string {
	return fmt.Sprintf("%stensorset_%d_metadata.json", prefix, ident)
}

func tensorMetaName(prefix string, ident, index int) string {
	return fmt.Sprintf("%stensor_%d_%d_metadata.json", prefix, ident, index)
}

func tensorArrayName(prefix string, ident, index int) string {
	return fmt.Sprintf("%stensor_%d_%d_array.npy", prefix, ident, index)
}

// WriteTensorSet returns one tensor set's entries (a set-level metadata
// JSON blob plus one metadata+array pair per named column of ds, in
// Names() order). All parts of one tensor set land contiguous
// in the returned slice, per spec §6's "readers must tolerate any order
// within that contiguous block"; writers still emit a fixed, readable
// order: set metadata first, then each tensor's metadata immediately
// before its array.
func WriteTensorSet(prefix string, ident int, ds *pointcloud.Dataset) ([]Entry, error) {
	var entries []Entry

	setMeta, err := json.Marshal(ds.Metadata)
	if err != nil {
		return nil, wcerr.Wrap(wcerr.Value, "streamio", "marshal tensorset metadata", err)
	}
	entries = append(entries, Entry{Name: tensorsetMetaName(prefix, ident), Body: setMeta})

	names := ds.Names()
	for index, name := range names {
		arr := ds.Get(name)
		meta := map[string]interface{}{"name": name}
		for k, v := range arr.Metadata {
			meta[k] = v
		}
		metaBody, err := json.Marshal(meta)
		if err != nil {
			return nil, wcerr.Wrap(wcerr.Value, "streamio", "marshal tensor metadata", err)
		}
		entries = append(entries, Entry{Name: tensorMetaName(prefix, ident, index), Body: metaBody})

		var buf bytes.Buffer
		if err := WriteNPY(&buf, arr); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: tensorArrayName(prefix, ident, index), Body: buf.Bytes()})
	}
	return entries, nil
}

// tensorName matches a column's position against its metadata's "name"
// field, falling back to its positional index if metadata doesn't carry
// one (older writers, or a hand-built container).
type tensorName struct {
	index int
	name  string
}

// ReadTensorSet reconstructs the Dataset written by WriteTensorSet for
// (prefix, ident) out of a flat entry list (as returned by ReadEntries),
// tolerating any relative order among that tensor set's own parts.
func ReadTensorSet(prefix string, ident int, entries []Entry) (*pointcloud.Dataset, error) {
	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	ds := pointcloud.NewDataset()
	if setMeta, ok := byName[tensorsetMetaName(prefix, ident)]; ok && len(setMeta.Body) > 0 {
		var md map[string]string
		if err := json.Unmarshal(setMeta.Body, &md); err != nil {
			return nil, wcerr.Wrap(wcerr.Value, "streamio", "unmarshal tensorset metadata", err)
		}
		ds.Metadata = md
	}

	var names []tensorName
	for index := 0; ; index++ {
		metaEntry, ok := byName[tensorMetaName(prefix, ident, index)]
		if !ok {
			break
		}
		var meta map[string]interface{}
		if err := json.Unmarshal(metaEntry.Body, &meta); err != nil {
			return nil, wcerr.Wrap(wcerr.Value, "streamio", "unmarshal tensor metadata", err)
		}
		name, _ := meta["name"].(string)
		if name == "" {
			name = fmt.Sprintf("tensor_%d_%d", ident, index)
		}
		names = append(names, tensorName{index: index, name: name})
	}
	sort.Slice(names, func(i, j int) bool { return names[i].index < names[j].index })

	for _, tn := range names {
		arrEntry, ok := byName[tensorArrayName(prefix, ident, tn.index)]
		if !ok {
			return nil, wcerr.Newf(wcerr.Index, "streamio", "tensor set %d missing array for index %d", ident, tn.index)
		}
		arr, err := ReadNPY(bytes.NewReader(arrEntry.Body))
		if err != nil {
			return nil, err
		}
		if err := ds.Put(tn.name, arr); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
