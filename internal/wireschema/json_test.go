package wireschema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMarshalParseRoundTrip(t *testing.T) {
	store := buildSyntheticStore(8, 5.0)

	body, err := Marshal(store)
	require.NoError(t, err)

	back, err := Parse(body)
	require.NoError(t, err)

	require.Equal(t, store.Level, back.Level)
	if diff := cmp.Diff(store.Wires, back.Wires); diff != "" {
		t.Errorf("wires differ after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(store.Planes, back.Planes); diff != "" {
		t.Errorf("planes differ after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(store.Faces, back.Faces); diff != "" {
		t.Errorf("faces differ after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(store.Anodes, back.Anodes); diff != "" {
		t.Errorf("anodes differ after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(store.Detectors, back.Detectors); diff != "" {
		t.Errorf("detectors differ after round trip (-want +got):\n%s", diff)
	}
}

func TestParseSynthesizesImplicitDetector(t *testing.T) {
	body := []byte(`{"Store": {
		"points": [{"Point": {"X":0,"Y":0,"Z":0}}, {"Point": {"X":0,"Y":1,"Z":0}}],
		"wires": [{"Wire": {"Ident":0,"Channel":0,"Segment":0,"Tail":0,"Head":1}}],
		"planes": [{"Plane": {"Ident":0,"Wires":[0]}}],
		"faces": [{"Face": {"Ident":0,"Planes":[0]}}],
		"anodes": [{"Anode": {"Ident":0,"Faces":[0]}}]
	}}`)

	store, err := Parse(body)
	require.NoError(t, err)
	require.Len(t, store.Detectors, 1)
	require.Equal(t, []int{0}, store.Detectors[0].Anodes)
}

func TestParseRejectsOutOfRangeWireEndpoint(t *testing.T) {
	body := []byte(`{"Store": {
		"points": [{"Point": {"X":0,"Y":0,"Z":0}}],
		"wires": [{"Wire": {"Ident":0,"Channel":0,"Segment":0,"Tail":0,"Head":5}}],
		"planes": [],
		"faces": [],
		"anodes": []
	}}`)
	_, err := Parse(body)
	require.Error(t, err)
}

func TestParseRejectsMultiKeyWrapper(t *testing.T) {
	body := []byte(`{"Store": {
		"points": [{"Point": {"X":0,"Y":0,"Z":0}, "Extra": {}}],
		"wires": [],
		"planes": [],
		"faces": [],
		"anodes": []
	}}`)
	_, err := Parse(body)
	require.Error(t, err)
}

func TestLoadDumpGzipRoundTrip(t *testing.T) {
	store := buildSyntheticStore(6, 4.0)
	dir := t.TempDir()
	path := filepath.Join(dir, "geom.json.gz")

	require.NoError(t, Dump(path, store))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	back, err := Load(path)
	require.NoError(t, err)
	require.Len(t, back.Wires, len(store.Wires))
	require.Equal(t, store.Level, back.Level)
}

func TestLoadPlainRoundTrip(t *testing.T) {
	store := buildSyntheticStore(5, 3.0)
	dir := t.TempDir()
	path := filepath.Join(dir, "geom.json")

	require.NoError(t, Dump(path, store))
	back, err := Load(path)
	require.NoError(t, err)

	if diff := cmp.Diff(store.Wires, back.Wires); diff != "" {
		t.Errorf("wires differ after file round trip (-want +got):\n%s", diff)
	}
}

func TestDumpBz2Unsupported(t *testing.T) {
	store := buildSyntheticStore(3, 2.0)
	dir := t.TempDir()
	path := filepath.Join(dir, "geom.json.bz2")
	err := Dump(path, store)
	require.Error(t, err)
}
