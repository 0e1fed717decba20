package searchpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDropsEmptySegments(t *testing.T) {
	p := Parse("a:b::c:")
	assert.Equal(t, Path{"a", "b", "c"}, p)
}

func TestParseEmptyString(t *testing.T) {
	p := Parse("")
	assert.Empty(t, p)
}

func TestResolveAbsolute(t *testing.T) {
	p := Path{"/nonexistent"}
	got, err := p.Resolve("/etc/hostname")
	require.NoError(t, err)
	assert.Equal(t, "/etc/hostname", got)
}

func TestResolveFromSearchDir(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "geom.json")
	require.NoError(t, os.WriteFile(f, []byte("{}"), 0o644))

	p := Path{"/nonexistent", dir}
	got, err := p.Resolve("geom.json")
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestResolveFails(t *testing.T) {
	p := Path{"/nonexistent-a", "/nonexistent-b"}
	_, err := p.Resolve("missing.json")
	assert.Error(t, err)
}
