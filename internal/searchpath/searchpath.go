// Package searchpath resolves unqualified file names (geometry, response,
// and other data files) against a colon-separated list of directories,
// the environment described in spec §6.
package searchpath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/wirecell/wct-core/internal/wcerr"
)

// Path is an ordered list of directories searched in order.
type Path []string

// Parse splits a colon-separated search path string into a Path, dropping
// empty segments.
func Parse(s string) Path {
	var out Path
	for _, p := range strings.Split(s, ":") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FromEnv reads the named environment variable and parses it as a Path.
func FromEnv(name string) Path {
	return Parse(os.Getenv(name))
}

// Resolve returns name unchanged if it is absolute or already exists
// relative to the working directory; otherwise it is joined against each
// directory of p in order, and the first existing match is returned. If
// no candidate exists, an IOError names every directory tried.
func (p Path) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	var tried []string
	for _, dir := range p {
		cand := filepath.Join(dir, name)
		if _, err := os.Stat(cand); err == nil {
			return cand, nil
		}
		tried = append(tried, dir)
	}
	return "", wcerr.Newf(wcerr.IO, "searchpath", "could not resolve %q in %v or the working directory", name, tried)
}
