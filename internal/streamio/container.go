package streamio

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wirecell/wct-core/internal/wcerr"
)

// Entry is one named byte blob within a dataset stream container.
type Entry struct {
	Name string
	Body []byte
}

// Envelope identifies the outer wrapping of a dataset stream container.
type Envelope int

const (
	// Plain is the bare "name/body" stream with no outer wrapping.
	Plain Envelope = iota
	Tar
	TarGz
	TarBz2
	Zip
)

// EnvelopeFromName infers the outer envelope from a filename's suffix, the
// convention spec §6 describes ("writer chooses by filename suffix").
func EnvelopeFromName(name string) Envelope {
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		return TarGz
	case strings.HasSuffix(name, ".tar.bz2"):
		return TarBz2
	case strings.HasSuffix(name, ".tar"):
		return Tar
	case strings.HasSuffix(name, ".zip") || strings.HasSuffix(name, ".npz"):
		return Zip
	default:
		return Plain
	}
}

// WriteEntries serializes entries to w under the given envelope. TarBz2 is
// rejected for writing: the standard library has no bzip2 writer, the same
// limitation wireschema.Dump documents for .bz2 wire geometry files.
func WriteEntries(w io.Writer, env Envelope, entries []Entry) error {
	switch env {
	case Plain:
		return writePlain(w, entries)
	case Tar:
		return writeTar(w, entries)
	case TarGz:
		gz := gzip.NewWriter(w)
		if err := writeTar(gz, entries); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return wcerr.Wrap(wcerr.IO, "streamio", "close gzip writer", err)
		}
		return nil
	case TarBz2:
		return wcerr.New(wcerr.IO, "streamio", "bzip2 writing is not supported by the standard library; write .tar.gz or plain")
	case Zip:
		return writeZip(w, entries)
	default:
		return wcerr.Newf(wcerr.Value, "streamio", "unknown envelope %d", env)
	}
}

// ReadEntries parses a dataset stream container from r under the given
// envelope.
func ReadEntries(r io.Reader, env Envelope) ([]Entry, error) {
	switch env {
	case Plain:
		return readPlain(r)
	case Tar:
		return readTar(r)
	case TarGz:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, wcerr.Wrap(wcerr.IO, "streamio", "open gzip stream", err)
		}
		defer gz.Close()
		return readTar(gz)
	case TarBz2:
		return readTar(bzip2.NewReader(r))
	case Zip:
		return nil, wcerr.New(wcerr.Value, "streamio", "zip reading requires a ReaderAt; use ReadZip")
	default:
		return nil, wcerr.Newf(wcerr.Value, "streamio", "unknown envelope %d", env)
	}
}

func writePlain(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "name %s\n", e.Name); err != nil {
			return wcerr.Wrap(wcerr.IO, "streamio", "write entry name", err)
		}
		if _, err := fmt.Fprintf(w, "body %d\n", len(e.Body)); err != nil {
			return wcerr.Wrap(wcerr.IO, "streamio", "write entry body header", err)
		}
		if _, err := w.Write(e.Body); err != nil {
			return wcerr.Wrap(wcerr.IO, "streamio", "write entry body", err)
		}
	}
	return nil
}

func readPlain(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)
	var entries []Entry
	for {
		nameLine, err := br.ReadString('\n')
		if err == io.EOF && nameLine == "" {
			return entries, nil
		}
		if err != nil && err != io.EOF {
			return nil, wcerr.Wrap(wcerr.IO, "streamio", "read entry name line", err)
		}
		name, ok := strings.CutPrefix(strings.TrimSuffix(nameLine, "\n"), "name ")
		if !ok {
			return nil, wcerr.Newf(wcerr.Value, "streamio", "malformed container: expected \"name \", got %q", nameLine)
		}

		bodyLine, err := br.ReadString('\n')
		if err != nil {
			return nil, wcerr.Wrap(wcerr.IO, "streamio", "read entry body line", err)
		}
		sizeStr, ok := strings.CutPrefix(strings.TrimSuffix(bodyLine, "\n"), "body ")
		if !ok {
			return nil, wcerr.Newf(wcerr.Value, "streamio", "malformed container: expected \"body \", got %q", bodyLine)
		}
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, wcerr.Wrap(wcerr.Value, "streamio", "parse entry body size", err)
		}

		body := make([]byte, size)
		if _, err := io.ReadFull(br, body); err != nil {
			return nil, wcerr.Wrap(wcerr.IO, "streamio", "read entry body", err)
		}
		entries = append(entries, Entry{Name: name, Body: body})
	}
}

func writeTar(w io.Writer, entries []Entry) error {
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: 0644, Size: int64(len(e.Body))}
		if err := tw.WriteHeader(hdr); err != nil {
			return wcerr.Wrap(wcerr.IO, "streamio", "write tar header", err)
		}
		if _, err := tw.Write(e.Body); err != nil {
			return wcerr.Wrap(wcerr.IO, "streamio", "write tar body", err)
		}
	}
	if err := tw.Close(); err != nil {
		return wcerr.Wrap(wcerr.IO, "streamio", "close tar writer", err)
	}
	return nil
}

func readTar(r io.Reader) ([]Entry, error) {
	tr := tar.NewReader(r)
	var entries []Entry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, wcerr.Wrap(wcerr.IO, "streamio", "read tar header", err)
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			return nil, wcerr.Wrap(wcerr.IO, "streamio", "read tar body", err)
		}
		entries = append(entries, Entry{Name: hdr.Name, Body: body})
	}
}

func writeZip(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		fw, err := zw.Create(e.Name)
		if err != nil {
			return wcerr.Wrap(wcerr.IO, "streamio", "create zip entry", err)
		}
		if _, err := fw.Write(e.Body); err != nil {
			return wcerr.Wrap(wcerr.IO, "streamio", "write zip entry", err)
		}
	}
	if err := zw.Close(); err != nil {
		return wcerr.Wrap(wcerr.IO, "streamio", "close zip writer", err)
	}
	return nil
}

// ReadZip parses a zip/npz container. Unlike the other envelopes, zip
// needs random access (a ReaderAt and total size), so it isn't handled by
// ReadEntries.
func ReadZip(r io.ReaderAt, size int64) ([]Entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, wcerr.Wrap(wcerr.IO, "streamio", "open zip reader", err)
	}
	var entries []Entry
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, wcerr.Wrap(wcerr.IO, "streamio", "open zip entry "+f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, wcerr.Wrap(wcerr.IO, "streamio", "read zip entry "+f.Name, err)
		}
		entries = append(entries, Entry{Name: f.Name, Body: body})
	}
	return entries, nil
}
