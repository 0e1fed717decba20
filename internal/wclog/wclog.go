// Package wclog provides the tiered ops/diag/trace logger shared by every
// component in the toolkit. Streams are independent io.Writers so a host
// process can route, say, trace-level tiling telemetry to /dev/null while
// keeping validation failures on stderr.
package wclog

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// Level identifies one of the three logging streams.
type Level int

const (
	// Ops carries actionable warnings/errors and lifecycle events: validation
	// failures, DFG fatal-node termination, CLI outcomes.
	Ops Level = iota
	// Diag carries day-to-day diagnostics: correction-pipeline progress,
	// tiling layer sweeps, slicer bin counts.
	Diag
	// Trace carries high-frequency telemetry: per-blob, per-slice volume.
	Trace
)

// Writers holds the io.Writer for each stream.
type Writers struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	mu          sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetWriters configures all three streams at once. A nil writer disables
// that stream.
func SetWriters(w Writers) {
	mu.Lock()
	defer mu.Unlock()
	opsLogger = newLogger("[wct] ", w.Ops)
	diagLogger = newLogger("[wct] ", w.Diag)
	traceLogger = newLogger("[wct] ", w.Trace)
}

// SetWriter configures a single stream. A nil writer disables it.
func SetWriter(level Level, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	switch level {
	case Ops:
		opsLogger = newLogger("[wct] ", w)
	case Diag:
		diagLogger = newLogger("[wct] ", w)
	case Trace:
		traceLogger = newLogger("[wct] ", w)
	default:
		panic(fmt.Sprintf("wclog.SetWriter: unknown Level %d", level))
	}
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) {
	mu.RLock()
	l := opsLogger
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) {
	mu.RLock()
	l := diagLogger
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Tracef logs to the trace stream.
func Tracef(format string, args ...interface{}) {
	mu.RLock()
	l := traceLogger
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}
