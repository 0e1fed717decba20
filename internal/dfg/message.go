// Package dfg implements the data-flow graph engine (spec §4.6): typed
// ports, bounded edge queues, and a node scheduler that binds the rest of
// the toolkit's stages (wire-schema, raygrid, slicing, sampling) into one
// pipeline. Messages are immutable values with cheap handles, not the
// shared-pointer identity the original uses; EOS is a nil-valued Message,
// never an out-of-band signal.
package dfg

// Port is one node terminal: a type tag used to validate connections. The
// tag is an opaque string derived from the message type a caller intends
// to carry across it (e.g. "wc.Frame", "wc.Slice", "wc.BlobSet").
type Port struct {
	Type string
}

// Message is the unit of exchange along an Edge. A Message with Value ==
// nil is end-of-stream (EOS): every node must forward EOS in an output
// position aligned with the input EOS that produced it.
type Message struct {
	Value interface{}
}

// EOS returns the end-of-stream marker.
func EOS() Message { return Message{Value: nil} }

// IsEOS reports whether m is the end-of-stream marker.
func (m Message) IsEOS() bool { return m.Value == nil }
