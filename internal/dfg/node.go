package dfg

import "github.com/google/uuid"

// Kind distinguishes the five node shapes the engine schedules (spec
// §4.6). It exists for introspection (graph visualization, diagnostics);
// the scheduler itself only depends on Inputs()/Outputs()/Operate().
type Kind int

const (
	// Source has no input ports and emits on demand.
	Source Kind = iota
	// Sink has input ports only.
	Sink
	// Function is 1-input, 1-output, 1-to-1.
	Function
	// QueuedOut is 1-input, pushing 0..N messages onto its single output.
	QueuedOut
	// Fan is N:1 (fan-in) or 1:N (fan-out), with multiplicity possibly
	// advertised dynamically after configuration.
	Fan
)

func (k Kind) String() string {
	switch k {
	case Source:
		return "source"
	case Sink:
		return "sink"
	case Function:
		return "function"
	case QueuedOut:
		return "queued-out"
	case Fan:
		return "fan"
	default:
		return "unknown"
	}
}

// Node is the engine's single polymorphic contract: an ordered list of
// input ports, an ordered list of output ports, and one operator that
// consumes one message per input port and produces zero or more messages
// per output port. The five node shapes in spec §4.6 are all instances of
// this contract; they differ only in Inputs()/Outputs() cardinality and
// in what Operate does, not in a type hierarchy.
type Node interface {
	// ID is a unique, stable identifier for this node instance.
	ID() string
	// Name is a human-readable label (for diagnostics and error context).
	Name() string
	Kind() Kind
	Inputs() []Port
	Outputs() []Port
	// Operate consumes exactly one Message per element of Inputs() (in the
	// same order) and returns, per element of Outputs(), the list of
	// messages to push (possibly empty). ok=false is a fatal failure for
	// any non-Source node; the scheduler treats it as "stop accepting new
	// work from this node, drain and tear down the run."
	Operate(in []Message) (out [][]Message, ok bool)
}

// base holds the identity and port declarations shared by every
// constructor below; embedding it keeps each wrapper down to its operate
// closure.
type base struct {
	id      string
	name    string
	kind    Kind
	inputs  []Port
	outputs []Port
}

func (b *base) ID() string      { return b.id }
func (b *base) Name() string    { return b.name }
func (b *base) Kind() Kind      { return b.kind }
func (b *base) Inputs() []Port  { return b.inputs }
func (b *base) Outputs() []Port { return b.outputs }

func newBase(kind Kind, name string, inputs, outputs []Port) base {
	return base{id: uuid.New().String(), name: name, kind: kind, inputs: inputs, outputs: outputs}
}

// sourceNode wraps a plain Go function into a Source node.
type sourceNode struct {
	base
	emit func() (Message, bool) // (next message, hasMore)
	done bool
}

// NewSource returns a Source node with a single output port of type
// outType. emit is called once per scheduler tick; it returns the next
// message and whether more remain. Once emit reports hasMore=false the
// node pushes EOS and is never invoked again.
func NewSource(name, outType string, emit func() (Message, bool)) Node {
	return &sourceNode{
		base: newBase(Source, name, nil, []Port{{Type: outType}}),
		emit: emit,
	}
}

func (n *sourceNode) Operate(_ []Message) ([][]Message, bool) {
	if n.done {
		return [][]Message{{EOS()}}, true
	}
	m, more := n.emit()
	if !more {
		n.done = true
		return [][]Message{{EOS()}}, true
	}
	return [][]Message{{m}}, true
}

// sinkNode wraps a plain Go function into a Sink node.
type sinkNode struct {
	base
	consume func(in []Message) bool
}

// NewSink returns a Sink node with input ports of the given types. consume
// is called once per scheduler tick with one message per input port; a
// false return is a fatal node failure (spec §4.6 failure semantics).
func NewSink(name string, inTypes []string, consume func(in []Message) bool) Node {
	ports := make([]Port, len(inTypes))
	for i, t := range inTypes {
		ports[i] = Port{Type: t}
	}
	return &sinkNode{
		base:    newBase(Sink, name, ports, nil),
		consume: consume,
	}
}

func (n *sinkNode) Operate(in []Message) ([][]Message, bool) {
	if !n.consume(in) {
		return nil, false
	}
	return nil, true
}

// functionNode wraps a 1:1 transform into a Function node.
type functionNode struct {
	base
	fn func(Message) (Message, bool)
}

// NewFunction returns a Function node: one input, one output, 1-to-1.
// EOS on the input is forwarded to the output without calling fn.
func NewFunction(name, inType, outType string, fn func(Message) (Message, bool)) Node {
	return &functionNode{
		base: newBase(Function, name, []Port{{Type: inType}}, []Port{{Type: outType}}),
		fn:   fn,
	}
}

func (n *functionNode) Operate(in []Message) ([][]Message, bool) {
	if in[0].IsEOS() {
		return [][]Message{{EOS()}}, true
	}
	m, ok := n.fn(in[0])
	if !ok {
		return nil, false
	}
	return [][]Message{{m}}, true
}

// queuedOutNode wraps a 1-input, 0..N-output transform.
type queuedOutNode struct {
	base
	fn func(Message) ([]Message, bool)
}

// NewQueuedOut returns a Queued-out node: one input, pushing 0..N messages
// onto its single output per input message (spec §4.6 shape 4, e.g. a
// splitter). EOS on the input is forwarded without calling fn.
func NewQueuedOut(name, inType, outType string, fn func(Message) ([]Message, bool)) Node {
	return &queuedOutNode{
		base: newBase(QueuedOut, name, []Port{{Type: inType}}, []Port{{Type: outType}}),
		fn:   fn,
	}
}

func (n *queuedOutNode) Operate(in []Message) ([][]Message, bool) {
	if in[0].IsEOS() {
		return [][]Message{{EOS()}}, true
	}
	msgs, ok := n.fn(in[0])
	if !ok {
		return nil, false
	}
	return [][]Message{msgs}, true
}

// fanInNode wraps an N:1 transform. EOS is forwarded downstream only once
// every input port has independently reached EOS, synchronizing the fan
// per spec §4.6's EOS rule.
type fanInNode struct {
	base
	fn     func(in []Message) (Message, bool)
	closed []bool
}

// NewFanIn returns a Fan node with len(inTypes) inputs and one output.
// fn is called once per tick with one message per input port; ports that
// already reached EOS are supplied EOS again on every subsequent tick
// until all ports have, at which point the node forwards one EOS and is
// done.
func NewFanIn(name string, inTypes []string, outType string, fn func(in []Message) (Message, bool)) Node {
	ports := make([]Port, len(inTypes))
	for i, t := range inTypes {
		ports[i] = Port{Type: t}
	}
	return &fanInNode{
		base:   newBase(Fan, name, ports, []Port{{Type: outType}}),
		fn:     fn,
		closed: make([]bool, len(inTypes)),
	}
}

func (n *fanInNode) Operate(in []Message) ([][]Message, bool) {
	allClosed := true
	for i, m := range in {
		if m.IsEOS() {
			n.closed[i] = true
		} else {
			allClosed = false
		}
	}
	if allClosed {
		return [][]Message{{EOS()}}, true
	}
	m, ok := n.fn(in)
	if !ok {
		return nil, false
	}
	return [][]Message{{m}}, true
}

// fanOutNode wraps a 1:N transform. EOS on the input is forwarded to
// every output port.
type fanOutNode struct {
	base
	fn func(Message) ([]Message, bool) // one message per output port, in order
}

// NewFanOut returns a Fan node with one input and len(outTypes) outputs.
// fn returns exactly one message per output port per tick.
func NewFanOut(name, inType string, outTypes []string, fn func(Message) ([]Message, bool)) Node {
	ports := make([]Port, len(outTypes))
	for i, t := range outTypes {
		ports[i] = Port{Type: t}
	}
	return &fanOutNode{
		base: newBase(Fan, name, []Port{{Type: inType}}, ports),
		fn:   fn,
	}
}

func (n *fanOutNode) Operate(in []Message) ([][]Message, bool) {
	if in[0].IsEOS() {
		out := make([][]Message, len(n.Outputs()))
		for i := range out {
			out[i] = []Message{EOS()}
		}
		return out, true
	}
	msgs, ok := n.fn(in[0])
	if !ok {
		return nil, false
	}
	out := make([][]Message, len(msgs))
	for i, m := range msgs {
		out[i] = []Message{m}
	}
	return out, true
}
