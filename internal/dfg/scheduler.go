package dfg

import (
	"fmt"

	"github.com/alitto/pond"

	"github.com/wirecell/wct-core/internal/wcerr"
	"github.com/wirecell/wct-core/internal/wclog"
)

// Scheduler is the single logical executor described in spec §5: it picks
// any ready node, invokes its operator, appends produced messages to
// output edges, and repeats until no node is ready and all sources are
// exhausted. When MaxThreads > 1, ready nodes within one round are
// dispatched to a bounded worker pool; a node's own Operate call is
// always single-threaded (spec §5 "inside a node, execution is
// single-threaded").
type Scheduler struct {
	MaxThreads int

	g      *Graph
	done   []bool
	closed [][]bool // per-node, per-input-port "already saw EOS"
}

// NewScheduler returns a Scheduler for g with the given worker bound (0 or
// 1 runs everything on the calling goroutine, sequentially).
func NewScheduler(g *Graph, maxThreads int) *Scheduler {
	return &Scheduler{MaxThreads: maxThreads, g: g}
}

// Run executes g to completion: either every node reaches done (its own
// terminal EOS processed) or a non-source node's operator returns ok=false,
// which is fatal for the whole run (spec §4.6 failure semantics). On that
// failure Run calls drain before returning the error: every node not yet
// done has EOS pushed onto its output edges and is marked done, so no
// node operates again and the pushed EOS messages stay on the edges
// unprocessed.
func (s *Scheduler) Run() error {
	n := len(s.g.nodes)
	s.done = make([]bool, n)
	s.closed = make([][]bool, n)
	for i, node := range s.g.nodes {
		s.closed[i] = make([]bool, len(node.Inputs()))
	}

	var pool *pond.WorkerPool
	if s.MaxThreads > 1 {
		pool = pond.New(s.MaxThreads, 0, pond.MinWorkers(s.MaxThreads))
		defer pool.StopAndWait()
	}

	for {
		ready := s.readyNodes()
		if len(ready) == 0 {
			if s.allDone() {
				return nil
			}
			return wcerr.New(wcerr.Runtime, "dfg", "scheduler deadlock: no node ready and graph not fully drained")
		}

		type job struct {
			idx int
			in  []Message
			out [][]Message
			ok  bool
		}
		jobs := make([]*job, len(ready))
		for i, idx := range ready {
			jobs[i] = &job{idx: idx, in: s.popInputs(idx)}
		}

		run := func(j *job) {
			node := s.g.nodes[j.idx]
			out, ok := node.Operate(j.in)
			j.out, j.ok = out, ok
		}

		if pool != nil {
			group := pool.Group()
			for _, j := range jobs {
				j := j
				group.Submit(func() { run(j) })
			}
			group.Wait()
		} else {
			for _, j := range jobs {
				run(j)
			}
		}

		var fatal error
		for _, j := range jobs {
			if err := s.applyResult(j.idx, j.out, j.ok); err != nil && fatal == nil {
				fatal = err
			}
		}
		if fatal != nil {
			s.drain()
			return fatal
		}
	}
}

// readyNodes returns the indices of nodes that can be invoked this round:
// not yet done, and every input port either already closed (supplying
// EOS again) or has a message available, and every output port has room
// for at least one more message (back-pressure).
func (s *Scheduler) readyNodes() []int {
	var out []int
	for i, node := range s.g.nodes {
		if s.done[i] {
			continue
		}
		if !s.inputsReady(i, node) {
			continue
		}
		if !s.outputsHaveRoom(i, node) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func (s *Scheduler) inputsReady(i int, node Node) bool {
	for p := range node.Inputs() {
		if s.closed[i][p] {
			continue
		}
		e, ok := s.g.EdgeTo(i, p)
		if !ok {
			wclog.Opsf("dfg: node %s input %d has no edge", node.Name(), p)
			return false
		}
		if _, ok := e.Peek(); !ok {
			return false
		}
	}
	return true
}

func (s *Scheduler) outputsHaveRoom(i int, node Node) bool {
	for p := range node.Outputs() {
		e, ok := s.g.EdgeFrom(i, p)
		if !ok {
			continue // unconnected output port: messages are simply dropped
		}
		if !e.HasRoom() {
			return false
		}
	}
	return true
}

func (s *Scheduler) popInputs(i int) []Message {
	node := s.g.nodes[i]
	in := make([]Message, len(node.Inputs()))
	for p := range node.Inputs() {
		if s.closed[i][p] {
			in[p] = EOS()
			continue
		}
		e, _ := s.g.EdgeTo(i, p)
		m, _ := e.Pop()
		in[p] = m
		if m.IsEOS() {
			s.closed[i][p] = true
		}
	}
	return in
}

// applyResult pushes a node's produced messages onto its output edges and
// updates done/closed bookkeeping. A non-source ok=false is surfaced as a
// RuntimeError; a Source may never return ok=false (there is nothing
// upstream to have failed), so that case is also treated as a fatal
// invariant violation.
func (s *Scheduler) applyResult(i int, out [][]Message, ok bool) error {
	node := s.g.nodes[i]
	if !ok {
		return wcerr.Newf(wcerr.Runtime, "dfg", "node %q failed", node.Name())
	}

	terminal := len(node.Outputs()) > 0
	for p, msgs := range out {
		for _, m := range msgs {
			e, connected := s.g.EdgeFrom(i, p)
			if !connected {
				continue
			}
			if !e.Push(m) {
				return wcerr.Newf(wcerr.Runtime, "dfg", "node %q output %d violated back-pressure bound", node.Name(), p)
			}
		}
		if len(msgs) != 1 || !msgs[0].IsEOS() {
			terminal = false
		}
	}
	if len(node.Outputs()) == 0 {
		// Sinks have no output EOS to watch for; they're done once every
		// input port has independently closed.
		terminal = true
		for p := range node.Inputs() {
			if !s.closed[i][p] {
				terminal = false
				break
			}
		}
	}
	if terminal {
		s.done[i] = true
	}
	return nil
}

func (s *Scheduler) allDone() bool {
	for _, d := range s.done {
		if !d {
			return false
		}
	}
	return true
}

// drain runs after a fatal failure: for every node not yet done it pushes
// EOS onto each connected output edge and marks the node done. Nothing
// operates afterwards, so downstream sinks do not process those EOS
// messages; the run simply stops.
func (s *Scheduler) drain() {
	for i, node := range s.g.nodes {
		if s.done[i] {
			continue
		}
		for p := range node.Outputs() {
			if e, ok := s.g.EdgeFrom(i, p); ok {
				e.Push(EOS())
			}
		}
		s.done[i] = true
	}
	wclog.Opsf("dfg: run terminated: %s", fmt.Sprintf("drained %d node(s)", len(s.g.nodes)))
}
