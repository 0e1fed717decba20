package dfg

import (
	"github.com/wirecell/wct-core/internal/wcerr"
)

// portRef addresses one port of one node.
type portRef struct {
	node int
	port int
}

// Graph is a directed graph of Nodes joined by Edges. Nodes are added by
// index; Connect joins exactly one output port to exactly one input port.
type Graph struct {
	nodes   []Node
	outEdge map[portRef]*Edge
	inEdge  map[portRef]*Edge
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		outEdge: make(map[portRef]*Edge),
		inEdge:  make(map[portRef]*Edge),
	}
}

// AddNode appends n and returns its index within the graph.
func (g *Graph) AddNode(n Node) int {
	g.nodes = append(g.nodes, n)
	return len(g.nodes) - 1
}

// Nodes returns the graph's nodes in addition order.
func (g *Graph) Nodes() []Node { return g.nodes }

// Connect joins tail's output port sport to head's input port rport with
// an edge of the given capacity (0 = unbounded), per spec §4.6's
// connection contract: the two ports' type tags must match, both indices
// must be in range, and neither port may already be connected. Any
// violation returns a "connection refused" RuntimeError with no graph
// mutation.
func (g *Graph) Connect(tail, sport, head, rport, capacity int) error {
	if tail < 0 || tail >= len(g.nodes) {
		return wcerr.Newf(wcerr.Index, "dfg", "connection refused: tail node index %d out of range", tail)
	}
	if head < 0 || head >= len(g.nodes) {
		return wcerr.Newf(wcerr.Index, "dfg", "connection refused: head node index %d out of range", head)
	}
	tn, hn := g.nodes[tail], g.nodes[head]
	if sport < 0 || sport >= len(tn.Outputs()) {
		return wcerr.Newf(wcerr.Index, "dfg", "connection refused: %s output port %d out of range", tn.Name(), sport)
	}
	if rport < 0 || rport >= len(hn.Inputs()) {
		return wcerr.Newf(wcerr.Index, "dfg", "connection refused: %s input port %d out of range", hn.Name(), rport)
	}
	ot, it := tn.Outputs()[sport].Type, hn.Inputs()[rport].Type
	if ot != it {
		return wcerr.Newf(wcerr.Value, "dfg", "connection refused: %s.out[%d] type %q does not match %s.in[%d] type %q", tn.Name(), sport, ot, hn.Name(), rport, it)
	}
	so, ro := portRef{tail, sport}, portRef{head, rport}
	if _, ok := g.outEdge[so]; ok {
		return wcerr.Newf(wcerr.Runtime, "dfg", "connection refused: %s.out[%d] already connected", tn.Name(), sport)
	}
	if _, ok := g.inEdge[ro]; ok {
		return wcerr.Newf(wcerr.Runtime, "dfg", "connection refused: %s.in[%d] already connected", hn.Name(), rport)
	}

	e := NewEdge(ot, capacity)
	g.outEdge[so] = e
	g.inEdge[ro] = e
	return nil
}

// EdgeFrom returns the edge connected to node n's output port p, if any.
func (g *Graph) EdgeFrom(n, p int) (*Edge, bool) {
	e, ok := g.outEdge[portRef{n, p}]
	return e, ok
}

// EdgeTo returns the edge connected to node n's input port p, if any.
func (g *Graph) EdgeTo(n, p int) (*Edge, bool) {
	e, ok := g.inEdge[portRef{n, p}]
	return e, ok
}
