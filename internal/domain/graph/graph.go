// Package graph holds the undirected weighted family graph the algorithms
// run on.
//
// Nodes live in a slice and are addressed by index; a map translates person
// ids to indices. Edges live in a second slice in the order they were added,
// and each node keeps the indices of its incident edges. Cycles (spouse
// loops, bad parent data) are therefore plain data, and traversals track
// visited sets instead of relying on acyclicity.
//
// A Graph is not safe for concurrent mutation. Once built it is only read.
package graph

import (
	"github.com/cockroachdb/errors"

	"github.com/ersonp/kinship/internal/domain/entities"
)

// Sentinel errors for graph operations.
var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrSelfLoop      = errors.New("edge endpoints must differ")
)

// DefaultWeight is the weight of every edge unless overridden.
const DefaultWeight = 1.0

// Node is a person in the graph.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Edge is an undirected weighted link. From and To index into the node
// table; Source and Target carry the matching person ids.
type Edge struct {
	Index  int               `json:"-"`
	From   int               `json:"-"`
	To     int               `json:"-"`
	Source string            `json:"source"`
	Target string            `json:"target"`
	Kind   entities.EdgeKind `json:"kind"`
	Weight float64           `json:"weight"`
}

// Other returns the endpoint opposite node n.
func (e Edge) Other(n int) int {
	if e.From == n {
		return e.To
	}
	return e.From
}

// Key returns the canonical pair for the edge.
func (e Edge) Key() PairKey {
	return Pair(e.Source, e.Target)
}

// PairKey identifies an unordered pair of ids, smaller id first.
type PairKey struct {
	A string
	B string
}

// Pair canonicalizes an unordered pair.
func Pair(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Graph is an arena-backed undirected graph with at most one edge per
// unordered pair.
type Graph struct {
	nodes []Node
	index map[string]int
	edges []Edge
	adj   [][]int
	pairs map[PairKey]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		pairs: make(map[PairKey]int),
	}
}

// AddNode appends a node and returns its index.
func (g *Graph) AddNode(id, label string) (int, error) {
	if _, ok := g.index[id]; ok {
		return 0, errors.Wrapf(ErrDuplicateNode, "adding %s", id)
	}
	if label == "" {
		label = id
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, Node{ID: id, Label: label})
	g.adj = append(g.adj, nil)
	g.index[id] = i
	return i, nil
}

// AddEdge links a and b. It reports false without error when the pair is
// already linked, which is how spouse pairs stored on both sides collapse
// into one edge.
func (g *Graph) AddEdge(a, b string, weight float64, kind entities.EdgeKind) (bool, error) {
	from, ok := g.index[a]
	if !ok {
		return false, errors.Wrapf(ErrNodeNotFound, "edge endpoint %s", a)
	}
	to, ok := g.index[b]
	if !ok {
		return false, errors.Wrapf(ErrNodeNotFound, "edge endpoint %s", b)
	}
	if from == to {
		return false, errors.Wrapf(ErrSelfLoop, "edge %s-%s", a, b)
	}
	key := Pair(a, b)
	if _, dup := g.pairs[key]; dup {
		return false, nil
	}

	e := Edge{
		Index:  len(g.edges),
		From:   from,
		To:     to,
		Source: a,
		Target: b,
		Kind:   kind,
		Weight: weight,
	}
	g.edges = append(g.edges, e)
	g.pairs[key] = e.Index
	g.adj[from] = append(g.adj[from], e.Index)
	g.adj[to] = append(g.adj[to], e.Index)
	return true, nil
}

// SetWeight changes the weight of the edge between a and b.
func (g *Graph) SetWeight(a, b string, weight float64) error {
	i, ok := g.pairs[Pair(a, b)]
	if !ok {
		return errors.Wrapf(ErrEdgeNotFound, "%s-%s", a, b)
	}
	g.edges[i].Weight = weight
	return nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the node at index i.
func (g *Graph) Node(i int) Node { return g.nodes[i] }

// Edge returns the edge at index i.
func (g *Graph) Edge(i int) Edge { return g.edges[i] }

// IndexOf resolves a person id to its node index.
func (g *Graph) IndexOf(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Incident returns the indices of edges touching node n, in insertion order.
func (g *Graph) Incident(n int) []int {
	return g.adj[n]
}

// Edges returns a copy of the edge table in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// HasEdge reports whether a and b are linked.
func (g *Graph) HasEdge(a, b string) bool {
	_, ok := g.pairs[Pair(a, b)]
	return ok
}

// EdgeBetween returns the edge linking a and b.
func (g *Graph) EdgeBetween(a, b string) (Edge, bool) {
	i, ok := g.pairs[Pair(a, b)]
	if !ok {
		return Edge{}, false
	}
	return g.edges[i], true
}
