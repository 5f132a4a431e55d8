// Package algorithms runs shortest-path and minimum-spanning-tree
// algorithms over a family graph.
//
// Every algorithm is a synchronous, pure function of its graph argument.
// "No path" and "disconnected graph" are ordinary outcomes reported on the
// result; errors are reserved for bad input such as an unknown node id.
package algorithms

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ersonp/kinship/internal/domain/graph"
)

// Algorithm names an algorithm.
type Algorithm string

const (
	AlgorithmDijkstra    Algorithm = "dijkstra"
	AlgorithmBellmanFord Algorithm = "bellman-ford"
	AlgorithmPrim        Algorithm = "prim"
	AlgorithmKruskal     Algorithm = "kruskal"
)

// ErrNegativeWeight is returned by Dijkstra for graphs with negative edges.
var ErrNegativeWeight = errors.New("negative edge weight")

// PathResult is the outcome of a shortest-path run.
type PathResult struct {
	Algorithm Algorithm    `json:"algorithm"`
	Start     string       `json:"start"`
	End       string       `json:"end"`
	Path      []graph.Edge `json:"path"`
	// Nodes lists the ids along the path, start first.
	Nodes []string `json:"nodes"`
	// TotalDistance is +Inf when End is unreachable.
	TotalDistance float64 `json:"-"`
	Reachable     bool    `json:"reachable"`
	// NegativeCycle is set by Bellman-Ford. Distances and path are then
	// advisory only.
	NegativeCycle bool     `json:"negative_cycle"`
	Trace         []string `json:"trace"`
}

// MarshalJSON encodes an infinite distance as null.
func (r PathResult) MarshalJSON() ([]byte, error) {
	type plain PathResult
	var dist *float64
	if !math.IsInf(r.TotalDistance, 0) && !math.IsNaN(r.TotalDistance) {
		d := r.TotalDistance
		dist = &d
	}
	return json.Marshal(struct {
		plain
		TotalDistance *float64 `json:"total_distance"`
	}{plain: plain(r), TotalDistance: dist})
}

// TreeResult is the outcome of a spanning-tree run.
type TreeResult struct {
	Algorithm   Algorithm    `json:"algorithm"`
	Root        string       `json:"root,omitempty"`
	Edges       []graph.Edge `json:"edges"`
	TotalWeight float64      `json:"total_weight"`
	// NodesSpanned counts the nodes touched by the tree or forest.
	NodesSpanned int `json:"nodes_spanned"`
	// Components is the number of trees in the result.
	Components int `json:"components"`
	// Disconnected is set when the graph has more than one component. Prim
	// then covers only the root's component; Kruskal returns a forest.
	Disconnected bool     `json:"disconnected"`
	Trace        []string `json:"trace"`
}

func formatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

func resolve(g *graph.Graph, id string) (int, error) {
	i, ok := g.IndexOf(id)
	if !ok {
		return 0, errors.Wrapf(graph.ErrNodeNotFound, "%q", id)
	}
	return i, nil
}

func label(g *graph.Graph, n int) string {
	return g.Node(n).Label
}

func edgeLabel(g *graph.Graph, e graph.Edge) string {
	return label(g, e.From) + "–" + label(g, e.To)
}

func infinities(n int) []float64 {
	d := make([]float64, n)
	for i := range d {
		d[i] = math.Inf(1)
	}
	return d
}

func noEdges(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = -1
	}
	return p
}

// walkBack follows prev edges from end to start. It gives up, returning
// false, if the chain breaks or loops.
func walkBack(g *graph.Graph, start, end int, prev []int) ([]graph.Edge, []string, bool) {
	path := []graph.Edge{}
	nodes := []string{g.Node(end).ID}
	seen := map[int]bool{end: true}
	for cur := end; cur != start; {
		ei := prev[cur]
		if ei < 0 {
			return nil, nil, false
		}
		e := g.Edge(ei)
		cur = e.Other(cur)
		if seen[cur] {
			return nil, nil, false
		}
		seen[cur] = true
		path = append(path, e)
		nodes = append(nodes, g.Node(cur).ID)
	}
	reverseEdges(path)
	reverseStrings(nodes)
	return path, nodes, true
}

func reverseEdges(s []graph.Edge) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func joinLabels(g *graph.Graph, ids []string) string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		n, _ := g.IndexOf(id)
		labels[i] = label(g, n)
	}
	return strings.Join(labels, " → ")
}

// finishPath reconstructs the path to end and records the closing step.
func finishPath(alg Algorithm, g *graph.Graph, start, end int, dist []float64, prev []int, trace *Trace) *PathResult {
	res := &PathResult{
		Algorithm:     alg,
		Start:         g.Node(start).ID,
		End:           g.Node(end).ID,
		Path:          []graph.Edge{},
		Nodes:         []string{},
		TotalDistance: dist[end],
	}
	if math.IsInf(dist[end], 1) {
		trace.Addf("No path found from %s to %s", label(g, start), label(g, end))
		res.Trace = trace.Steps()
		return res
	}

	res.Reachable = true
	path, nodes, ok := walkBack(g, start, end, prev)
	if ok {
		res.Path = path
		res.Nodes = nodes
		trace.Addf("Shortest path: %s (total distance %s)", joinLabels(g, nodes), formatNumber(dist[end]))
	} else {
		trace.Addf("Path to %s could not be reconstructed (total distance %s)", label(g, end), formatNumber(dist[end]))
	}
	res.Trace = trace.Steps()
	return res
}
