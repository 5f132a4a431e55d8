package algorithms

import (
	"cmp"
	"slices"

	"github.com/ersonp/kinship/internal/domain/graph"
)

// Kruskal builds a minimum spanning forest. Edges are taken in ascending
// weight order, ties broken by the canonical id pair and then by build
// order, and kept only when they join two different components.
func Kruskal(g *graph.Graph, trace *Trace) (*TreeResult, error) {
	trace = begin(trace)

	n := g.NodeCount()
	res := &TreeResult{Algorithm: AlgorithmKruskal, Edges: []graph.Edge{}}
	if n == 0 {
		trace.Addf("Graph is empty; nothing to span")
		res.Trace = trace.Steps()
		return res, nil
	}

	edges := g.Edges()
	slices.SortStableFunc(edges, func(a, b graph.Edge) int {
		if c := cmp.Compare(a.Weight, b.Weight); c != 0 {
			return c
		}
		ka, kb := a.Key(), b.Key()
		if c := cmp.Compare(ka.A, kb.A); c != 0 {
			return c
		}
		if c := cmp.Compare(ka.B, kb.B); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	trace.Addf("Sort %d edges by weight", len(edges))

	uf := NewUnionFind(n)
	for _, e := range edges {
		if len(res.Edges) == n-1 {
			break
		}
		if !uf.Union(e.From, e.To) {
			trace.Addf("Skip %s (weight %s): endpoints already connected", edgeLabel(g, e), formatNumber(e.Weight))
			continue
		}
		res.Edges = append(res.Edges, e)
		res.TotalWeight += e.Weight
		trace.Addf("Add %s (weight %s)", edgeLabel(g, e), formatNumber(e.Weight))
	}

	res.NodesSpanned = n
	res.Components = uf.Count()
	if res.Components > 1 {
		res.Disconnected = true
		trace.Addf("Graph is disconnected: spanning forest of %d trees", res.Components)
	}
	trace.Addf("Spanning forest complete: %d edges, total weight %s", len(res.Edges), formatNumber(res.TotalWeight))
	res.Trace = trace.Steps()
	return res, nil
}
