package algorithms

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/ersonp/kinship/internal/domain/graph"
)

// Prim grows a minimum spanning tree from rootID, or from the first node
// when rootID is empty. On a disconnected graph it stops once no node
// outside the tree has a finite key, so the result spans only the root's
// component and is flagged Disconnected.
func Prim(g *graph.Graph, rootID string, trace *Trace) (*TreeResult, error) {
	trace = begin(trace)

	n := g.NodeCount()
	res := &TreeResult{Algorithm: AlgorithmPrim, Edges: []graph.Edge{}}
	if n == 0 {
		trace.Addf("Graph is empty; nothing to span")
		res.Trace = trace.Steps()
		return res, nil
	}

	root := 0
	if rootID != "" {
		var err error
		if root, err = resolve(g, rootID); err != nil {
			return nil, errors.Wrap(err, "root")
		}
	}
	res.Root = g.Node(root).ID

	key := infinities(n)
	via := noEdges(n)
	inTree := make([]bool, n)
	key[root] = 0

	trace.Addf("Start from root %s: key(%s) = 0, every other key = ∞", label(g, root), label(g, root))

	for {
		u := -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !inTree[i] && key[i] < best {
				best = key[i]
				u = i
			}
		}
		if u < 0 {
			break
		}

		inTree[u] = true
		res.NodesSpanned++
		if via[u] >= 0 {
			e := g.Edge(via[u])
			res.Edges = append(res.Edges, e)
			res.TotalWeight += e.Weight
			trace.Addf("Add %s to tree via edge %s (weight %s)", label(g, u), edgeLabel(g, e), formatNumber(e.Weight))
		} else {
			trace.Addf("Add root %s to tree", label(g, u))
		}

		for _, ei := range g.Incident(u) {
			e := g.Edge(ei)
			v := e.Other(u)
			if inTree[v] || e.Weight >= key[v] {
				continue
			}
			trace.Addf("Key of %s: %s → %s via %s", label(g, v), formatNumber(key[v]), formatNumber(e.Weight), label(g, u))
			key[v] = e.Weight
			via[v] = ei
		}
	}

	res.Components = 1
	if res.NodesSpanned < n {
		res.Disconnected = true
		trace.Addf("Graph is disconnected: %d of %d nodes are unreachable from %s; tree covers the root's component only",
			n-res.NodesSpanned, n, label(g, root))
	}
	trace.Addf("Spanning tree complete: %d edges, total weight %s", len(res.Edges), formatNumber(res.TotalWeight))
	res.Trace = trace.Steps()
	return res, nil
}
