package algorithms

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/ersonp/kinship/internal/domain/graph"
)

// BellmanFord finds the shortest path from startID to endID, tolerating
// negative weights. Each undirected edge is relaxed in both directions on
// every one of the |V|-1 passes, then a final pass looks for a
// negative-weight cycle. When one is found the result is flagged and its
// distance and path are best-effort only.
func BellmanFord(g *graph.Graph, startID, endID string, trace *Trace) (*PathResult, error) {
	trace = begin(trace)

	start, err := resolve(g, startID)
	if err != nil {
		return nil, errors.Wrap(err, "start")
	}
	end, err := resolve(g, endID)
	if err != nil {
		return nil, errors.Wrap(err, "end")
	}

	n := g.NodeCount()
	edges := g.Edges()
	dist := infinities(n)
	prev := noEdges(n)
	dist[start] = 0

	trace.Addf("Initialize: distance(%s) = 0, every other node = ∞", label(g, start))

	relax := func(ei, u, v int, w float64) bool {
		if math.IsInf(dist[u], 1) {
			return false
		}
		nd := dist[u] + w
		if nd >= dist[v] {
			return false
		}
		trace.Addf("Update %s: %s → %s via %s", label(g, v), formatNumber(dist[v]), formatNumber(nd), label(g, u))
		dist[v] = nd
		prev[v] = ei
		return true
	}

	passes := n - 1
	for pass := 1; pass <= passes; pass++ {
		trace.Addf("Pass %d of %d: relaxing %d edges in both directions", pass, passes, len(edges))
		for _, e := range edges {
			relax(e.Index, e.From, e.To, e.Weight)
			relax(e.Index, e.To, e.From, e.Weight)
		}
	}

	negativeCycle := false
	for _, e := range edges {
		if improves(dist, e.From, e.To, e.Weight) || improves(dist, e.To, e.From, e.Weight) {
			negativeCycle = true
			trace.Addf("Negative-weight cycle detected through edge %s (weight %s); distances are unreliable",
				edgeLabel(g, e), formatNumber(e.Weight))
			break
		}
	}

	res := finishPath(AlgorithmBellmanFord, g, start, end, dist, prev, trace)
	res.NegativeCycle = negativeCycle
	return res, nil
}

func improves(dist []float64, u, v int, w float64) bool {
	return !math.IsInf(dist[u], 1) && dist[u]+w < dist[v]
}
