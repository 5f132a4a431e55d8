package algorithms

import (
	"container/heap"

	"github.com/cockroachdb/errors"

	"github.com/ersonp/kinship/internal/domain/graph"
)

type queueItem struct {
	node int
	dist float64
}

// nodeQueue is a min-heap on distance, ties broken by node index.
type nodeQueue []queueItem

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].node < q[j].node
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(queueItem)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// Dijkstra finds the shortest path from startID to endID. It stops as soon
// as endID is settled. Edge weights must be non-negative.
func Dijkstra(g *graph.Graph, startID, endID string, trace *Trace) (*PathResult, error) {
	trace = begin(trace)

	start, err := resolve(g, startID)
	if err != nil {
		return nil, errors.Wrap(err, "start")
	}
	end, err := resolve(g, endID)
	if err != nil {
		return nil, errors.Wrap(err, "end")
	}
	for _, e := range g.Edges() {
		if e.Weight < 0 {
			return nil, errors.Wrapf(ErrNegativeWeight, "edge %s-%s has weight %s", e.Source, e.Target, formatNumber(e.Weight))
		}
	}

	n := g.NodeCount()
	dist := infinities(n)
	prev := noEdges(n)
	settled := make([]bool, n)
	dist[start] = 0

	trace.Addf("Initialize: distance(%s) = 0, every other node = ∞", label(g, start))

	q := &nodeQueue{{node: start, dist: 0}}
	for q.Len() > 0 {
		it := heap.Pop(q).(queueItem)
		u := it.node
		if settled[u] || it.dist > dist[u] {
			continue
		}
		settled[u] = true
		trace.Addf("Visit %s (distance %s)", label(g, u), formatNumber(dist[u]))
		if u == end {
			break
		}

		for _, ei := range g.Incident(u) {
			e := g.Edge(ei)
			v := e.Other(u)
			if settled[v] {
				continue
			}
			if nd := dist[u] + e.Weight; nd < dist[v] {
				trace.Addf("Update %s: %s → %s via %s", label(g, v), formatNumber(dist[v]), formatNumber(nd), label(g, u))
				dist[v] = nd
				prev[v] = ei
				heap.Push(q, queueItem{node: v, dist: nd})
			}
		}
	}

	return finishPath(AlgorithmDijkstra, g, start, end, dist, prev, trace), nil
}
