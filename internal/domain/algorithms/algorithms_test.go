package algorithms

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/graph"
)

type testEdge struct {
	a, b string
	w    float64
}

func newGraph(t *testing.T, nodes []string, edges []testEdge) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range nodes {
		_, err := g.AddNode(id, "")
		require.NoError(t, err)
	}
	for _, e := range edges {
		_, err := g.AddEdge(e.a, e.b, e.w, entities.EdgeSpouse)
		require.NoError(t, err)
	}
	return g
}

func triangle(t *testing.T) *graph.Graph {
	return newGraph(t, []string{"A", "B", "C"}, []testEdge{
		{"A", "B", 1},
		{"B", "C", 1},
		{"A", "C", 5},
	})
}

// randomGraph builds a reproducible graph with non-negative weights.
func randomGraph(t *testing.T, seed int64, n, m int) *graph.Graph {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	nodes := make([]string, n)
	for i := range nodes {
		nodes[i] = fmt.Sprintf("n%02d", i)
	}
	g := newGraph(t, nodes, nil)
	for i := 0; i < m; i++ {
		a, b := r.Intn(n), r.Intn(n)
		if a == b {
			continue
		}
		_, err := g.AddEdge(nodes[a], nodes[b], float64(r.Intn(10)), entities.EdgeParent)
		require.NoError(t, err)
	}
	return g
}

func pairs(edges []graph.Edge) []graph.PairKey {
	out := make([]graph.PairKey, len(edges))
	for i, e := range edges {
		out[i] = e.Key()
	}
	return out
}

func TestDijkstra_Triangle(t *testing.T) {
	res, err := Dijkstra(triangle(t), "A", "C", nil)
	require.NoError(t, err)

	assert.True(t, res.Reachable)
	assert.Equal(t, []string{"A", "B", "C"}, res.Nodes)
	assert.Equal(t, 2.0, res.TotalDistance)
	assert.Equal(t, []graph.PairKey{graph.Pair("A", "B"), graph.Pair("B", "C")}, pairs(res.Path))
	require.NotEmpty(t, res.Trace)
	assert.Equal(t, "Initialize: distance(A) = 0, every other node = ∞", res.Trace[0])
	assert.Equal(t, "Shortest path: A → B → C (total distance 2)", res.Trace[len(res.Trace)-1])
}

func TestDijkstra_SameStartAndEnd(t *testing.T) {
	res, err := Dijkstra(triangle(t), "B", "B", nil)
	require.NoError(t, err)
	assert.True(t, res.Reachable)
	assert.Equal(t, 0.0, res.TotalDistance)
	assert.Equal(t, []string{"B"}, res.Nodes)
	assert.Empty(t, res.Path)
}

func TestDijkstra_Unreachable(t *testing.T) {
	g := newGraph(t, []string{"A", "B", "C"}, []testEdge{{"A", "B", 1}})

	res, err := Dijkstra(g, "A", "C", nil)
	require.NoError(t, err)
	assert.False(t, res.Reachable)
	assert.True(t, math.IsInf(res.TotalDistance, 1))
	assert.Empty(t, res.Path)
	assert.Equal(t, "No path found from A to C", res.Trace[len(res.Trace)-1])

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_distance":null`)
	assert.Contains(t, string(data), `"reachable":false`)
}

func TestDijkstra_NegativeWeight(t *testing.T) {
	g := newGraph(t, []string{"A", "B"}, []testEdge{{"A", "B", -1}})
	_, err := Dijkstra(g, "A", "B", nil)
	assert.True(t, errors.Is(err, ErrNegativeWeight))
}

func TestUnknownNode(t *testing.T) {
	g := triangle(t)

	tests := []struct {
		name string
		run  func() error
	}{
		{name: "dijkstra start", run: func() error { _, err := Dijkstra(g, "Z", "A", nil); return err }},
		{name: "dijkstra end", run: func() error { _, err := Dijkstra(g, "A", "Z", nil); return err }},
		{name: "bellman-ford", run: func() error { _, err := BellmanFord(g, "A", "Z", nil); return err }},
		{name: "prim root", run: func() error { _, err := Prim(g, "Z", nil); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, errors.Is(err, graph.ErrNodeNotFound))
			assert.Contains(t, err.Error(), "Z")
		})
	}
}

func TestBellmanFord_Triangle(t *testing.T) {
	res, err := BellmanFord(triangle(t), "A", "C", nil)
	require.NoError(t, err)
	assert.True(t, res.Reachable)
	assert.False(t, res.NegativeCycle)
	assert.Equal(t, 2.0, res.TotalDistance)
	assert.Equal(t, []string{"A", "B", "C"}, res.Nodes)
	assert.Contains(t, res.Trace, "Pass 1 of 2: relaxing 3 edges in both directions")
	assert.Contains(t, res.Trace, "Pass 2 of 2: relaxing 3 edges in both directions")
}

func TestBellmanFord_NegativeCycle(t *testing.T) {
	// An undirected negative edge is a two-step negative cycle.
	g := newGraph(t, []string{"A", "B", "C"}, []testEdge{
		{"A", "B", 1},
		{"B", "C", -2},
	})

	res, err := BellmanFord(g, "A", "C", nil)
	require.NoError(t, err)
	assert.True(t, res.NegativeCycle)
	assert.True(t, res.Reachable)

	found := false
	for _, step := range res.Trace {
		if strings.HasPrefix(step, "Negative-weight cycle detected") {
			found = true
		}
	}
	assert.True(t, found, "trace should note the negative cycle")
}

func TestBellmanFord_Unreachable(t *testing.T) {
	g := newGraph(t, []string{"A", "B", "C"}, []testEdge{{"A", "B", 1}})
	res, err := BellmanFord(g, "A", "C", nil)
	require.NoError(t, err)
	assert.False(t, res.Reachable)
	assert.False(t, res.NegativeCycle)
}

func TestShortestPathAgreement(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		g := randomGraph(t, seed, 12, 30)
		for _, target := range []string{"n03", "n07", "n11"} {
			d, err := Dijkstra(g, "n00", target, nil)
			require.NoError(t, err)
			b, err := BellmanFord(g, "n00", target, nil)
			require.NoError(t, err)

			assert.Equal(t, d.Reachable, b.Reachable, "seed %d target %s", seed, target)
			assert.Equal(t, d.TotalDistance, b.TotalDistance, "seed %d target %s", seed, target)
			assert.False(t, b.NegativeCycle)
		}
	}
}

func TestKruskal_Triangle(t *testing.T) {
	res, err := Kruskal(triangle(t), nil)
	require.NoError(t, err)
	assert.Equal(t, []graph.PairKey{graph.Pair("A", "B"), graph.Pair("B", "C")}, pairs(res.Edges))
	assert.Equal(t, 2.0, res.TotalWeight)
	assert.Equal(t, 1, res.Components)
	assert.False(t, res.Disconnected)
}

func TestKruskal_TieBreak(t *testing.T) {
	// Every edge weighs the same, so the canonical pair decides.
	g := newGraph(t, []string{"C", "B", "A"}, []testEdge{
		{"C", "B", 1},
		{"B", "A", 1},
		{"C", "A", 1},
	})
	res, err := Kruskal(g, nil)
	require.NoError(t, err)
	assert.Equal(t, []graph.PairKey{graph.Pair("A", "B"), graph.Pair("A", "C")}, pairs(res.Edges))
	assert.Contains(t, res.Trace, "Add B–A (weight 1)")
	assert.Contains(t, res.Trace, "Add C–A (weight 1)")
}

func TestKruskal_Forest(t *testing.T) {
	g := newGraph(t, []string{"A", "B", "C", "D", "E"}, []testEdge{
		{"A", "B", 2},
		{"C", "D", 3},
	})
	res, err := Kruskal(g, nil)
	require.NoError(t, err)
	assert.True(t, res.Disconnected)
	assert.Equal(t, 3, res.Components)
	assert.Len(t, res.Edges, 2)
	assert.Equal(t, 5.0, res.TotalWeight)
}

func TestPrim_Triangle(t *testing.T) {
	res, err := Prim(triangle(t), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "A", res.Root)
	assert.Equal(t, 2.0, res.TotalWeight)
	assert.Equal(t, 3, res.NodesSpanned)
	assert.ElementsMatch(t, []graph.PairKey{graph.Pair("A", "B"), graph.Pair("B", "C")}, pairs(res.Edges))
}

func TestPrim_Disconnected(t *testing.T) {
	g := newGraph(t, []string{"A", "B", "C", "D"}, []testEdge{
		{"A", "B", 2},
		{"C", "D", 3},
	})
	res, err := Prim(g, "C", nil)
	require.NoError(t, err)
	assert.True(t, res.Disconnected)
	assert.Equal(t, 2, res.NodesSpanned)
	assert.Equal(t, []graph.PairKey{graph.Pair("C", "D")}, pairs(res.Edges))
	assert.Equal(t, 3.0, res.TotalWeight)
}

func TestSpanningTreeAgreement(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		g := randomGraph(t, seed, 10, 40)
		k, err := Kruskal(g, nil)
		require.NoError(t, err)
		if k.Disconnected {
			continue
		}
		p, err := Prim(g, "", nil)
		require.NoError(t, err)
		assert.Equal(t, k.TotalWeight, p.TotalWeight, "seed %d", seed)
		assert.Len(t, p.Edges, g.NodeCount()-1)
		assert.Len(t, k.Edges, g.NodeCount()-1)
	}
}

func TestEmptyGraph(t *testing.T) {
	g := graph.New()

	k, err := Kruskal(g, nil)
	require.NoError(t, err)
	assert.Empty(t, k.Edges)
	assert.Zero(t, k.TotalWeight)

	p, err := Prim(g, "", nil)
	require.NoError(t, err)
	assert.Empty(t, p.Edges)
	assert.Zero(t, p.NodesSpanned)
}

func TestTraceIsResetPerRun(t *testing.T) {
	g := triangle(t)
	trace := NewTrace()

	_, err := Kruskal(g, trace)
	require.NoError(t, err)
	first := trace.Steps()

	_, err = Kruskal(g, trace)
	require.NoError(t, err)
	assert.Equal(t, first, trace.Steps())

	res, err := Dijkstra(g, "A", "C", trace)
	require.NoError(t, err)
	assert.Equal(t, res.Trace, trace.Steps())
	assert.Equal(t, "Initialize: distance(A) = 0, every other node = ∞", trace.Steps()[0])
}

func TestTraceUsesLabels(t *testing.T) {
	g := graph.New()
	_, err := g.AddNode("p1", "Alice")
	require.NoError(t, err)
	_, err = g.AddNode("p2", "Bob")
	require.NoError(t, err)
	_, err = g.AddEdge("p1", "p2", 1, entities.EdgeSpouse)
	require.NoError(t, err)

	res, err := Dijkstra(g, "p1", "p2", nil)
	require.NoError(t, err)
	assert.Equal(t, "Shortest path: Alice → Bob (total distance 1)", res.Trace[len(res.Trace)-1])
	assert.Equal(t, []string{"p1", "p2"}, res.Nodes)
}
