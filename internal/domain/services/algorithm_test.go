package services

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kinship/internal/domain/algorithms"
	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/graph"
)

// family is a small three-generation tree:
//
//	gf ── gm
//	   │
//	  dad ── mum
//	      │
//	     kid
func family() []entities.Person {
	return []entities.Person{
		{ID: "gf", Name: "Grandfather", Gender: entities.GenderMale, SpouseIDs: []string{"gm"}},
		{ID: "gm", Name: "Grandmother", Gender: entities.GenderFemale, SpouseIDs: []string{"gf"}},
		{ID: "dad", Name: "Dad", Gender: entities.GenderMale, FatherID: "gf", MotherID: "gm", SpouseIDs: []string{"mum"}},
		{ID: "mum", Name: "Mum", Gender: entities.GenderFemale, SpouseIDs: []string{"dad"}},
		{ID: "kid", Name: "Kid", FatherID: "dad", MotherID: "mum"},
		{ID: "loner", Name: "Loner"},
	}
}

func newTestAlgorithmService(t *testing.T) *AlgorithmService {
	t.Helper()
	engine, _ := newTestEngine(t, family()...)
	return NewAlgorithmService(engine, nil)
}

func TestShortestPath(t *testing.T) {
	svc := newTestAlgorithmService(t)
	ctx := context.Background()

	for _, alg := range []algorithms.Algorithm{algorithms.AlgorithmDijkstra, algorithms.AlgorithmBellmanFord} {
		t.Run(string(alg), func(t *testing.T) {
			res, err := svc.ShortestPath(ctx, ShortestPathRequest{Algorithm: alg, Start: "kid", End: "gm"})
			require.NoError(t, err)
			assert.Equal(t, alg, res.Algorithm)
			assert.True(t, res.Reachable)
			assert.Equal(t, 2.0, res.TotalDistance)
			assert.Equal(t, []string{"kid", "dad", "gm"}, res.Nodes)
			assert.NotEmpty(t, res.Trace)
		})
	}
}

func TestShortestPath_WeightsAndScope(t *testing.T) {
	svc := newTestAlgorithmService(t)
	ctx := context.Background()

	res, err := svc.ShortestPath(ctx, ShortestPathRequest{
		Algorithm: algorithms.AlgorithmDijkstra,
		Start:     "kid",
		End:       "gm",
		Weights:   []graph.WeightOverride{{Source: "gm", Target: "dad", Weight: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"kid", "dad", "gf", "gm"}, res.Nodes)
	assert.Equal(t, 3.0, res.TotalDistance)

	res, err = svc.ShortestPath(ctx, ShortestPathRequest{
		Algorithm: algorithms.AlgorithmDijkstra,
		Start:     "kid",
		End:       "mum",
		Scope:     entities.ScopePersonal,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.TotalDistance)

	// gm is outside kid's personal view.
	_, err = svc.ShortestPath(ctx, ShortestPathRequest{
		Algorithm: algorithms.AlgorithmDijkstra,
		Start:     "kid",
		End:       "gm",
		Scope:     entities.ScopePersonal,
	})
	assert.True(t, errors.Is(err, graph.ErrNodeNotFound))
}

func TestShortestPath_Errors(t *testing.T) {
	svc := newTestAlgorithmService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		req    ShortestPathRequest
		target error
	}{
		{
			name:   "spanning-tree algorithm",
			req:    ShortestPathRequest{Algorithm: algorithms.AlgorithmPrim, Start: "kid", End: "gm"},
			target: ErrUnknownAlgorithm,
		},
		{
			name:   "unknown start",
			req:    ShortestPathRequest{Algorithm: algorithms.AlgorithmDijkstra, Start: "ghost", End: "gm"},
			target: graph.ErrNodeNotFound,
		},
		{
			name: "override on missing edge",
			req: ShortestPathRequest{
				Algorithm: algorithms.AlgorithmDijkstra,
				Start:     "kid",
				End:       "gm",
				Weights:   []graph.WeightOverride{{Source: "kid", Target: "loner", Weight: 2}},
			},
			target: graph.ErrEdgeNotFound,
		},
		{
			name: "negative weight with dijkstra",
			req: ShortestPathRequest{
				Algorithm: algorithms.AlgorithmDijkstra,
				Start:     "kid",
				End:       "gm",
				Weights:   []graph.WeightOverride{{Source: "kid", Target: "dad", Weight: -1}},
			},
			target: algorithms.ErrNegativeWeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ShortestPath(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
		})
	}
}

func TestShortestPath_Unreachable(t *testing.T) {
	svc := newTestAlgorithmService(t)

	res, err := svc.ShortestPath(context.Background(), ShortestPathRequest{
		Algorithm: algorithms.AlgorithmBellmanFord,
		Start:     "kid",
		End:       "loner",
	})
	require.NoError(t, err)
	assert.False(t, res.Reachable)
	assert.False(t, res.NegativeCycle)
}

func TestSpanningTree(t *testing.T) {
	svc := newTestAlgorithmService(t)
	ctx := context.Background()

	kruskal, err := svc.SpanningTree(ctx, SpanningTreeRequest{Algorithm: algorithms.AlgorithmKruskal})
	require.NoError(t, err)
	assert.True(t, kruskal.Disconnected)
	assert.Equal(t, 2, kruskal.Components)
	assert.Len(t, kruskal.Edges, 4)

	prim, err := svc.SpanningTree(ctx, SpanningTreeRequest{Algorithm: algorithms.AlgorithmPrim, Root: "kid"})
	require.NoError(t, err)
	assert.Equal(t, "kid", prim.Root)
	assert.True(t, prim.Disconnected)
	assert.Equal(t, 5, prim.NodesSpanned)
	assert.Equal(t, kruskal.TotalWeight, prim.TotalWeight)

	_, err = svc.SpanningTree(ctx, SpanningTreeRequest{Algorithm: algorithms.AlgorithmDijkstra})
	assert.True(t, errors.Is(err, ErrUnknownAlgorithm))
}
