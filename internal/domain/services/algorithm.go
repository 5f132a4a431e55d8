package services

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ersonp/kinship/internal/domain/algorithms"
	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/graph"
)

// ErrUnknownAlgorithm is returned for an algorithm name that does not fit
// the requested operation.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ShortestPathRequest asks for a path between two people.
type ShortestPathRequest struct {
	Algorithm algorithms.Algorithm   `json:"algorithm" validate:"required,oneof=dijkstra bellman-ford"`
	Start     string                 `json:"start" validate:"required"`
	End       string                 `json:"end" validate:"required"`
	Scope     entities.Scope         `json:"scope,omitempty" validate:"omitempty,oneof=full personal"`
	Root      string                 `json:"root,omitempty"`
	Weights   []graph.WeightOverride `json:"weights,omitempty" validate:"omitempty,dive"`
}

// SpanningTreeRequest asks for a minimum spanning tree or forest.
type SpanningTreeRequest struct {
	Algorithm algorithms.Algorithm   `json:"algorithm" validate:"required,oneof=prim kruskal"`
	Root      string                 `json:"root,omitempty"`
	Scope     entities.Scope         `json:"scope,omitempty" validate:"omitempty,oneof=full personal"`
	Weights   []graph.WeightOverride `json:"weights,omitempty" validate:"omitempty,dive"`
}

// AlgorithmService runs graph algorithms over a scoped view of the family.
type AlgorithmService struct {
	engine *ConsistencyEngine
	logger *zap.Logger
}

// NewAlgorithmService creates a new AlgorithmService.
func NewAlgorithmService(engine *ConsistencyEngine, logger *zap.Logger) *AlgorithmService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlgorithmService{engine: engine, logger: logger}
}

// ShortestPath builds the graph for the request and runs Dijkstra or
// Bellman-Ford on it. A personal view is centred on Start unless Root is set.
func (s *AlgorithmService) ShortestPath(ctx context.Context, req ShortestPathRequest) (*algorithms.PathResult, error) {
	run, ok := map[algorithms.Algorithm]func(*graph.Graph, string, string, *algorithms.Trace) (*algorithms.PathResult, error){
		algorithms.AlgorithmDijkstra:    algorithms.Dijkstra,
		algorithms.AlgorithmBellmanFord: algorithms.BellmanFord,
	}[req.Algorithm]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "%q is not a shortest-path algorithm", req.Algorithm)
	}

	root := req.Root
	if root == "" {
		root = req.Start
	}
	g, err := s.graph(ctx, root, req.Scope, req.Weights)
	if err != nil {
		return nil, err
	}

	res, err := run(g, req.Start, req.End, algorithms.NewTrace())
	if err != nil {
		return nil, errors.Wrapf(err, "running %s", req.Algorithm)
	}
	s.logger.Debug("shortest path computed",
		zap.String("algorithm", string(req.Algorithm)),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
		zap.Bool("reachable", res.Reachable),
		zap.Bool("negative_cycle", res.NegativeCycle),
	)
	return res, nil
}

// SpanningTree builds the graph for the request and runs Prim or Kruskal
// on it. Prim starts from Root when given.
func (s *AlgorithmService) SpanningTree(ctx context.Context, req SpanningTreeRequest) (*algorithms.TreeResult, error) {
	if req.Algorithm != algorithms.AlgorithmPrim && req.Algorithm != algorithms.AlgorithmKruskal {
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "%q is not a spanning-tree algorithm", req.Algorithm)
	}

	g, err := s.graph(ctx, req.Root, req.Scope, req.Weights)
	if err != nil {
		return nil, err
	}

	var res *algorithms.TreeResult
	if req.Algorithm == algorithms.AlgorithmPrim {
		res, err = algorithms.Prim(g, req.Root, algorithms.NewTrace())
	} else {
		res, err = algorithms.Kruskal(g, algorithms.NewTrace())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "running %s", req.Algorithm)
	}
	s.logger.Debug("spanning tree computed",
		zap.String("algorithm", string(req.Algorithm)),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", len(res.Edges)),
		zap.Bool("disconnected", res.Disconnected),
	)
	return res, nil
}

func (s *AlgorithmService) graph(
	ctx context.Context,
	root string,
	scope entities.Scope,
	weights []graph.WeightOverride,
) (*graph.Graph, error) {
	if scope == "" {
		scope = entities.ScopeFull
	}
	// A full view does not need a root; Prim's root is resolved on the graph.
	viewRoot := root
	if scope == entities.ScopeFull {
		viewRoot = ""
	}
	people, err := s.engine.ScopedView(ctx, viewRoot, scope)
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(people, graph.WithOverrides(weights))
	if err != nil {
		return nil, errors.Wrap(err, "building graph")
	}
	return g, nil
}
