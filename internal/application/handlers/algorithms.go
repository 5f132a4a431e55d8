package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/ersonp/kinship/internal/domain/algorithms"
	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/services"
	"github.com/ersonp/kinship/internal/infrastructure/metrics"
)

// ValidPathAlgorithms lists the shortest-path algorithm names; the first is the default.
var ValidPathAlgorithms = []string{"dijkstra", "bellman-ford"}

// ValidTreeAlgorithms lists the spanning-tree algorithm names; the first is the default.
var ValidTreeAlgorithms = []string{"kruskal", "prim"}

var validate = validator.New(validator.WithRequiredStructEnabled())

// AlgorithmHandler handles graph algorithm requests.
type AlgorithmHandler struct {
	service *services.AlgorithmService
	metrics *metrics.Metrics
}

// NewAlgorithmHandler creates a new AlgorithmHandler. m may be nil.
func NewAlgorithmHandler(service *services.AlgorithmService, m *metrics.Metrics) *AlgorithmHandler {
	return &AlgorithmHandler{service: service, metrics: m}
}

// HandleShortestPath runs a shortest-path algorithm.
func (h *AlgorithmHandler) HandleShortestPath(ctx context.Context, req services.ShortestPathRequest) (*algorithms.PathResult, error) {
	req.Algorithm = normalizeAlgorithm(req.Algorithm)
	if err := checkRequest(req, ValidPathAlgorithms); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := h.service.ShortestPath(ctx, req)
	h.observe(req.Algorithm, start, err, func() int { return len(res.Trace) })
	return res, err
}

// HandleSpanningTree runs a spanning-tree algorithm.
func (h *AlgorithmHandler) HandleSpanningTree(ctx context.Context, req services.SpanningTreeRequest) (*algorithms.TreeResult, error) {
	req.Algorithm = normalizeAlgorithm(req.Algorithm)
	if err := checkRequest(req, ValidTreeAlgorithms); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := h.service.SpanningTree(ctx, req)
	h.observe(req.Algorithm, start, err, func() int { return len(res.Trace) })
	return res, err
}

func (h *AlgorithmHandler) observe(alg algorithms.Algorithm, start time.Time, err error, steps func() int) {
	if err != nil {
		h.metrics.ObserveAlgorithm(string(alg), result(err), time.Since(start), 0)
		return
	}
	h.metrics.ObserveAlgorithm(string(alg), metrics.ResultOK, time.Since(start), steps())
}

func normalizeAlgorithm(a algorithms.Algorithm) algorithms.Algorithm {
	s := strings.ToLower(strings.TrimSpace(string(a)))
	if s == "bellmanford" || s == "bellman_ford" {
		s = string(algorithms.AlgorithmBellmanFord)
	}
	return algorithms.Algorithm(s)
}

// checkRequest turns struct-tag failures into field validation errors.
// valid names the algorithms accepted for the request.
func checkRequest(req any, valid []string) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Field() == "Algorithm" {
			return entities.FieldError("", "algorithm",
				fmt.Sprintf("unknown algorithm %q (valid: %s)", fe.Value(), strings.Join(valid, ", ")))
		}
		return entities.FieldError("", strings.ToLower(fe.Field()), "failed '"+fe.Tag()+"' check")
	}
	return errors.Wrap(err, "validating request")
}
