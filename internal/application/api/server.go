// Package api exposes the kinship handlers over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/domain/algorithms"
	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/graph"
	"github.com/ersonp/kinship/internal/domain/services"
)

const defaultHistoryLimit = 50

// Server wires handlers to gin routes.
type Server struct {
	people     *handlers.PersonHandler
	algorithms *handlers.AlgorithmHandler
	importer   *handlers.ImportHandler
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
}

// NewServer creates a new Server. gatherer may be nil to disable /metrics.
func NewServer(
	people *handlers.PersonHandler,
	algs *handlers.AlgorithmHandler,
	importer *handlers.ImportHandler,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		people:     people,
		algorithms: algs,
		importer:   importer,
		gatherer:   gatherer,
		logger:     logger,
	}
}

// Router builds the gin engine.
//
//	POST   /people                      create a person
//	GET    /people?scope=&root=         scoped view
//	GET    /people/:id                  one person
//	PUT    /people/:id                  apply a patch
//	DELETE /people/:id                  delete and unlink
//	POST   /people/import?format=       bulk import (json or csv body)
//	POST   /people/:id/relatives        add a relative
//	GET    /people/:id/history?limit=   audit trail
//	POST   /algorithms/shortest-path    Dijkstra or Bellman-Ford
//	POST   /algorithms/spanning-tree    Prim or Kruskal
//	GET    /health
//	GET    /metrics
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	people := r.Group("/people")
	people.POST("", s.createPerson)
	people.GET("", s.listPeople)
	people.GET("/:id", s.getPerson)
	people.PUT("/:id", s.updatePerson)
	people.DELETE("/:id", s.deletePerson)
	people.POST("/import", s.importPeople)
	people.POST("/:id/relatives", s.addRelative)
	people.GET("/:id/history", s.history)

	algs := r.Group("/algorithms")
	algs.POST("/shortest-path", s.shortestPath)
	algs.POST("/spanning-tree", s.spanningTree)

	return r
}

func (s *Server) createPerson(c *gin.Context) {
	var patch entities.PersonPatch
	if !bind(c, &patch) {
		return
	}
	p, err := s.people.HandleCreate(c.Request.Context(), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) listPeople(c *gin.Context) {
	res, err := s.people.HandleList(c.Request.Context(), c.Query("scope"), c.Query("root"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getPerson(c *gin.Context) {
	p, err := s.people.HandleGet(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updatePerson(c *gin.Context) {
	var patch entities.PersonPatch
	if !bind(c, &patch) {
		return
	}
	p, err := s.people.HandleUpdate(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deletePerson(c *gin.Context) {
	if err := s.people.HandleDelete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) importPeople(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	dryRun, err := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dry_run must be a boolean"})
		return
	}
	res, err := s.importer.HandleReader(c.Request.Context(), c.Request.Body, handlers.ImportOptions{
		Format:     format,
		DryRun:     dryRun,
		OnConflict: c.Query("on_conflict"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

type addRelativeRequest struct {
	Relation string               `json:"relation"`
	Person   entities.PersonPatch `json:"person"`
}

func (s *Server) addRelative(c *gin.Context) {
	var req addRelativeRequest
	if !bind(c, &req) {
		return
	}
	p, err := s.people.HandleAddRelative(c.Request.Context(), c.Param("id"), req.Relation, req.Person)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) history(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	entries, err := s.people.HandleHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if entries == nil {
		entries = []entities.AuditEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) shortestPath(c *gin.Context) {
	var req services.ShortestPathRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.algorithms.HandleShortestPath(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) spanningTree(c *gin.Context) {
	var req services.SpanningTreeRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.algorithms.HandleSpanningTree(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	var verr *entities.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Error(), "invariant": int(verr.Invariant)}
		if verr.PersonID != "" {
			body["person_id"] = verr.PersonID
		}
		if len(verr.RelatedIDs) > 0 {
			body["related_ids"] = verr.RelatedIDs
		}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case entities.IsNotFound(err), errors.Is(err, graph.ErrNodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, graph.ErrEdgeNotFound),
		errors.Is(err, graph.ErrSelfLoop),
		errors.Is(err, algorithms.ErrNegativeWeight),
		errors.Is(err, services.ErrUnknownAlgorithm),
		errors.Is(err, handlers.ErrInvalidImport):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, handlers.ErrHistoryUnsupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
