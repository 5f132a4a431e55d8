package handlers

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ersonp/kinship/internal/domain/services"
	"github.com/ersonp/kinship/internal/infrastructure/metrics"
	"github.com/ersonp/kinship/internal/infrastructure/parsers"
)

// ErrInvalidImport marks import failures caused by the input rather than the
// store: an unknown format, a bad conflict strategy or an unparseable file.
var ErrInvalidImport = errors.New("invalid import")

// ImportHandler handles importing people from files.
type ImportHandler struct {
	engine  *services.ConsistencyEngine
	metrics *metrics.Metrics
}

// NewImportHandler creates a new import handler. m may be nil.
func NewImportHandler(engine *services.ConsistencyEngine, m *metrics.Metrics) *ImportHandler {
	return &ImportHandler{
		engine:  engine,
		metrics: m,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string // "json", "csv", or "auto"
	DryRun     bool   // Validate without saving
	OnConflict string // "skip" or "overwrite"
}

// Handle imports people from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}
	if parser == nil {
		return nil, errors.Mark(errors.Newf("unsupported format for file: %s", filePath), ErrInvalidImport)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer file.Close()

	return h.importFrom(ctx, parser, file, opts)
}

// HandleReader imports people from r in the given format ("json" or "csv").
func (h *ImportHandler) HandleReader(ctx context.Context, r io.Reader, opts ImportOptions) (*services.ImportResult, error) {
	parser := parsers.ForFormat(opts.Format)
	if parser == nil {
		return nil, errors.Mark(errors.Newf("unsupported format: %q (valid: json, csv)", opts.Format), ErrInvalidImport)
	}
	return h.importFrom(ctx, parser, r, opts)
}

func (h *ImportHandler) importFrom(
	ctx context.Context,
	parser parsers.Parser,
	r io.Reader,
	opts ImportOptions,
) (*services.ImportResult, error) {
	strategy, err := parseConflictStrategy(opts.OnConflict)
	if err != nil {
		return nil, err
	}

	records, err := parser.Parse(r)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parsing file"), ErrInvalidImport)
	}

	res, err := h.engine.ImportPeople(ctx, records, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: strategy,
	})
	if !opts.DryRun {
		h.metrics.ObserveMutation("import", result(err))
	}
	return res, err
}

func parseConflictStrategy(s string) (services.ConflictStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return services.ConflictSkip, nil
	case "overwrite":
		return services.ConflictOverwrite, nil
	default:
		return "", errors.Mark(errors.Newf("invalid on-conflict value %q (valid: skip, overwrite)", s), ErrInvalidImport)
	}
}
