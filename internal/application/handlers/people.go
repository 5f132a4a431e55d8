package handlers

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/domain/services"
	"github.com/ersonp/kinship/internal/infrastructure/metrics"
)

// ErrHistoryUnsupported is returned when the store keeps no audit log.
var ErrHistoryUnsupported = errors.New("history is not recorded by this store")

// ValidRelationTypes lists all valid relation strings for AddRelative.
var ValidRelationTypes = []string{"father", "mother", "spouse", "child"}

// ValidScopes lists all valid scope strings.
var ValidScopes = []string{"full", "personal"}

// PersonHandler handles person operations.
type PersonHandler struct {
	engine  *services.ConsistencyEngine
	audit   ports.AuditLog
	metrics *metrics.Metrics
}

// NewPersonHandler creates a new PersonHandler. audit and m may be nil.
func NewPersonHandler(engine *services.ConsistencyEngine, audit ports.AuditLog, m *metrics.Metrics) *PersonHandler {
	return &PersonHandler{
		engine:  engine,
		audit:   audit,
		metrics: m,
	}
}

// ListResult contains the people in a scoped view.
type ListResult struct {
	Scope  entities.Scope    `json:"scope"`
	Root   string            `json:"root,omitempty"`
	People []entities.Person `json:"people"`
}

// HandleGet returns one person.
func (h *PersonHandler) HandleGet(ctx context.Context, id string) (*entities.Person, error) {
	return h.engine.GetPerson(ctx, id)
}

// HandleList returns the scoped view around root.
func (h *PersonHandler) HandleList(ctx context.Context, scope, root string) (*ListResult, error) {
	s, err := parseScope(scope)
	if err != nil {
		return nil, err
	}
	people, err := h.engine.ScopedView(ctx, root, s)
	if err != nil {
		return nil, err
	}
	if people == nil {
		people = []entities.Person{}
	}
	return &ListResult{Scope: s, Root: root, People: people}, nil
}

// HandleCreate stores a new person.
func (h *PersonHandler) HandleCreate(ctx context.Context, patch entities.PersonPatch) (*entities.Person, error) {
	p, err := h.engine.CreatePerson(ctx, patch)
	h.metrics.ObserveMutation("create", result(err))
	return p, err
}

// HandleUpdate applies patch to person id.
func (h *PersonHandler) HandleUpdate(ctx context.Context, id string, patch entities.PersonPatch) (*entities.Person, error) {
	p, err := h.engine.ApplyUpdate(ctx, id, patch)
	h.metrics.ObserveMutation("update", result(err))
	return p, err
}

// HandleDelete removes person id and every reference to it.
func (h *PersonHandler) HandleDelete(ctx context.Context, id string) error {
	err := h.engine.DeletePerson(ctx, id)
	h.metrics.ObserveMutation("delete", result(err))
	return err
}

// HandleAddRelative creates a person linked to rootID by relation.
func (h *PersonHandler) HandleAddRelative(
	ctx context.Context,
	rootID string,
	relation string,
	patch entities.PersonPatch,
) (*entities.Person, error) {
	rt, err := parseRelationType(relation)
	if err != nil {
		h.metrics.ObserveMutation("add_relative", metrics.ResultRejected)
		return nil, err
	}
	p, err := h.engine.AddRelative(ctx, rootID, rt, patch)
	h.metrics.ObserveMutation("add_relative", result(err))
	return p, err
}

// HandleHistory returns the audit trail for person id, newest first.
func (h *PersonHandler) HandleHistory(ctx context.Context, id string, limit int) ([]entities.AuditEntry, error) {
	if h.audit == nil {
		return nil, ErrHistoryUnsupported
	}
	entries, err := h.audit.History(ctx, id, limit)
	if err != nil {
		return nil, errors.Wrap(err, "reading history")
	}
	return entries, nil
}

func parseScope(s string) (entities.Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return entities.ScopeFull, nil
	case "personal":
		return entities.ScopePersonal, nil
	default:
		return "", entities.FieldError("", "scope",
			"invalid scope: "+s+" (valid: "+strings.Join(ValidScopes, ", ")+")")
	}
}

func parseRelationType(s string) (entities.RelationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "father":
		return entities.RelationFather, nil
	case "mother":
		return entities.RelationMother, nil
	case "spouse":
		return entities.RelationSpouse, nil
	case "child":
		return entities.RelationChild, nil
	default:
		return "", entities.FieldError("", "relation",
			"invalid relation: "+s+" (valid: "+strings.Join(ValidRelationTypes, ", ")+")")
	}
}

// result classifies err for metrics.
func result(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case entities.IsValidation(err):
		return metrics.ResultRejected
	case entities.IsNotFound(err):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}
