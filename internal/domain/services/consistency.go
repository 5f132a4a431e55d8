package services

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
)

// ConsistencyEngine is the only writer of Person records. Every mutation is
// validated against the relational invariants and committed atomically.
type ConsistencyEngine struct {
	store  ports.PersonStore
	logger *zap.Logger

	// mu serializes writers so read-modify-write cycles never interleave.
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewConsistencyEngine creates a new ConsistencyEngine.
func NewConsistencyEngine(store ports.PersonStore, logger *zap.Logger) *ConsistencyEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsistencyEngine{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// GetPerson returns one person.
func (e *ConsistencyEngine) GetPerson(ctx context.Context, id string) (*entities.Person, error) {
	var person *entities.Person
	err := e.store.View(ctx, func(r ports.PersonReader) error {
		p, err := r.Get(ctx, id)
		if err != nil {
			return errors.Wrapf(err, "loading person %s", id)
		}
		if p == nil {
			return &entities.NotFoundError{ID: id}
		}
		person = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return person, nil
}

// ApplyUpdate merges patch onto person id. Spouses added to or removed from
// the spouse set are updated on the other side of each pair, and the whole
// change set is validated before anything is written.
func (e *ConsistencyEngine) ApplyUpdate(ctx context.Context, id string, patch entities.PersonPatch) (*entities.Person, error) {
	if err := patch.Validate(); err != nil {
		return nil, e.rejected("update", id, err)
	}

	var updated *entities.Person
	err := e.write(ctx, "update", func(w *workingSet) error {
		p, err := w.get(id)
		if err != nil {
			return err
		}
		if p == nil {
			return &entities.NotFoundError{ID: id}
		}

		before := append([]string(nil), p.SpouseIDs...)
		patch.ApplyTo(p)
		w.touch(id)
		if err := w.syncSpouses(p, before); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// CreatePerson stores a new person built from patch.
func (e *ConsistencyEngine) CreatePerson(ctx context.Context, patch entities.PersonPatch) (*entities.Person, error) {
	if err := validateNew(&patch); err != nil {
		return nil, e.rejected("create", "", err)
	}

	var created *entities.Person
	err := e.write(ctx, "create", func(w *workingSet) error {
		p := e.newPerson(patch)
		w.add(p)
		if err := w.syncSpouses(p, nil); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created.Clone(), nil
}

// AddRelative creates a person from patch and links them to rootID as the
// given relation, in one transaction.
func (e *ConsistencyEngine) AddRelative(
	ctx context.Context,
	rootID string,
	relation entities.RelationType,
	patch entities.PersonPatch,
) (*entities.Person, error) {
	if err := validateNew(&patch); err != nil {
		return nil, e.rejected("add relative", rootID, err)
	}

	var created *entities.Person
	err := e.write(ctx, "add relative", func(w *workingSet) error {
		root, err := w.get(rootID)
		if err != nil {
			return err
		}
		if root == nil {
			return &entities.NotFoundError{ID: rootID}
		}

		p := e.newPerson(patch)
		w.add(p)
		if err := w.syncSpouses(p, nil); err != nil {
			return err
		}

		switch relation {
		case entities.RelationFather, entities.RelationMother:
			want := entities.GenderMale
			if relation == entities.RelationMother {
				want = entities.GenderFemale
			}
			if p.Gender == entities.GenderUnknown {
				p.Gender = want
			}
			if p.Gender != want {
				return entities.FieldError(p.ID, "gender", "a "+string(relation)+" must be "+string(want))
			}
			if relation == entities.RelationFather {
				root.FatherID = p.ID
			} else {
				root.MotherID = p.ID
			}
			w.touch(rootID)
		case entities.RelationSpouse:
			p.AddSpouse(rootID)
			root.AddSpouse(p.ID)
			w.touch(rootID)
		case entities.RelationChild:
			switch root.Gender {
			case entities.GenderMale:
				p.FatherID = rootID
			case entities.GenderFemale:
				p.MotherID = rootID
			default:
				return entities.FieldError(rootID, "gender", "gender must be known to add a child")
			}
		default:
			return entities.FieldError("", "relation", "unknown relation "+string(relation))
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created.Clone(), nil
}

// DeletePerson removes id and strips every reference to it from the
// remaining people in the same transaction.
func (e *ConsistencyEngine) DeletePerson(ctx context.Context, id string) error {
	return e.write(ctx, "delete", func(w *workingSet) error {
		p, err := w.get(id)
		if err != nil {
			return err
		}
		if p == nil {
			return &entities.NotFoundError{ID: id}
		}

		people, err := w.tx.List(w.ctx)
		if err != nil {
			return errors.Wrap(err, "listing people")
		}
		for i := range people {
			other := &people[i]
			if other.ID == id || !other.References(id) {
				continue
			}
			q, err := w.get(other.ID)
			if err != nil {
				return err
			}
			q.Unlink(id)
			w.touch(q.ID)
		}

		if err := w.tx.Delete(w.ctx, id); err != nil {
			return errors.Wrapf(err, "deleting person %s", id)
		}
		w.people[id] = nil
		return nil
	})
}

// ScopedView returns people for display or graph building, ordered by id.
// ScopeFull returns everyone. ScopePersonal returns rootID with their
// parents, spouses and children, and prunes relationship fields that point
// outside that set.
func (e *ConsistencyEngine) ScopedView(ctx context.Context, rootID string, scope entities.Scope) ([]entities.Person, error) {
	if scope == "" {
		scope = entities.ScopeFull
	}
	if scope != entities.ScopeFull && scope != entities.ScopePersonal {
		return nil, entities.FieldError("", "scope", "unknown scope "+string(scope))
	}
	if scope == entities.ScopePersonal && rootID == "" {
		return nil, entities.FieldError("", "root", "personal scope needs a root")
	}

	var result []entities.Person
	err := e.store.View(ctx, func(r ports.PersonReader) error {
		people, err := r.List(ctx)
		if err != nil {
			return errors.Wrap(err, "listing people")
		}

		var root *entities.Person
		for i := range people {
			if people[i].ID == rootID {
				root = &people[i]
				break
			}
		}
		if rootID != "" && root == nil {
			return &entities.NotFoundError{ID: rootID}
		}

		if scope == entities.ScopeFull {
			result = people
			return nil
		}
		result = personalView(root, people)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func personalView(root *entities.Person, people []entities.Person) []entities.Person {
	members := map[string]bool{root.ID: true}
	if root.FatherID != "" {
		members[root.FatherID] = true
	}
	if root.MotherID != "" {
		members[root.MotherID] = true
	}
	for _, id := range root.SpouseIDs {
		members[id] = true
	}
	for i := range people {
		if people[i].IsChildOf(root.ID) {
			members[people[i].ID] = true
		}
	}

	view := make([]entities.Person, 0, len(members))
	for i := range people {
		p := people[i].Clone()
		if !members[p.ID] {
			continue
		}
		if !members[p.FatherID] {
			p.FatherID = ""
		}
		if !members[p.MotherID] {
			p.MotherID = ""
		}
		spouses := p.SpouseIDs[:0]
		for _, id := range p.SpouseIDs {
			if members[id] {
				spouses = append(spouses, id)
			}
		}
		p.SpouseIDs = spouses
		view = append(view, *p)
	}
	return view
}

// write runs fn under the engine lock inside one store transaction, then
// validates and commits the working set.
func (e *ConsistencyEngine) write(ctx context.Context, op string, fn func(*workingSet) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var written []string
	err := e.store.Update(ctx, func(tx ports.PersonTx) error {
		w := newWorkingSet(ctx, tx)
		if err := fn(w); err != nil {
			return err
		}
		if err := w.validate(); err != nil {
			return err
		}
		var err error
		written, err = w.commit(e.now().UTC())
		return err
	})
	if errors.Is(err, errDryRun) {
		return err
	}
	if err != nil {
		return e.rejected(op, "", err)
	}

	e.logger.Info("committed mutation",
		zap.String("op", op),
		zap.Strings("written", written),
	)
	return nil
}

func (e *ConsistencyEngine) rejected(op, id string, err error) error {
	if entities.IsValidation(err) || entities.IsNotFound(err) {
		e.logger.Debug("rejected mutation",
			zap.String("op", op),
			zap.String("id", id),
			zap.Error(err),
		)
		return err
	}
	e.logger.Error("mutation failed", zap.String("op", op), zap.Error(err))
	return errors.Wrapf(err, "%s", op)
}

func (e *ConsistencyEngine) newPerson(patch entities.PersonPatch) *entities.Person {
	p := &entities.Person{ID: e.newID(), SpouseIDs: []string{}}
	patch.ApplyTo(p)
	return p
}

func validateNew(patch *entities.PersonPatch) error {
	if patch.Name == nil {
		return entities.FieldError("", "name", "name is required")
	}
	return patch.Validate()
}
