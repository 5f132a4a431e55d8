package services

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
)

// workingSet caches the people a single write transaction reads and
// modifies. Nothing reaches the store until commit.
type workingSet struct {
	ctx context.Context
	tx  ports.PersonTx

	// people holds the working copy of every loaded id; a nil value means
	// the id does not exist.
	people map[string]*entities.Person
	// original holds the state as loaded, nil for people created in this
	// transaction.
	original map[string]*entities.Person
	touched  map[string]bool
}

func newWorkingSet(ctx context.Context, tx ports.PersonTx) *workingSet {
	return &workingSet{
		ctx:      ctx,
		tx:       tx,
		people:   make(map[string]*entities.Person),
		original: make(map[string]*entities.Person),
		touched:  make(map[string]bool),
	}
}

// get loads id once and returns the working copy, or nil if it is missing.
func (w *workingSet) get(id string) (*entities.Person, error) {
	if id == "" {
		return nil, nil
	}
	if p, ok := w.people[id]; ok {
		return p, nil
	}
	p, err := w.tx.Get(w.ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "loading person %s", id)
	}
	w.people[id] = p
	if p != nil {
		w.original[id] = p.Clone()
	}
	return p, nil
}

// add registers a person created in this transaction.
func (w *workingSet) add(p *entities.Person) {
	w.people[p.ID] = p
	w.touched[p.ID] = true
}

func (w *workingSet) touch(id string) {
	w.touched[id] = true
}

// lookup serves validation from the working copies only. Call preload first.
func (w *workingSet) lookup(id string) *entities.Person {
	return w.people[id]
}

// preload pulls in every person the touched set refers to so that
// validation sees referenced people as they will be after commit.
func (w *workingSet) preload() error {
	for _, id := range w.touchedIDs() {
		p := w.people[id]
		if p == nil {
			continue
		}
		refs := append([]string{p.FatherID, p.MotherID}, p.SpouseIDs...)
		for _, ref := range refs {
			if _, err := w.get(ref); err != nil {
				return err
			}
		}
	}
	return nil
}

// validate checks every invariant on each touched person.
func (w *workingSet) validate() error {
	if err := w.preload(); err != nil {
		return err
	}
	for _, id := range w.touchedIDs() {
		p := w.people[id]
		if p == nil {
			continue
		}
		if err := entities.Validate(p, w.lookup); err != nil {
			return err
		}
	}
	return nil
}

// commit writes every touched person whose state changed and returns the
// ids written.
func (w *workingSet) commit(now time.Time) ([]string, error) {
	var written []string
	for _, id := range w.touchedIDs() {
		p := w.people[id]
		if p == nil {
			continue
		}
		orig := w.original[id]
		if orig != nil && orig.SameState(p) {
			continue
		}
		if orig == nil && p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		if err := w.tx.Put(w.ctx, p); err != nil {
			return nil, errors.Wrapf(err, "saving person %s", id)
		}
		written = append(written, id)
	}
	return written, nil
}

func (w *workingSet) touchedIDs() []string {
	return slices.Sorted(maps.Keys(w.touched))
}

// syncSpouses mirrors changes to p's spouse set onto the other side of each
// pair. Spouses that do not exist are left for validation to report.
func (w *workingSet) syncSpouses(p *entities.Person, before []string) error {
	for _, id := range p.SpouseIDs {
		if slices.Contains(before, id) || id == p.ID {
			continue
		}
		sp, err := w.get(id)
		if err != nil {
			return err
		}
		if sp == nil {
			continue
		}
		sp.AddSpouse(p.ID)
		w.touch(id)
	}
	for _, id := range before {
		if p.HasSpouse(id) {
			continue
		}
		sp, err := w.get(id)
		if err != nil {
			return err
		}
		if sp == nil {
			continue
		}
		sp.RemoveSpouse(p.ID)
		w.touch(id)
	}
	return nil
}
