// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
)

// PersonStore is an in-memory implementation of ports.PersonStore.
// Update works on a copy of the state and swaps it in on success, so a
// failing transaction leaves nothing behind.
type PersonStore struct {
	mu     sync.RWMutex
	people map[string]*entities.Person

	// GetErr, ListErr, PutErr and DeleteErr are returned by the matching
	// transaction methods when set.
	GetErr    error
	ListErr   error
	PutErr    error
	DeleteErr error

	// Call tracking
	UpdateCallCount int
	CommitCount     int
}

// NewPersonStore creates a store seeded with the given people.
func NewPersonStore(people ...entities.Person) *PersonStore {
	s := &PersonStore{people: make(map[string]*entities.Person, len(people))}
	for i := range people {
		p := people[i].Clone()
		p.Normalize()
		s.people[p.ID] = p
	}
	return s
}

// View runs fn against the current state under a read lock.
func (s *PersonStore) View(ctx context.Context, fn func(ports.PersonReader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{store: s, people: s.people})
}

// Update runs fn against a private copy and commits it if fn succeeds.
func (s *PersonStore) Update(ctx context.Context, fn func(ports.PersonTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdateCallCount++

	working := make(map[string]*entities.Person, len(s.people))
	for id, p := range s.people {
		working[id] = p.Clone()
	}
	if err := fn(&memTx{store: s, people: working}); err != nil {
		return err
	}
	s.people = working
	s.CommitCount++
	return nil
}

// Close is a no-op.
func (s *PersonStore) Close() error {
	return nil
}

// Snapshot returns a copy of every stored person ordered by id.
func (s *PersonStore) Snapshot() []entities.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedPeople(s.people)
}

type memTx struct {
	store  *PersonStore
	people map[string]*entities.Person
}

func (t *memTx) Get(_ context.Context, id string) (*entities.Person, error) {
	if t.store.GetErr != nil {
		return nil, t.store.GetErr
	}
	p, ok := t.people[id]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (t *memTx) List(_ context.Context) ([]entities.Person, error) {
	if t.store.ListErr != nil {
		return nil, t.store.ListErr
	}
	return sortedPeople(t.people), nil
}

func (t *memTx) Put(_ context.Context, person *entities.Person) error {
	if t.store.PutErr != nil {
		return t.store.PutErr
	}
	t.people[person.ID] = person.Clone()
	return nil
}

func (t *memTx) Delete(_ context.Context, id string) error {
	if t.store.DeleteErr != nil {
		return t.store.DeleteErr
	}
	delete(t.people, id)
	return nil
}

func sortedPeople(people map[string]*entities.Person) []entities.Person {
	ids := slices.Sorted(maps.Keys(people))
	result := make([]entities.Person, 0, len(ids))
	for _, id := range ids {
		result = append(result, *people[id].Clone())
	}
	return result
}
