// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/kinship/internal/domain/entities"
)

// PersonReader reads people from a consistent snapshot.
type PersonReader interface {
	// Get returns the person with the given id, or nil if none exists.
	Get(ctx context.Context, id string) (*entities.Person, error)

	// List returns every person ordered by id.
	List(ctx context.Context) ([]entities.Person, error)
}

// PersonTx is a read-write view that commits or rolls back as one unit.
type PersonTx interface {
	PersonReader

	// Put inserts or replaces a person.
	Put(ctx context.Context, person *entities.Person) error

	// Delete removes a person. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// PersonStore is the durable home of Person records.
type PersonStore interface {
	// View runs fn against a read-only snapshot.
	View(ctx context.Context, fn func(PersonReader) error) error

	// Update runs fn inside a write transaction. Every write made through
	// the PersonTx is committed if fn returns nil and discarded otherwise.
	Update(ctx context.Context, fn func(PersonTx) error) error

	// Close releases the underlying storage.
	Close() error
}

// AuditLog is implemented by stores that record every committed write.
type AuditLog interface {
	// History returns the entries for personID, newest first.
	History(ctx context.Context, personID string, limit int) ([]entities.AuditEntry, error)
}
