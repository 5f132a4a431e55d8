package a

import "context"

type Person struct{ ID string }

type PersonTx interface {
	Get(ctx context.Context, id string) (*Person, error)
	Put(ctx context.Context, p *Person) error
	Delete(ctx context.Context, id string) error
}

type cache struct{}

func (cache) Delete(id string) {}

func bad(ctx context.Context, tx PersonTx, p *Person) {
	tx.Put(ctx, p)       // want "PersonTx.Put outside the consistency engine"
	tx.Delete(ctx, p.ID) // want "PersonTx.Delete outside the consistency engine"
}

func good(ctx context.Context, tx PersonTx, c cache) {
	// Reads and unrelated Delete methods are fine.
	tx.Get(ctx, "a")
	c.Delete("a")
}
