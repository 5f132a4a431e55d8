package services

import "context"

type Person struct{ ID string }

type PersonTx interface {
	Put(ctx context.Context, p *Person) error
}

func commit(ctx context.Context, tx PersonTx, p *Person) error {
	return tx.Put(ctx, p)
}
