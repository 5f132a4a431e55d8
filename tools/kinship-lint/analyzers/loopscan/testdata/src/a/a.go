package a

import "context"

type Person struct{ ID string }

type PersonReader interface {
	Get(ctx context.Context, id string) (*Person, error)
	List(ctx context.Context) ([]Person, error)
}

func bad(ctx context.Context, r PersonReader, ids []string) {
	for range ids {
		r.List(ctx) // want "List called inside loop reads every person"
	}
	for i := 0; i < len(ids); i++ {
		for range ids {
			r.List(ctx) // want "List called inside loop reads every person"
		}
	}
}

func good(ctx context.Context, r PersonReader, ids []string) {
	people, _ := r.List(ctx)
	for _, id := range ids {
		r.Get(ctx, id)
	}
	_ = people
}
