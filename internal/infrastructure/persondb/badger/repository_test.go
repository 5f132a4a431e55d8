package badger

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/infrastructure/config"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.BadgerConfig{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testPerson(id string) *entities.Person {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &entities.Person{
		ID:        id,
		Name:      "Person " + id,
		Gender:    entities.GenderMale,
		SpouseIDs: []string{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestNewRepository(t *testing.T) {
	t.Run("persistent needs a path", func(t *testing.T) {
		_, err := NewRepository(config.BadgerConfig{}, nil)
		require.Error(t, err)
	})

	t.Run("persistent on disk", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := NewRepository(config.BadgerConfig{Path: dir}, nil)
		require.NoError(t, err)

		ctx := context.Background()
		require.NoError(t, repo.Update(ctx, func(tx ports.PersonTx) error {
			return tx.Put(ctx, testPerson("a"))
		}))
		require.NoError(t, repo.Close())

		reopened, err := NewRepository(config.BadgerConfig{Path: dir}, nil)
		require.NoError(t, err)
		defer reopened.Close()

		require.NoError(t, reopened.View(ctx, func(r ports.PersonReader) error {
			p, err := r.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, testPerson("a"), p)
			return nil
		}))
	})
}

func TestRepository_RoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	birth := 1901
	a := testPerson("a")
	a.BirthYear = &birth
	a.MotherID = "m"
	a.SpouseIDs = []string{"b"}
	b := testPerson("b")
	b.SpouseIDs = []string{"a"}

	require.NoError(t, repo.Update(ctx, func(tx ports.PersonTx) error {
		if err := tx.Put(ctx, b); err != nil {
			return err
		}
		return tx.Put(ctx, a)
	}))

	require.NoError(t, repo.View(ctx, func(r ports.PersonReader) error {
		got, err := r.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, a, got)

		missing, err := r.Get(ctx, "zzz")
		require.NoError(t, err)
		assert.Nil(t, missing)

		people, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, people, 2)
		assert.Equal(t, "a", people[0].ID)
		assert.Equal(t, "b", people[1].ID)
		return nil
	}))
}

func TestRepository_UpdateRollsBack(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, func(tx ports.PersonTx) error {
		return tx.Put(ctx, testPerson("a"))
	}))

	boom := errors.New("boom")
	err := repo.Update(ctx, func(tx ports.PersonTx) error {
		require.NoError(t, tx.Put(ctx, testPerson("b")))
		require.NoError(t, tx.Delete(ctx, "a"))

		// Writes are visible inside the transaction.
		p, err := tx.Get(ctx, "a")
		require.NoError(t, err)
		assert.Nil(t, p)
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, repo.View(ctx, func(r ports.PersonReader) error {
		people, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, people, 1)
		assert.Equal(t, "a", people[0].ID)
		return nil
	}))
}

func TestRepository_CancelledContext(t *testing.T) {
	repo := setupTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Update(ctx, func(tx ports.PersonTx) error {
		return tx.Put(ctx, testPerson("a"))
	})
	assert.ErrorIs(t, err, context.Canceled)
}
