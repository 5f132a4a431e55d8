package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/mocks"
)

func strPtr(s string) *string { return &s }

func genderPtr(g entities.Gender) *entities.Gender { return &g }

func spouses(ids ...string) *[]string { return &ids }

func newTestEngine(t *testing.T, people ...entities.Person) (*ConsistencyEngine, *mocks.PersonStore) {
	t.Helper()
	store := mocks.NewPersonStore(people...)
	engine := NewConsistencyEngine(store, nil)
	seq := 0
	engine.newID = func() string {
		seq++
		return "new-" + string(rune('0'+seq))
	}
	engine.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return engine, store
}

func find(t *testing.T, people []entities.Person, id string) entities.Person {
	t.Helper()
	for _, p := range people {
		if p.ID == id {
			return p
		}
	}
	require.Failf(t, "person missing", "no person %s", id)
	return entities.Person{}
}

func ids(people []entities.Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.ID
	}
	return out
}

func TestApplyUpdate_RejectsSelfParent(t *testing.T) {
	engine, store := newTestEngine(t, entities.Person{ID: "p", Name: "P"})
	before := store.Snapshot()

	_, err := engine.ApplyUpdate(context.Background(), "p", entities.PersonPatch{FatherID: entities.Some("p")})

	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, entities.InvariantNoSelfParent, verr.Invariant)
	assert.Equal(t, "p", verr.PersonID)
	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, 0, store.CommitCount)
}

func TestApplyUpdate_InvariantViolations(t *testing.T) {
	seed := []entities.Person{
		{ID: "a", Name: "A", Gender: entities.GenderMale},
		{ID: "b", Name: "B", Gender: entities.GenderFemale},
		{ID: "c", Name: "C", FatherID: "a"},
	}

	tests := []struct {
		name      string
		id        string
		patch     entities.PersonPatch
		invariant entities.Invariant
	}{
		{
			name:      "same father and mother",
			id:        "c",
			patch:     entities.PersonPatch{MotherID: entities.Some("a")},
			invariant: entities.InvariantDistinctParents,
		},
		{
			name:      "own spouse",
			id:        "a",
			patch:     entities.PersonPatch{SpouseIDs: spouses("a")},
			invariant: entities.InvariantNoSelfMarriage,
		},
		{
			name:      "marrying own child",
			id:        "a",
			patch:     entities.PersonPatch{SpouseIDs: spouses("c")},
			invariant: entities.InvariantParentNotSpouse,
		},
		{
			name:      "missing father",
			id:        "b",
			patch:     entities.PersonPatch{FatherID: entities.Some("ghost")},
			invariant: entities.InvariantReferentialIntegrity,
		},
		{
			name:      "missing spouse",
			id:        "b",
			patch:     entities.PersonPatch{SpouseIDs: spouses("ghost")},
			invariant: entities.InvariantReferentialIntegrity,
		},
		{
			name:      "blank name",
			id:        "b",
			patch:     entities.PersonPatch{Name: strPtr("  ")},
			invariant: entities.InvariantField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, store := newTestEngine(t, seed...)
			before := store.Snapshot()

			_, err := engine.ApplyUpdate(context.Background(), tt.id, tt.patch)

			var verr *entities.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.invariant, verr.Invariant, verr.Error())
			assert.True(t, errors.Is(err, entities.ErrValidation))
			assert.Equal(t, before, store.Snapshot())
		})
	}
}

func TestApplyUpdate_NotFound(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.ApplyUpdate(context.Background(), "nobody", entities.PersonPatch{Name: strPtr("X")})
	assert.True(t, entities.IsNotFound(err))
}

func TestApplyUpdate_SpouseSync(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t,
		entities.Person{ID: "a", Name: "A"},
		entities.Person{ID: "b", Name: "B"},
		entities.Person{ID: "c", Name: "C"},
	)

	updated, err := engine.ApplyUpdate(ctx, "a", entities.PersonPatch{SpouseIDs: spouses("b", "c", "b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, updated.SpouseIDs)

	people := store.Snapshot()
	assert.Equal(t, []string{"a"}, find(t, people, "b").SpouseIDs)
	assert.Equal(t, []string{"a"}, find(t, people, "c").SpouseIDs)

	_, err = engine.ApplyUpdate(ctx, "a", entities.PersonPatch{SpouseIDs: spouses("c")})
	require.NoError(t, err)

	people = store.Snapshot()
	assert.Empty(t, find(t, people, "b").SpouseIDs)
	assert.Equal(t, []string{"a"}, find(t, people, "c").SpouseIDs)
	assert.Equal(t, []string{"c"}, find(t, people, "a").SpouseIDs)
}

func TestApplyUpdate_ConcurrentReciprocalSpouses(t *testing.T) {
	engine, store := newTestEngine(t,
		entities.Person{ID: "a", Name: "A"},
		entities.Person{ID: "b", Name: "B"},
	)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = engine.ApplyUpdate(context.Background(), pair[0], entities.PersonPatch{SpouseIDs: spouses(pair[1])})
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	people := store.Snapshot()
	assert.Equal(t, []string{"b"}, find(t, people, "a").SpouseIDs)
	assert.Equal(t, []string{"a"}, find(t, people, "b").SpouseIDs)
}

func TestApplyUpdate_Idempotent(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, entities.Person{ID: "a", Name: "A"})
	patch := entities.PersonPatch{Name: strPtr("Alice"), BirthYear: entities.Some(1950)}

	first, err := engine.ApplyUpdate(ctx, "a", patch)
	require.NoError(t, err)

	engine.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	second, err := engine.ApplyUpdate(ctx, "a", patch)
	require.NoError(t, err)

	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, first.UpdatedAt, find(t, store.Snapshot(), "a").UpdatedAt)
}

func TestApplyUpdate_NullClearsField(t *testing.T) {
	birth := 1900
	engine, _ := newTestEngine(t,
		entities.Person{ID: "f", Name: "F"},
		entities.Person{ID: "a", Name: "A", FatherID: "f", BirthYear: &birth},
	)

	updated, err := engine.ApplyUpdate(context.Background(), "a", entities.PersonPatch{
		FatherID:  entities.Null[string](),
		BirthYear: entities.Null[int](),
	})
	require.NoError(t, err)
	assert.Empty(t, updated.FatherID)
	assert.Nil(t, updated.BirthYear)
	assert.Equal(t, "A", updated.Name)
}

func TestApplyUpdate_RollsBackOnStoreError(t *testing.T) {
	engine, store := newTestEngine(t,
		entities.Person{ID: "a", Name: "A"},
		entities.Person{ID: "b", Name: "B"},
	)
	before := store.Snapshot()
	store.PutErr = errors.New("disk full")

	_, err := engine.ApplyUpdate(context.Background(), "a", entities.PersonPatch{SpouseIDs: spouses("b")})
	require.Error(t, err)
	assert.False(t, entities.IsValidation(err))
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, before, store.Snapshot())
}

func TestDeletePerson_Cascade(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t,
		entities.Person{ID: "f", Name: "F", Gender: entities.GenderMale, SpouseIDs: []string{"m"}},
		entities.Person{ID: "m", Name: "M", Gender: entities.GenderFemale, SpouseIDs: []string{"f"}},
		entities.Person{ID: "c", Name: "C", FatherID: "f", MotherID: "m"},
	)

	require.NoError(t, engine.DeletePerson(ctx, "f"))

	people := store.Snapshot()
	assert.Equal(t, []string{"c", "m"}, ids(people))
	for _, p := range people {
		assert.False(t, p.References("f"), "%s still references f", p.ID)
	}
	assert.Equal(t, "m", find(t, people, "c").MotherID)

	err := engine.DeletePerson(ctx, "f")
	assert.True(t, entities.IsNotFound(err))
}

func TestScopedView(t *testing.T) {
	seed := []entities.Person{
		{ID: "gf", Name: "Grandfather", Gender: entities.GenderMale, SpouseIDs: []string{"gm"}},
		{ID: "gm", Name: "Grandmother", Gender: entities.GenderFemale, SpouseIDs: []string{"gf"}},
		{ID: "root", Name: "Root", Gender: entities.GenderMale, FatherID: "gf", SpouseIDs: []string{"wife"}},
		{ID: "wife", Name: "Wife", Gender: entities.GenderFemale, SpouseIDs: []string{"root"}},
		{ID: "ours", Name: "Ours", FatherID: "root", MotherID: "wife"},
		{ID: "hers", Name: "Hers", FatherID: "other", MotherID: "wife"},
		{ID: "other", Name: "Other", Gender: entities.GenderMale},
	}
	engine, _ := newTestEngine(t, seed...)
	ctx := context.Background()

	t.Run("full", func(t *testing.T) {
		people, err := engine.ScopedView(ctx, "", entities.ScopeFull)
		require.NoError(t, err)
		assert.Len(t, people, len(seed))
	})

	t.Run("personal excludes step-children", func(t *testing.T) {
		people, err := engine.ScopedView(ctx, "root", entities.ScopePersonal)
		require.NoError(t, err)
		assert.Equal(t, []string{"gf", "ours", "root", "wife"}, ids(people))

		assert.Empty(t, find(t, people, "gf").SpouseIDs, "grandmother is outside the view")
		assert.Equal(t, "gf", find(t, people, "root").FatherID)
		assert.Equal(t, []string{"root"}, find(t, people, "wife").SpouseIDs)
	})

	t.Run("unknown root", func(t *testing.T) {
		_, err := engine.ScopedView(ctx, "ghost", entities.ScopePersonal)
		assert.True(t, entities.IsNotFound(err))
	})

	t.Run("unknown scope", func(t *testing.T) {
		_, err := engine.ScopedView(ctx, "root", entities.Scope("cousins"))
		assert.True(t, entities.IsValidation(err))
	})
}

func TestCreatePerson(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t, entities.Person{ID: "a", Name: "A"})

	p, err := engine.CreatePerson(ctx, entities.PersonPatch{Name: strPtr(" Bea "), SpouseIDs: spouses("a")})
	require.NoError(t, err)
	assert.Equal(t, "new-1", p.ID)
	assert.Equal(t, "Bea", p.Name)
	assert.Equal(t, entities.GenderUnknown, p.Gender)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, []string{"new-1"}, find(t, store.Snapshot(), "a").SpouseIDs)

	_, err = engine.CreatePerson(ctx, entities.PersonPatch{})
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestAddRelative(t *testing.T) {
	seed := []entities.Person{
		{ID: "man", Name: "Man", Gender: entities.GenderMale},
		{ID: "woman", Name: "Woman", Gender: entities.GenderFemale},
		{ID: "anon", Name: "Anon"},
	}

	tests := []struct {
		name     string
		root     string
		relation entities.RelationType
		patch    entities.PersonPatch
		check    func(t *testing.T, created entities.Person, people []entities.Person)
		wantErr  string
	}{
		{
			name:     "father",
			root:     "anon",
			relation: entities.RelationFather,
			patch:    entities.PersonPatch{Name: strPtr("Dad")},
			check: func(t *testing.T, created entities.Person, people []entities.Person) {
				assert.Equal(t, entities.GenderMale, created.Gender)
				assert.Equal(t, created.ID, find(t, people, "anon").FatherID)
			},
		},
		{
			name:     "mother",
			root:     "anon",
			relation: entities.RelationMother,
			patch:    entities.PersonPatch{Name: strPtr("Mum")},
			check: func(t *testing.T, created entities.Person, people []entities.Person) {
				assert.Equal(t, entities.GenderFemale, created.Gender)
				assert.Equal(t, created.ID, find(t, people, "anon").MotherID)
			},
		},
		{
			name:     "spouse",
			root:     "man",
			relation: entities.RelationSpouse,
			patch:    entities.PersonPatch{Name: strPtr("Partner")},
			check: func(t *testing.T, created entities.Person, people []entities.Person) {
				assert.Equal(t, []string{"man"}, created.SpouseIDs)
				assert.Equal(t, []string{created.ID}, find(t, people, "man").SpouseIDs)
			},
		},
		{
			name:     "child of father",
			root:     "man",
			relation: entities.RelationChild,
			patch:    entities.PersonPatch{Name: strPtr("Kid")},
			check: func(t *testing.T, created entities.Person, _ []entities.Person) {
				assert.Equal(t, "man", created.FatherID)
				assert.Empty(t, created.MotherID)
			},
		},
		{
			name:     "child of mother",
			root:     "woman",
			relation: entities.RelationChild,
			patch:    entities.PersonPatch{Name: strPtr("Kid")},
			check: func(t *testing.T, created entities.Person, _ []entities.Person) {
				assert.Equal(t, "woman", created.MotherID)
			},
		},
		{
			name:     "child of unknown gender",
			root:     "anon",
			relation: entities.RelationChild,
			patch:    entities.PersonPatch{Name: strPtr("Kid")},
			wantErr:  "gender",
		},
		{
			name:     "male mother",
			root:     "anon",
			relation: entities.RelationMother,
			patch:    entities.PersonPatch{Name: strPtr("Mum"), Gender: genderPtr(entities.GenderMale)},
			wantErr:  "gender",
		},
		{
			name:     "unknown relation",
			root:     "anon",
			relation: entities.RelationType("cousin"),
			patch:    entities.PersonPatch{Name: strPtr("Cuz")},
			wantErr:  "relation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, store := newTestEngine(t, seed...)
			before := store.Snapshot()

			created, err := engine.AddRelative(context.Background(), tt.root, tt.relation, tt.patch)
			if tt.wantErr != "" {
				var verr *entities.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantErr, verr.Field)
				assert.Equal(t, before, store.Snapshot())
				return
			}
			require.NoError(t, err)
			people := store.Snapshot()
			assert.Len(t, people, len(seed)+1)
			tt.check(t, *created, people)
		})
	}
}

func TestAddRelative_UnknownRoot(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.AddRelative(context.Background(), "ghost", entities.RelationSpouse, entities.PersonPatch{Name: strPtr("X")})
	assert.True(t, entities.IsNotFound(err))
}
