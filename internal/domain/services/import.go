package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle people that already exist.
type ConflictStrategy string

const (
	// ConflictSkip skips people that already exist (by ID).
	ConflictSkip ConflictStrategy = "skip"
	// ConflictOverwrite replaces existing people with the imported data.
	ConflictOverwrite ConflictStrategy = "overwrite"
)

// errDryRun rolls back a dry-run import after validation.
var errDryRun = errors.New("dry run")

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle existing people
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Line    int    `json:"line,omitempty"` // Line number (1-indexed, 0 if unknown)
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	IDs      []string      `json:"ids"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// ImportPeople stores records with their own ids in one transaction.
//
// Records that fail field checks are reported in Errors and left out. The
// rest are committed together: spouse links are made symmetric, and if any
// relational invariant still fails (for example a parent id that is neither
// stored nor imported) the whole batch is rejected.
func (e *ConsistencyEngine) ImportPeople(
	ctx context.Context,
	records []parsers.RawPerson,
	opts ImportOptions,
) (*ImportResult, error) {
	if opts.OnConflict == "" {
		opts.OnConflict = ConflictSkip
	}

	batch, importErrs := e.convertRecords(records)
	result := &ImportResult{IDs: []string{}, Errors: importErrs}
	if len(batch) == 0 {
		return result, nil
	}

	inBatch := make(map[string]bool, len(batch))
	for _, p := range batch {
		inBatch[p.ID] = true
	}

	err := e.write(ctx, "import", func(w *workingSet) error {
		imported := make([]*entities.Person, 0, len(batch))
		for _, p := range batch {
			existing, err := w.get(p.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				if opts.OnConflict == ConflictSkip {
					result.Skipped++
					continue
				}
				p.CreatedAt = existing.CreatedAt
				// Spouses dropped by the import and not part of it let go
				// of p too.
				for _, id := range existing.SpouseIDs {
					if p.HasSpouse(id) || inBatch[id] {
						continue
					}
					sp, err := w.get(id)
					if err != nil {
						return err
					}
					if sp != nil {
						sp.RemoveSpouse(p.ID)
						w.touch(id)
					}
				}
			}
			w.add(p)
			imported = append(imported, p)
		}

		for _, p := range imported {
			for _, id := range p.SpouseIDs {
				sp, err := w.get(id)
				if err != nil {
					return err
				}
				if sp == nil || id == p.ID || sp.HasSpouse(p.ID) {
					continue
				}
				sp.AddSpouse(p.ID)
				w.touch(id)
			}
			result.IDs = append(result.IDs, p.ID)
		}
		result.Imported = len(imported)

		if opts.DryRun {
			if err := w.validate(); err != nil {
				return err
			}
			return errDryRun
		}
		return nil
	})
	if errors.Is(err, errDryRun) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// convertRecords turns raw records into people, collecting per-record errors.
func (e *ConsistencyEngine) convertRecords(records []parsers.RawPerson) ([]*entities.Person, []ImportError) {
	var (
		batch []*entities.Person
		errs  []ImportError
	)
	seen := make(map[string]int, len(records))

	for _, r := range records {
		p := &entities.Person{
			ID:        strings.TrimSpace(r.ID),
			Name:      strings.TrimSpace(r.Name),
			Gender:    entities.Gender(strings.ToLower(strings.TrimSpace(r.Gender))),
			BirthYear: r.BirthYear,
			DeathYear: r.DeathYear,
			FatherID:  r.FatherID,
			MotherID:  r.MotherID,
			SpouseIDs: r.SpouseIDs,
			Contact:   strings.TrimSpace(r.Contact),
			Image:     strings.TrimSpace(r.Image),
		}
		p.Normalize()

		switch {
		case p.Name == "":
			errs = append(errs, ImportError{Line: r.LineNum, Field: "name", Message: "name is required"})
			continue
		case !p.Gender.IsValid():
			errs = append(errs, ImportError{
				Line: r.LineNum, Field: "gender", Value: r.Gender,
				Message: fmt.Sprintf("invalid gender %q (valid: male, female, unknown)", r.Gender),
			})
			continue
		}

		if p.ID == "" {
			p.ID = e.newID()
		}
		if line, dup := seen[p.ID]; dup {
			errs = append(errs, ImportError{
				Line: r.LineNum, Field: "id", Value: p.ID,
				Message: fmt.Sprintf("duplicate id %s (first seen on line %d)", p.ID, line),
			})
			continue
		}
		seen[p.ID] = r.LineNum
		batch = append(batch, p)
	}
	return batch, errs
}
