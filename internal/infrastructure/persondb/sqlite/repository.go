// Package sqlite provides a SQLite implementation of the PersonStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

const memoryPath = ":memory:"

// Repository implements ports.PersonStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

var (
	_ ports.PersonStore = (*Repository)(nil)
	_ ports.AuditLog    = (*Repository)(nil)
)

// NewRepository opens the SQLite database at cfg.Path.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", dsn(cfg.Path))
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite database")
	}

	// Every connection to :memory: is a separate database.
	if cfg.Path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	// journal_mode is stored in the database file, so one connection is enough.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enabling WAL mode")
	}

	return newRepositoryFromDB(db, cfg.Path), nil
}

// connPragmas apply to every connection the pool opens.
var connPragmas = []string{"foreign_keys(1)", "busy_timeout(5000)"}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range connPragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

func newRepositoryFromDB(db *sql.DB, path string) *Repository {
	return &Repository{db: db, path: path}
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- People. Parent ids are not foreign keys: the consistency engine owns
	-- referential integrity and writes related rows in any order.
	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		gender TEXT NOT NULL DEFAULT 'unknown',
		birth_year INTEGER,
		death_year INTEGER,
		father_id TEXT,
		mother_id TEXT,
		contact TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_people_father ON people(father_id);
	CREATE INDEX IF NOT EXISTS idx_people_mother ON people(mother_id);

	-- Spouse sets, one row per (owner, spouse). Each pair appears twice.
	CREATE TABLE IF NOT EXISTS spouses (
		person_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		spouse_id TEXT NOT NULL,
		PRIMARY KEY (person_id, spouse_id)
	);
	CREATE INDEX IF NOT EXISTS idx_spouses_spouse ON spouses(spouse_id);

	-- Audit log (tracks every committed write)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		person_id TEXT NOT NULL,
		details TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_person ON audit_log(person_id);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "creating schema")
	}
	return nil
}

// View runs fn inside a transaction that is always rolled back.
func (r *Repository) View(ctx context.Context, fn func(ports.PersonReader) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning read transaction")
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	return fn(&txn{tx: tx})
}

// Update runs fn inside a write transaction and commits if fn succeeds.
func (r *Repository) Update(ctx context.Context, fn func(ports.PersonTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning write transaction")
	}

	if err := fn(&txn{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.CombineErrors(err, errors.Wrap(rbErr, "rolling back"))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

// History returns audit entries for a person, newest first.
func (r *Repository) History(ctx context.Context, personID string, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, action, person_id, details, created_at
		FROM audit_log
		WHERE person_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, personID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying audit log")
	}
	defer rows.Close()

	entries := make([]entities.AuditEntry, 0, limit)
	for rows.Next() {
		var entry entities.AuditEntry
		var details sql.NullString
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.Action, &entry.PersonID, &details, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scanning audit entry")
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, errors.Wrap(err, "unmarshaling details")
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// txn adapts a *sql.Tx to ports.PersonTx.
type txn struct {
	tx *sql.Tx
}

const personColumns = `id, name, gender, birth_year, death_year, father_id, mother_id, contact, image, created_at, updated_at`

func (t *txn) Get(ctx context.Context, id string) (*entities.Person, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying person")
	}

	rows, err := t.tx.QueryContext(ctx, `SELECT spouse_id FROM spouses WHERE person_id = ? ORDER BY spouse_id`, id)
	if err != nil {
		return nil, errors.Wrap(err, "querying spouses")
	}
	defer rows.Close()

	for rows.Next() {
		var spouseID string
		if err := rows.Scan(&spouseID); err != nil {
			return nil, errors.Wrap(err, "scanning spouse")
		}
		p.SpouseIDs = append(p.SpouseIDs, spouseID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating spouses")
	}
	return p, nil
}

func (t *txn) List(ctx context.Context) ([]entities.Person, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+personColumns+` FROM people ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying people")
	}
	defer rows.Close()

	var people []entities.Person
	index := make(map[string]int)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning person")
		}
		index[p.ID] = len(people)
		people = append(people, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating people")
	}

	spouseRows, err := t.tx.QueryContext(ctx, `SELECT person_id, spouse_id FROM spouses ORDER BY person_id, spouse_id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying spouses")
	}
	defer spouseRows.Close()

	for spouseRows.Next() {
		var personID, spouseID string
		if err := spouseRows.Scan(&personID, &spouseID); err != nil {
			return nil, errors.Wrap(err, "scanning spouse")
		}
		if i, ok := index[personID]; ok {
			people[i].SpouseIDs = append(people[i].SpouseIDs, spouseID)
		}
	}
	if err := spouseRows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating spouses")
	}
	return people, nil
}

func (t *txn) Put(ctx context.Context, person *entities.Person) error {
	query := `
		INSERT INTO people (` + personColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			gender = excluded.gender,
			birth_year = excluded.birth_year,
			death_year = excluded.death_year,
			father_id = excluded.father_id,
			mother_id = excluded.mother_id,
			contact = excluded.contact,
			image = excluded.image,
			updated_at = excluded.updated_at
	`
	_, err := t.tx.ExecContext(ctx, query,
		person.ID,
		person.Name,
		string(person.Gender),
		nullYear(person.BirthYear),
		nullYear(person.DeathYear),
		nullID(person.FatherID),
		nullID(person.MotherID),
		person.Contact,
		person.Image,
		formatTime(person.CreatedAt),
		formatTime(person.UpdatedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "saving person %s", person.ID)
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM spouses WHERE person_id = ?`, person.ID); err != nil {
		return errors.Wrap(err, "clearing spouses")
	}
	for _, spouseID := range person.SpouseIDs {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO spouses (person_id, spouse_id) VALUES (?, ?)`, person.ID, spouseID,
		); err != nil {
			return errors.Wrap(err, "saving spouse")
		}
	}

	return t.logAction(ctx, entities.AuditPut, person.ID, map[string]any{
		"name":       person.Name,
		"father_id":  person.FatherID,
		"mother_id":  person.MotherID,
		"spouse_ids": person.SpouseIDs,
	})
}

func (t *txn) Delete(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM spouses WHERE person_id = ?`, id); err != nil {
		return errors.Wrap(err, "deleting spouses")
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "deleting person %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}
	return t.logAction(ctx, entities.AuditDelete, id, nil)
}

func (t *txn) logAction(ctx context.Context, action, personID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return errors.Wrap(err, "marshaling details")
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, person_id, details, created_at) VALUES (?, ?, ?, ?)`
	if _, err := t.tx.ExecContext(ctx, query, action, personID, detailsJSON, formatTime(timeNow())); err != nil {
		return errors.Wrap(err, "logging action")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner) (*entities.Person, error) {
	var (
		p                    entities.Person
		gender               string
		birthYear, deathYear sql.NullInt64
		fatherID, motherID   sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(
		&p.ID,
		&p.Name,
		&gender,
		&birthYear,
		&deathYear,
		&fatherID,
		&motherID,
		&p.Contact,
		&p.Image,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	p.Gender = entities.Gender(gender)
	p.BirthYear = intPtr(birthYear)
	p.DeathYear = intPtr(deathYear)
	p.FatherID = fatherID.String
	p.MotherID = motherID.String
	p.SpouseIDs = []string{}

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func nullYear(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing timestamp %q", s)
	}
	return t, nil
}
