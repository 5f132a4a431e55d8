// Package badger provides a BadgerDB implementation of the PersonStore
// interface. People are stored as JSON under "person/<id>"; Badger keeps keys
// sorted, so a prefix scan lists people in id order.
package badger

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/infrastructure/config"
)

const (
	personPrefix = "person/"

	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.5
)

// Repository implements ports.PersonStore using BadgerDB.
type Repository struct {
	db     *badger.DB
	logger *zap.Logger
	stopGC chan struct{}
	gcDone chan struct{}
}

var _ ports.PersonStore = (*Repository)(nil)

// zapLogger adapts zap to badger.Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, args ...any)   { l.s.Errorf(format, args...) }
func (l zapLogger) Warningf(format string, args ...any) { l.s.Warnf(format, args...) }
func (l zapLogger) Infof(format string, args ...any)    { l.s.Debugf(format, args...) }
func (l zapLogger) Debugf(format string, args ...any)   { l.s.Debugf(format, args...) }

// NewRepository opens a Badger database. A persistent database also gets a
// background value-log GC loop that stops on Close.
func NewRepository(cfg config.BadgerConfig, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for a persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, errors.Wrapf(err, "creating database directory %s", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.
		WithNumVersionsToKeep(1).
		WithLogger(zapLogger{s: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening badger database")
	}

	r := &Repository{db: db, logger: logger}
	if !cfg.InMemory {
		r.stopGC = make(chan struct{})
		r.gcDone = make(chan struct{})
		go r.runGC()
	}
	return r, nil
}

func (r *Repository) runGC() {
	defer close(r.gcDone)

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopGC:
			return
		case <-ticker.C:
			// ErrNoRewrite means there was nothing to collect.
			if err := r.db.RunValueLogGC(gcDiscardRatio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				r.logger.Warn("badger value log GC failed", zap.Error(err))
			}
		}
	}
}

// Close stops the GC loop and closes the database.
func (r *Repository) Close() error {
	if r.stopGC != nil {
		close(r.stopGC)
		<-r.gcDone
	}
	return r.db.Close()
}

// View runs fn against a read-only snapshot.
func (r *Repository) View(ctx context.Context, fn func(ports.PersonReader) error) error {
	return r.db.View(func(txn *badger.Txn) error {
		return fn(&tx{txn: txn})
	})
}

// Update runs fn in a read-write transaction. Badger commits when fn
// returns nil and discards every write otherwise.
func (r *Repository) Update(ctx context.Context, fn func(ports.PersonTx) error) error {
	var fnErr error
	err := r.db.Update(func(txn *badger.Txn) error {
		fnErr = fn(&tx{txn: txn})
		return fnErr
	})
	if err != nil && fnErr == nil {
		return errors.Wrap(err, "committing transaction")
	}
	return err
}

type tx struct {
	txn *badger.Txn
}

func personKey(id string) []byte {
	return []byte(personPrefix + id)
}

func (t *tx) Get(ctx context.Context, id string) (*entities.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	item, err := t.txn.Get(personKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading person %s", id)
	}

	var p entities.Person
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	}); err != nil {
		return nil, errors.Wrapf(err, "decoding person %s", id)
	}
	if p.SpouseIDs == nil {
		p.SpouseIDs = []string{}
	}
	return &p, nil
}

func (t *tx) List(ctx context.Context) ([]entities.Person, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(personPrefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()

	var people []entities.Person
	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := it.Item()
		var p entities.Person
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		}); err != nil {
			return nil, errors.Wrapf(err, "decoding %s", item.Key())
		}
		if p.SpouseIDs == nil {
			p.SpouseIDs = []string{}
		}
		people = append(people, p)
	}
	return people, nil
}

func (t *tx) Put(ctx context.Context, person *entities.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(person)
	if err != nil {
		return errors.Wrapf(err, "encoding person %s", person.ID)
	}
	if err := t.txn.Set(personKey(person.ID), data); err != nil {
		return errors.Wrapf(err, "saving person %s", person.ID)
	}
	return nil
}

func (t *tx) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.txn.Delete(personKey(id)); err != nil {
		return errors.Wrapf(err, "deleting person %s", id)
	}
	return nil
}
