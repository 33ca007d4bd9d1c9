// Package badgerstore provides a score.Backend on an embedded BadgerDB.
package badgerstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/phroun/score"
)

// DefaultPrefix namespaces score snapshots inside a shared database.
const DefaultPrefix = "score/"

// Config holds configuration for a Store.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in memory. Data is lost on Close.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Prefix is prepended to every key.
	Prefix string

	// Logger receives BadgerDB's internal logging. Nil silences it.
	Logger *slog.Logger
}

// DefaultConfig returns a durable on-disk configuration. Path must still be set.
func DefaultConfig() Config {
	return Config{
		SyncWrites: true,
		Prefix:     DefaultPrefix,
	}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{
		InMemory: true,
		Prefix:   DefaultPrefix,
	}
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is a score.Backend over BadgerDB. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	prefix string
}

var _ score.Backend = (*Store)(nil)

// New opens a Store. The caller must Close it.
func New(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badgerstore: path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Store{db: db, prefix: cfg.Prefix}, nil
}

// OpenInMemory opens an in-memory Store.
func OpenInMemory() (*Store, error) {
	return New(InMemoryConfig())
}

// OpenWithPath opens a durable Store at path.
func OpenWithPath(path string) (*Store, error) {
	cfg := DefaultConfig()
	cfg.Path = path
	return New(cfg)
}

func (s *Store) key(k string) []byte {
	return []byte(s.prefix + k)
}

// Get returns the blob stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", score.ErrNotFound, key)
	}
	return out, err
}

// Set stores data under key, replacing any previous value.
func (s *Store) Set(key string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(key), data)
	})
}

// Delete removes key. Deleting a missing key wraps score.ErrNotFound.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		k := s.key(key)
		if _, err := txn.Get(k); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", score.ErrNotFound, key)
			}
			return err
		}
		return txn.Delete(k)
	})
}

// Keys lists every stored key, without the prefix, in key order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(s.prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(s.prefix):]))
		}
		return nil
	})
	return keys, err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
