// Package badgerstore implements the shared store on an embedded badger
// database. Badger keeps every committed version of a key (ordered by commit
// timestamp), which gives the versioned-lock election its write history.
//
// A badger directory can only be opened by one process, so this backend
// serves single-host setups: the in-process fleet simulation, and a fleet of
// containers that delegates to one coordinator process.
package badgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/imamik/fleetboot/internal/store"
)

const writeIDLen = 16

// Store is a store.VersionedStore backed by badger.
type Store struct {
	db *badger.DB
}

var _ store.VersionedStore = (*Store)(nil)

// Open opens (or creates) a store at dir. An empty dir opens an in-memory
// database. History is never pruned.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithNumVersionsToKeep(math.MaxInt32).
		WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %q: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes value and returns the commit timestamp badger assigned to it.
// Every value is stored behind a random write ID so the write can be found
// again in the history after commit.
func (s *Store) Put(ctx context.Context, key string, value []byte) (store.Version, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.New()
	envelope := make([]byte, 0, writeIDLen+len(value))
	envelope = append(envelope, id[:]...)
	envelope = append(envelope, value...)

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), envelope)
	}); err != nil {
		return "", fmt.Errorf("failed to put %s: %w", key, err)
	}

	var version store.Version
	err := s.scan(key, func(item *badger.Item, raw []byte) bool {
		if bytes.Equal(raw[:writeIDLen], id[:]) {
			version = formatVersion(item.Version())
			return false
		}
		return true
	})
	if err != nil {
		return "", err
	}
	if version == "" {
		return "", fmt.Errorf("write %s to %s vanished from history", id, key)
	}
	return version, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(raw) < writeIDLen {
			return fmt.Errorf("corrupt value under %s", key)
		}
		out = raw[writeIDLen:]
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", key, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return out, nil
}

// ListVersions implements store.VersionedStore. Badger iterates versions
// newest first; the result is reversed to oldest first.
func (s *Store) ListVersions(ctx context.Context, key string) ([]store.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var newestFirst []store.Version
	err := s.scan(key, func(item *badger.Item, _ []byte) bool {
		newestFirst = append(newestFirst, formatVersion(item.Version()))
		return true
	})
	if err != nil {
		return nil, err
	}

	out := make([]store.Version, len(newestFirst))
	for i, v := range newestFirst {
		out[len(out)-1-i] = v
	}
	return out, nil
}

// scan visits every live version of key, newest first, until fn returns false.
func (s *Store) scan(key string, fn func(item *badger.Item, raw []byte) bool) error {
	k := []byte(key)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.AllVersions = true
		opts.Prefix = k
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(k); it.Valid(); it.Next() {
			item := it.Item()
			if !bytes.Equal(item.Key(), k) {
				break
			}
			if item.IsDeletedOrExpired() {
				continue
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if len(raw) < writeIDLen {
				continue
			}
			if !fn(item, raw) {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan history of %s: %w", key, err)
	}
	return nil
}

func formatVersion(ts uint64) store.Version {
	return store.Version(fmt.Sprintf("%020d", ts))
}
