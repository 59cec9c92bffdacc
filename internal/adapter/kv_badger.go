package adapter

import (
	"context"
	"errors"
	"fmt"

	"book-catalogue/internal/core/model"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKV stores the cache slots in an embedded Badger database.
type BadgerKV struct {
	db *badger.DB
}

// OpenBadgerKV opens (or creates) a database in dir. An empty dir opens an
// in-memory database.
func OpenBadgerKV(dir string) (*BadgerKV, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %w", model.ErrStorage, err)
	}
	return &BadgerKV{db: db}, nil
}

func (b *BadgerKV) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: badger get %s: %w", model.ErrStorage, key, err)
	}
	return out, nil
}

func (b *BadgerKV) Set(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("%w: badger set %s: %w", model.ErrStorage, key, err)
	}
	return nil
}

func (b *BadgerKV) Close() error {
	return b.db.Close()
}
