// Package db defines the key-value storage interface the effect archive
// sits on.
package db

import "errors"

// ErrNotFound is returned by Get when the key does not exist. Implementations
// map their own not-found conditions to it.
var ErrNotFound = errors.New("db: key not found")

// KVStore is a key-value store with atomic batches and prefix scans.
type KVStore interface {
	Writer
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	NewBatch() Batch
	NewIterator(prefix []byte) (Iterator, error)
	Close() error
}

// Writer is the write half shared by stores and batches.
type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch is an atomic group of writes. Nothing becomes visible until Commit.
type Batch interface {
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// Iterator walks the keys sharing the prefix it was opened with, in key
// order. Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Close() error
}
