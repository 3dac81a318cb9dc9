package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/glimmerco/glimmer/pkg/db"
)

// Iterator walks the keys under one prefix in ascending order.
type Iterator struct {
	iter    *pebble.Iterator
	started bool
	closed  bool
}

func (p *KVStore) NewIterator(prefix []byte) (db.Iterator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixSuccessor(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("creating iterator: %w", err)
	}
	return &Iterator{iter: iter}, nil
}

// prefixSuccessor returns the smallest key greater than every key carrying
// the prefix, or nil (no upper bound) when the prefix is empty or all 0xFF.
func prefixSuccessor(prefix []byte) []byte {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] != 0xFF {
			succ := make([]byte, i+1)
			copy(succ, prefix[:i+1])
			succ[i]++
			return succ
		}
	}
	return nil
}

func (it *Iterator) Next() bool {
	if it.closed {
		return false
	}
	if !it.started {
		it.started = true
		return it.iter.First()
	}
	return it.iter.Next()
}

func (it *Iterator) Key() []byte {
	key := it.iter.Key()
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

func (it *Iterator) Value() ([]byte, error) {
	val, err := it.iter.ValueAndErr()
	if err != nil {
		return nil, fmt.Errorf("reading iterator value: %w", err)
	}
	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.iter.Close()
}
