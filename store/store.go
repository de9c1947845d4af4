// Package store implements the concurrency-safe in-memory key-value
// mapping shared by every server session: set, get, delete and clear
// against a single flat keyspace, plus the poisoned-lock recovery
// algorithm.
package store

import (
	"github.com/OneOfOne/xxhash"

	"github.com/aistorehq/kvstore/internal/cos"
	"github.com/aistorehq/kvstore/internal/debug"
)

// Store is a concurrency-safe string-to-string mapping, internally
// striped into a power-of-two number of independently-locked shards
// selected by a hash of the key. NumShards=1 (the default) degenerates
// to a single coarse lock, which is sufficient for most workloads;
// finer striping is available for callers that need it.
type Store struct {
	shards []*shard
	mask   uint64
}

// New creates a Store striped across numShards shards. numShards is
// rounded up to the next power of two; 0 or 1 yields a single shard.
func New(numShards int) *Store {
	n := nextPow2(numShards)
	debug.Assert(n > 0 && n&(n-1) == 0, "shard count must be a power of two, got", n)
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = newShard(i)
	}
	return &Store{shards: shards, mask: uint64(n - 1)}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (s *Store) shardFor(key string) *shard {
	if len(s.shards) == 1 {
		return s.shards[0]
	}
	h := xxhash.ChecksumString64(key)
	return s.shards[h&s.mask]
}

// Set inserts or overwrites the binding for key.
func (s *Store) Set(key, value string) error {
	return s.shardFor(key).locked(func(data map[string]string) error {
		data[key] = value
		return nil
	})
}

// Get returns an owned copy of the current value for key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var (
		value string
		found bool
	)
	err := s.shardFor(key).locked(func(data map[string]string) error {
		value, found = data[key]
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", cos.NewErrNotFound(key)
	}
	return value, nil
}

// Delete removes the binding for key if present, or returns ErrNotFound.
func (s *Store) Delete(key string) error {
	var found bool
	err := s.shardFor(key).locked(func(data map[string]string) error {
		_, found = data[key]
		if found {
			delete(data, key)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return cos.NewErrNotFound(key)
	}
	return nil
}

// Clear removes every binding. Shards are locked in ascending index order
// so that Clear is atomic with respect to any single shard's mutators and
// concurrent Clear calls never deadlock against each other.
func (s *Store) Clear() error {
	var firstErr error
	for _, sh := range s.shards {
		err := sh.locked(func(data map[string]string) error {
			for k := range data {
				delete(data, k)
			}
			return nil
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
