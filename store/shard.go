package store

import (
	"sync"
	"sync/atomic"

	"github.com/aistorehq/kvstore/internal/cos"
)

// shard is one independently-locked sub-map of the Store. Its lock is
// "poisonable": if a critical section panics, the shard remembers that
// and the *next* operation gets one recovery attempt before giving up
// with ErrPoisoned. sync.Mutex has no native poisoning, so this recovers
// around the critical section itself to emulate it.
type shard struct {
	idx      int
	mu       sync.Mutex
	data     map[string]string
	poisoned atomic.Bool
}

func newShard(idx int) *shard {
	return &shard{idx: idx, data: make(map[string]string)}
}

// locked runs fn with the shard's lock held. If a previous call left the
// shard poisoned, this call first clears the flag and proceeds as the
// recovery attempt; if fn panics (here or on the first attempt) the shard
// is (re-)poisoned and ErrPoisoned is returned instead of propagating the
// panic.
func (s *shard) locked(fn func(data map[string]string) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned.Load() {
		s.poisoned.Store(false)
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned.Store(true)
			err = cos.NewErrPoisoned(s.idx)
		}
	}()

	err = fn(s.data)
	return
}
