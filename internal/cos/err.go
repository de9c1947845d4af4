// Package cos provides common low-level types and utilities shared by the
// store, protocol and client packages.
package cos

import (
	"fmt"

	"github.com/pkg/errors"
)

type (
	// ErrNotFound is returned by Store.Get/Delete when the key is absent.
	ErrNotFound struct {
		key string
	}
	// ErrPoisoned is returned when a shard's lock could not be recovered
	// after a panic mid critical-section.
	ErrPoisoned struct {
		shard int
	}
)

func NewErrNotFound(key string) *ErrNotFound { return &ErrNotFound{key: key} }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("key %q not found", e.key) }

func IsErrNotFound(err error) bool {
	_, ok := errors.Cause(err).(*ErrNotFound)
	return ok
}

func NewErrPoisoned(shard int) *ErrPoisoned { return &ErrPoisoned{shard: shard} }

func (e *ErrPoisoned) Error() string { return fmt.Sprintf("shard %d: lock poisoned", e.shard) }

func IsErrPoisoned(err error) bool {
	_, ok := errors.Cause(err).(*ErrPoisoned)
	return ok
}
