package core

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// Identifiers hands out small integer ids for owners of type T and reuses
// released slots. Id 0 is never issued so it can act as a null value.
type Identifiers[T any] struct {
	mu     sync.Mutex
	owners []*T
}

func NewIdentifiers[T any](capacity int) *Identifiers[T] {
	return &Identifiers[T]{
		owners: make([]*T, 1, capacity+1),
	}
}

func (ids *Identifiers[T]) Acquire(owner T) uint64 {
	ids.mu.Lock()
	defer ids.mu.Unlock()

	if len(ids.owners) == 0 {
		ids.owners = make([]*T, 1)
	}
	for i := 1; i < len(ids.owners); i++ {
		// Existing free spot. Take it.
		if ids.owners[i] == nil {
			ids.owners[i] = &owner
			return uint64(i)
		}
	}

	// If here, no existing free slots. Need a new id, so push one.
	ids.owners = append(ids.owners, &owner)
	return uint64(len(ids.owners) - 1)
}

func (ids *Identifiers[T]) Get(id uint64) (T, bool) {
	ids.mu.Lock()
	defer ids.mu.Unlock()

	var zero T
	if id == 0 || id >= uint64(len(ids.owners)) || ids.owners[id] == nil {
		return zero, false
	}
	return *ids.owners[id], true
}

// Release frees the id and returns its owner.
func (ids *Identifiers[T]) Release(id uint64) (T, error) {
	ids.mu.Lock()
	defer ids.mu.Unlock()

	var zero T
	if id == 0 || id >= uint64(len(ids.owners)) {
		return zero, errors.Newf("identifier %d out of range (max=%d)", id, len(ids.owners)-1)
	}
	owner := ids.owners[id]
	if owner == nil {
		return zero, errors.Newf("identifier %d already released", id)
	}
	// Just zero out the entry, making it available for use.
	ids.owners[id] = nil
	return *owner, nil
}

// Len is the number of live ids.
func (ids *Identifiers[T]) Len() int {
	ids.mu.Lock()
	defer ids.mu.Unlock()

	n := 0
	for _, o := range ids.owners {
		if o != nil {
			n++
		}
	}
	return n
}
