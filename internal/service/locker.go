package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// UnitLocker serializes writers of one unit's mapping set. Lock blocks until
// the unit is free or ctx ends, and returns a release function that is safe to
// call more than once.
type UnitLocker interface {
	Lock(ctx context.Context, unitID uuid.UUID) (func(), error)
}

// LocalUnitLocker is an in-process UnitLocker for single-instance deployments.
// Multi-instance deployments use the Redis-backed locker instead.
type LocalUnitLocker struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

var _ UnitLocker = (*LocalUnitLocker)(nil)

// NewLocalUnitLocker creates an empty LocalUnitLocker.
func NewLocalUnitLocker() *LocalUnitLocker {
	return &LocalUnitLocker{slots: make(map[uuid.UUID]*lockSlot)}
}

// Lock implements UnitLocker.
func (l *LocalUnitLocker) Lock(ctx context.Context, unitID uuid.UUID) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[unitID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[unitID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(unitID, slot)
		return nil, fmt.Errorf("waiting for unit %s: %w", unitID, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.drop(unitID, slot)
		})
	}, nil
}

// drop forgets the slot once nobody holds or waits for it.
func (l *LocalUnitLocker) drop(unitID uuid.UUID, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, unitID)
	}
}

// held returns the number of units with a holder or waiter.
func (l *LocalUnitLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
