package booking

import (
	"fmt"
	"sync"
)

// slotLocks serializes proposals per (court, date) so the overlap check
// and the insert behave as one atomic unit even off postgres, where no
// row lock backs the transaction.
type slotLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSlotLocks() *slotLocks {
	return &slotLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *slotLocks) Lock(courtID uint, date string) func() {
	key := fmt.Sprintf("%d|%s", courtID, date)
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
