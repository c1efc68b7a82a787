// Package store holds the in-memory transaction snapshot served by the API.
package store

import (
	"sync"
	"time"

	"github.com/dvloznov/expense-explorer/internal/domain"
)

// Store is the process-wide transaction collection. Readers get an
// immutable snapshot; Replace swaps the whole collection at once so a
// reader never sees a partially loaded dataset.
type Store struct {
	mu       sync.RWMutex
	txs      []domain.Transaction
	source   string
	loadedAt time.Time
	version  int64
}

// Snapshot is a consistent view of the store at one point in time.
type Snapshot struct {
	Transactions []domain.Transaction
	Source       string
	LoadedAt     time.Time
	Version      int64
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Replace installs txs as the new dataset. The slice is copied so the caller
// may reuse it.
func (s *Store) Replace(txs []domain.Transaction, source string) int64 {
	copied := make([]domain.Transaction, len(txs))
	copy(copied, txs)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs = copied
	s.source = source
	s.loadedAt = time.Now()
	s.version++
	return s.version
}

// All returns the current transactions in file order. The returned slice is
// shared and must be treated as read-only.
func (s *Store) All() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txs
}

// Snapshot returns the transactions together with load metadata.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Transactions: s.txs,
		Source:       s.source,
		LoadedAt:     s.loadedAt,
		Version:      s.version,
	}
}

// Len returns the number of loaded transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

// Version counts Replace calls; it is 0 before the first load.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// LoadedAt reports when the current dataset was installed.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
