// Package mempool maintains the pool of transactions waiting to be mined.
package mempool

import (
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Mempool represents an ordered cache of transactions. The order
// transactions are added is the order they are mined.
type Mempool struct {
	pool []database.Tx
	mu   sync.RWMutex
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the pool. No duplicate detection is performed.
func (mp *Mempool) Add(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// PickAll returns a copy of every transaction in insertion order.
func (mp *Mempool) PickAll() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.Tx, len(mp.pool))
	copy(trans, mp.pool)

	return trans
}

// Reset replaces the contents of the pool wholesale.
func (mp *Mempool) Reset(trans ...database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make([]database.Tx, len(trans))
	copy(mp.pool, trans)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.Reset()
}
