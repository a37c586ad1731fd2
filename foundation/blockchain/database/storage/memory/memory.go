// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified block and stores it in memory. Blocks must be
// written in order.
func (m *Memory) Write(number uint64, block database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if uint64(len(m.blocks))+1 != number {
		return fmt.Errorf("block is out of order, got %d, exp %d", number, len(m.blocks)+1)
	}

	m.blocks = append(m.blocks, block.Clone())

	return nil
}

// GetBlock searches the blockchain to locate and return the contents of
// the specified block by number.
func (m *Memory) GetBlock(number uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if number == 0 || number > uint64(len(m.blocks)) {
		return database.Block{}, fmt.Errorf("block %d: %w", number, database.ErrBlockNotFound)
	}

	return m.blocks[number-1].Clone(), nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Reset will clear out the blockchain in memory.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through and reading blocks in memory.
type memoryIterator struct {
	storage *Memory
	current uint64
	eoc     bool
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.Block, error) {
	if mi.eoc {
		return database.Block{}, database.ErrEndOfChain
	}

	mi.current++
	block, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
		return database.Block{}, database.ErrEndOfChain
	}

	return block, nil
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
