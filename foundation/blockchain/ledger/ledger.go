// Package ledger is the core API for the chain and implements the business
// rules for accepting transactions, mining blocks, validating the chain and
// deriving balances.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Set of errors the ledger can return when a transaction is submitted.
var (
	ErrIncompleteTransaction = errors.New("transaction must include sender and recipient")
	ErrInvalidTransaction    = errors.New("transaction signature is invalid")
)

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis   genesis.Genesis
	HashFunc  signature.HashFunc
	Storage   database.Storage
	EvHandler EventHandler
}

// Ledger manages the chain and the pool of pending transactions. The chain
// and the pool are the protected region, every access goes through mu.
type Ledger struct {
	genesis   genesis.Genesis
	hashFn    signature.HashFunc
	storage   database.Storage
	evHandler func(v string, args ...any)

	mineMu  sync.Mutex
	mu      sync.RWMutex
	chain   []database.Block
	mempool *mempool.Mempool
}

// New constructs a ledger holding only the genesis block. When storage is
// provided, the blocks it holds are loaded and the resulting chain must be
// valid.
func New(cfg Config) (*Ledger, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	hashFn := cfg.HashFunc
	if hashFn == nil {
		hashFn = signature.SHA256
	}

	gen := cfg.Genesis
	if gen.Date.IsZero() {
		gen = genesis.Default()
	}

	l := Ledger{
		genesis:   gen,
		hashFn:    hashFn,
		storage:   cfg.Storage,
		evHandler: ev,
		mempool:   mempool.New(),
	}

	genesisBlock := l.GenesisBlock()
	genesisBlock.Seal()
	l.chain = []database.Block{genesisBlock}

	if l.storage == nil {
		return &l, nil
	}

	// Load all existing blocks from storage into memory for processing.
	blocks, err := database.ReadAll(l.storage)
	if err != nil {
		return nil, fmt.Errorf("reading blocks: %w", err)
	}

	for _, block := range blocks {
		block.SetHashFunc(hashFn)
		block.Seal()
		l.chain = append(l.chain, block)
	}

	ev("ledger: New: loaded blocks[%d]", len(blocks))

	if !l.isValid() {
		return nil, errors.New("stored chain failed validation")
	}

	return &l, nil
}

// Shutdown releases the storage.
func (l *Ledger) Shutdown() error {
	if l.storage == nil {
		return nil
	}

	l.evHandler("ledger: Shutdown: closing storage")
	return l.storage.Close()
}

// =============================================================================

// GenesisBlock returns the fixed first block of the chain. It is never
// mined and is identical every time it's constructed.
func (l *Ledger) GenesisBlock() database.Block {
	return database.NewBlock(l.genesis.Date.UnixMilli(), nil, database.GenesisPrevHash, database.WithHashFunc(l.hashFn))
}

// Genesis returns the genesis parameters.
func (l *Ledger) Genesis() genesis.Genesis {
	return l.genesis
}

// Difficulty returns the number of leading zeros a block hash needs.
func (l *Ledger) Difficulty() uint {
	return uint(l.genesis.Difficulty)
}

// MiningReward returns the amount paid to whoever mines a block.
func (l *Ledger) MiningReward() int64 {
	return l.genesis.MiningReward
}

// LatestBlock returns the last block in the chain.
func (l *Ledger) LatestBlock() database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.latestBlock().Clone()
}

// Tip returns the last block in the chain together with its number. The
// genesis block is number 0.
func (l *Ledger) Tip() (database.Block, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.latestBlock().Clone(), uint64(len(l.chain) - 1)
}

// Height returns the number of blocks in the chain including genesis.
func (l *Ledger) Height() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.chain)
}

// BlockNumber returns the number of the block with the specified hash.
func (l *Ledger) BlockNumber(hash string) (uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.chain) - 1; i >= 0; i-- {
		if l.chain[i].Hash == hash {
			return uint64(i), true
		}
	}

	return 0, false
}

// latestBlock returns the last block with no locking. The chain always
// holds the genesis block.
func (l *Ledger) latestBlock() database.Block {
	return l.chain[len(l.chain)-1]
}
