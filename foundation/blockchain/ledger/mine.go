package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ErrChainChanged is returned when the chain tip moved while a block was
// being mined, the block no longer links to the latest block.
var ErrChainChanged = errors.New("chain tip changed while mining")

// MinePendingTransactions packages the pending pool plus a reward for the
// specified address into a new block, performs the proof of work and
// appends the block to the chain. Afterwards the pool holds a single reward
// transaction for the same address which primes the next block, followed by
// any transaction that arrived while mining. Only the reward inside the
// mined block is paid for this round.
//
// The ledger is only locked while the tip and pool are read and while the
// block is appended. Readers are not blocked by the proof of work.
func (l *Ledger) MinePendingTransactions(ctx context.Context, rewardAddress database.Address) (database.Block, error) {
	if rewardAddress == "" {
		return database.Block{}, fmt.Errorf("reward address: %w", ErrIncompleteTransaction)
	}

	// Only one mining operation at a time.
	l.mineMu.Lock()
	defer l.mineMu.Unlock()

	l.evHandler("ledger: MinePendingTransactions: MINING: started: reward[%s]", rewardAddress)
	defer l.evHandler("ledger: MinePendingTransactions: MINING: completed")

	l.mu.RLock()
	picked := l.mempool.PickAll()
	prevHash := l.latestBlock().Hash
	l.mu.RUnlock()

	trans := append(picked, database.NewRewardTx(rewardAddress, l.genesis.MiningReward, database.WithHashFunc(l.hashFn)))

	block := database.NewBlock(time.Now().UTC().UnixMilli(), trans, prevHash, database.WithHashFunc(l.hashFn))

	// The pool is left alone until the block is appended, a cancelled
	// search has nothing to restore.
	if err := block.Mine(ctx, l.Difficulty(), l.evHandler); err != nil {
		return database.Block{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.latestBlock().Hash != prevHash {
		return database.Block{}, ErrChainChanged
	}

	number := uint64(len(l.chain))

	if l.storage != nil {
		l.evHandler("ledger: MinePendingTransactions: write block[%d] to storage", number)

		if err := l.storage.Write(number, block); err != nil {
			return database.Block{}, fmt.Errorf("writing block %d: %w", number, err)
		}
	}

	block.Seal()
	l.chain = append(l.chain, block)

	// Transactions added while mining stay pending behind the primed reward.
	arrived := l.mempool.PickAll()[len(picked):]
	next := append([]database.Tx{database.NewRewardTx(rewardAddress, l.genesis.MiningReward, database.WithHashFunc(l.hashFn))}, arrived...)
	l.mempool.Reset(next...)

	l.evHandler("viewer: block mined: number[%d]: hash[%s]: trans[%d]", number, block.Hash, len(block.Transactions))

	return block.Clone(), nil
}
