package database

import (
	"context"
	"errors"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// GenesisPrevHash is the previous hash recorded in the first block.
const GenesisPrevHash = "0"

// ErrBlockSealed is returned when mining is attempted on a block that is
// already part of the chain.
var ErrBlockSealed = errors.New("block is sealed")

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	TimeStamp    int64  `json:"timestamp"`    // Unix milliseconds the block was created.
	Transactions []Tx   `json:"transactions"` // Order matters for the hash.
	PrevHash     string `json:"previousHash"` // Hash of the block before this one.
	Nonce        uint64 `json:"nonce"`        // Value identified to solve the hash solution.
	Hash         string `json:"hash"`         // Hash over all the fields above.

	hashFn signature.HashFunc
	sealed bool
}

// NewBlock constructs a block and computes its hash with a nonce of zero.
func NewBlock(timeStamp int64, trans []Tx, prevHash string, opts ...Option) Block {
	o := applyOptions(opts)

	txs := make([]Tx, len(trans))
	for i, tx := range trans {
		tx.hashFn = o.hashFn
		txs[i] = tx
	}

	b := Block{
		TimeStamp:    timeStamp,
		Transactions: txs,
		PrevHash:     prevHash,
		hashFn:       o.hashFn,
	}
	b.Hash = b.CalculateHash()

	return b
}

// CalculateHash returns the hash over the timestamp, transactions,
// previous hash and nonce. The stored hash field is not part of it.
func (b Block) CalculateHash() string {
	content := struct {
		TimeStamp    int64  `json:"timestamp"`
		Transactions []Tx   `json:"transactions"`
		PrevHash     string `json:"previousHash"`
		Nonce        uint64 `json:"nonce"`
	}{
		TimeStamp:    b.TimeStamp,
		Transactions: b.Transactions,
		PrevHash:     b.PrevHash,
		Nonce:        b.Nonce,
	}

	return signature.Hash(b.hashFn, content)
}

// Mine does the work of finding a nonce that produces a hash with the
// number of leading zeros asked for by difficulty. Pointer semantics are
// being used since the nonce and hash are updated in place. The search has
// no bound, only a cancelled context stops it.
func (b *Block) Mine(ctx context.Context, difficulty uint, ev EventHandler) error {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	if b.sealed {
		return ErrBlockSealed
	}

	ev("database: Mine: MINING: started: prevBlk[%s]: difficulty[%d]", b.PrevHash, difficulty)

	for _, tx := range b.Transactions {
		ev("database: Mine: MINING: tx[%s]", tx)
	}

	var attempts uint64
	for !IsHashSolved(difficulty, b.Hash) {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if err := ctx.Err(); err != nil {
			ev("database: Mine: MINING: CANCELLED")
			return err
		}

		b.Nonce++
		b.Hash = b.CalculateHash()
	}

	ev("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]: attempts[%d]", b.PrevHash, b.Hash, b.Nonce, attempts)

	return nil
}

// HasValidTransactions returns true when every transaction in the block is
// valid. Errors from validating a transaction count as invalid.
func (b Block) HasValidTransactions() bool {
	for _, tx := range b.Transactions {
		ok, err := tx.IsValid()
		if err != nil || !ok {
			return false
		}
	}

	return true
}

// Seal marks the block as part of the chain. A sealed block can't be mined.
func (b *Block) Seal() {
	b.sealed = true
}

// Sealed reports whether the block is part of the chain.
func (b Block) Sealed() bool {
	return b.sealed
}

// Clone returns a deep copy of the block so callers can't modify the
// transactions of the original.
func (b Block) Clone() Block {
	trans := make([]Tx, len(b.Transactions))
	copy(trans, b.Transactions)
	b.Transactions = trans

	return b
}

// SetHashFunc replaces the hash function on the block and its transactions.
// This is needed after a block is decoded from storage.
func (b *Block) SetHashFunc(fn signature.HashFunc) {
	b.hashFn = fn
	for i := range b.Transactions {
		b.Transactions[i].hashFn = fn
	}
}

// =============================================================================

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if int(difficulty) > len(hash) {
		return false
	}

	return strings.Count(hash[:difficulty], "0") == int(difficulty)
}
