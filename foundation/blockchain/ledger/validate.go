package ledger

import (
	"bytes"
	"encoding/json"
)

// IsValid checks the integrity of the whole chain. The genesis block must
// match the reference genesis block, and every block after it must carry
// valid transactions, a hash matching its content and a link to the hash of
// the block before it. Any failure makes the chain invalid.
func (l *Ledger) IsValid() bool {
	valid, _ := l.Validity()
	return valid
}

// Validity checks the integrity of the whole chain and returns the number of
// blocks that were checked.
func (l *Ledger) Validity() (bool, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.isValid(), len(l.chain)
}

// isValid performs the checks with no locking.
func (l *Ledger) isValid() bool {
	l.evHandler("ledger: IsValid: check: genesis block matches reference")

	if !l.validGenesis() {
		l.evHandler("ledger: IsValid: FAILED: genesis block")
		return false
	}

	for i := 1; i < len(l.chain); i++ {
		current := l.chain[i]
		previous := l.chain[i-1]

		if !current.HasValidTransactions() {
			l.evHandler("ledger: IsValid: FAILED: blk[%d]: invalid transactions", i)
			return false
		}

		if current.Hash != current.CalculateHash() {
			l.evHandler("ledger: IsValid: FAILED: blk[%d]: hash doesn't match content", i)
			return false
		}

		if current.PrevHash != previous.Hash {
			l.evHandler("ledger: IsValid: FAILED: blk[%d]: previous hash doesn't match parent, got %s, exp %s", i, current.PrevHash, previous.Hash)
			return false
		}
	}

	return true
}

// validGenesis compares the serialized form of the live genesis block with a
// freshly constructed one.
func (l *Ledger) validGenesis() bool {
	live, err := json.Marshal(l.chain[0])
	if err != nil {
		return false
	}

	reference, err := json.Marshal(l.GenesisBlock())
	if err != nil {
		return false
	}

	return bytes.Equal(live, reference)
}
