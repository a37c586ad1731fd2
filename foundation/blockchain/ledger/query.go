package ledger

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// BalanceOf replays the whole chain and returns the balance for the address.
// The balance can be negative since spending is not checked.
func (l *Ledger) BalanceOf(address database.Address) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var balance int64
	for _, block := range l.chain {
		for _, tx := range block.Transactions {
			if tx.Sender == address {
				balance -= tx.Amount
			}

			if tx.Recipient == address {
				balance += tx.Amount
			}
		}
	}

	return balance
}

// Chain returns a copy of every block in the chain starting with genesis.
func (l *Ledger) Chain() []database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	blocks := make([]database.Block, len(l.chain))
	for i, block := range l.chain {
		blocks[i] = block.Clone()
	}

	return blocks
}

// QueryBlocksByAddress returns the blocks holding a transaction the address
// took part in.
func (l *Ledger) QueryBlocksByAddress(address database.Address) []database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var blocks []database.Block
	for _, block := range l.chain {
		for _, tx := range block.Transactions {
			if tx.Sender == address || tx.Recipient == address {
				blocks = append(blocks, block.Clone())
				break
			}
		}
	}

	return blocks
}
