package ledger

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// AddTransaction validates the transaction and adds it to the pending pool.
// There is no duplicate detection and no balance check.
func (l *Ledger) AddTransaction(tx database.Tx) error {
	if tx.Sender == database.NoSender || tx.Recipient == "" {
		return ErrIncompleteTransaction
	}

	// Transactions are hashed the way the rest of the chain is.
	tx.SetHashFunc(l.hashFn)

	ok, err := tx.IsValid()
	if err != nil {
		return err
	}

	if !ok {
		return ErrInvalidTransaction
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.mempool.Add(tx)
	l.evHandler("ledger: AddTransaction: tx[%s]: pending[%d]", tx, n)

	return nil
}

// Pending returns a copy of the transactions waiting to be mined.
func (l *Ledger) Pending() []database.Tx {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.mempool.PickAll()
}
