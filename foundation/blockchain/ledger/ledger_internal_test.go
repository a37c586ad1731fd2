package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// minedLedger returns a ledger with two mined blocks on top of genesis.
func minedLedger(t *testing.T) *Ledger {
	t.Helper()

	sender, err := signature.HexToPrivateKey("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("\t%s\tShould be able to parse the key: %s", failed, err)
	}

	l, err := New(Config{})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the ledger: %s", failed, err)
	}

	tx := database.NewTx(database.Address(sender.PublicKey()), "0xjill", 5)
	if err := tx.Sign(sender); err != nil {
		t.Fatalf("\t%s\tShould be able to sign: %s", failed, err)
	}

	if err := l.AddTransaction(tx); err != nil {
		t.Fatalf("\t%s\tShould be able to add the transaction: %s", failed, err)
	}

	for i := 0; i < 2; i++ {
		if _, err := l.MinePendingTransactions(context.Background(), database.Address(sender.PublicKey())); err != nil {
			t.Fatalf("\t%s\tShould be able to mine: %s", failed, err)
		}
	}

	if !l.IsValid() {
		t.Fatalf("\t%s\tShould start with a valid chain.", failed)
	}

	return l
}

func Test_Tampering(t *testing.T) {
	tt := []struct {
		name   string
		tamper func(l *Ledger)
	}{
		{"amount", func(l *Ledger) { l.chain[1].Transactions[0].Amount = 6 }},
		{"reward amount", func(l *Ledger) { l.chain[2].Transactions[1].Amount = 1000 }},
		{"recipient", func(l *Ledger) { l.chain[1].Transactions[0].Recipient = "0xbill" }},
		{"signature", func(l *Ledger) { l.chain[1].Transactions[0].Signature = "" }},
		{"hash", func(l *Ledger) { l.chain[1].Hash = l.chain[1].CalculateHash() + "0" }},
		{"nonce", func(l *Ledger) { l.chain[2].Nonce++ }},
		{"rehashed link", func(l *Ledger) {
			l.chain[1].TimeStamp++
			l.chain[1].Hash = l.chain[1].CalculateHash()
		}},
		{"previous hash", func(l *Ledger) {
			l.chain[2].PrevHash = "00"
			l.chain[2].Hash = l.chain[2].CalculateHash()
		}},
		{"genesis", func(l *Ledger) { l.chain[0].TimeStamp++ }},
		{"genesis transactions", func(l *Ledger) {
			l.chain[0].Transactions = append(l.chain[0].Transactions, database.NewRewardTx("0xbill", 1))
		}},
	}

	t.Log("Given the need to detect a tampered chain.")
	{
		for testID, tst := range tt {
			l := minedLedger(t)
			tst.tamper(l)

			if l.IsValid() {
				t.Errorf("\t%s\tTest %d:\tShould detect a tampered %s.", failed, testID, tst.name)
				continue
			}

			if l.IsValid() {
				t.Errorf("\t%s\tTest %d:\tShould keep reporting a tampered %s.", failed, testID, tst.name)
				continue
			}
			t.Logf("\t%s\tTest %d:\tShould detect a tampered %s.", success, testID, tst.name)
		}
	}
}

func Test_ChainChanged(t *testing.T) {
	t.Log("Given the need to refuse a block when the tip moved while mining.")
	{
		var l *Ledger
		ev := func(v string, args ...any) {
			if l == nil || !strings.HasPrefix(v, "database: Mine: MINING: started") {
				return
			}

			// Another writer extends the chain during the search.
			l.mu.Lock()
			extra := database.NewBlock(1, nil, l.latestBlock().Hash)
			l.chain = append(l.chain, extra)
			l.mu.Unlock()
		}

		var err error
		l, err = New(Config{EvHandler: ev})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the ledger: %s", failed, err)
		}

		_, err = l.MinePendingTransactions(context.Background(), "0xjill")
		if !errors.Is(err, ErrChainChanged) {
			t.Fatalf("\t%s\tShould refuse the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse the block.", success)

		if len(l.chain) != 2 || l.mempool.Count() != 0 {
			t.Fatalf("\t%s\tShould leave the chain and the pool alone: blocks[%d] pending[%d]", failed, len(l.chain), l.mempool.Count())
		}
		t.Logf("\t%s\tShould leave the chain and the pool alone.", success)
	}
}
