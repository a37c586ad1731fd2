package disk_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/disk"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_ReadWrite(t *testing.T) {
	t.Log("Given the need to store blocks on disk.")
	{
		d, err := disk.New(t.TempDir())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the storage: %s", failed, err)
		}
		defer d.Close()

		var written []database.Block
		prev := database.GenesisPrevHash
		for i := uint64(1); i <= 3; i++ {
			tx := database.NewTx("0xbill", "0xjill", int64(i))
			tx.Signature = "0x01"

			block := database.NewBlock(int64(i), []database.Tx{tx, database.NewRewardTx("0xminer", 100)}, prev)
			if err := d.Write(i, block); err != nil {
				t.Fatalf("\t%s\tShould be able to write block %d: %s", failed, i, err)
			}

			written = append(written, block)
			prev = block.Hash
		}
		t.Logf("\t%s\tShould be able to write blocks.", success)

		blocks, err := database.ReadAll(d)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read all blocks: %s", failed, err)
		}

		if len(blocks) != len(written) {
			t.Fatalf("\t%s\tShould get every block back: got %d", failed, len(blocks))
		}

		for i, block := range blocks {
			if block.Hash != written[i].Hash || block.CalculateHash() != block.Hash {
				t.Fatalf("\t%s\tShould get block %d back with a matching hash.", failed, i+1)
			}

			if block.Transactions[1].Sender != database.NoSender {
				t.Fatalf("\t%s\tShould keep the reward sender empty.", failed)
			}
		}
		t.Logf("\t%s\tShould get the blocks back with matching hashes.", success)

		if _, err := d.GetBlock(10); !errors.Is(err, database.ErrBlockNotFound) {
			t.Fatalf("\t%s\tShould get not found for a missing block: %v", failed, err)
		}
		t.Logf("\t%s\tShould get not found for a missing block.", success)

		if err := d.Reset(); err != nil {
			t.Fatalf("\t%s\tShould be able to reset: %s", failed, err)
		}

		blocks, err = database.ReadAll(d)
		if err != nil || len(blocks) != 0 {
			t.Fatalf("\t%s\tShould be empty after reset: %d %v", failed, len(blocks), err)
		}
		t.Logf("\t%s\tShould be empty after reset.", success)
	}
}
