package database_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	senderHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	otherHexKey  = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

func keys(t *testing.T) (signature.PrivateKey, signature.PrivateKey) {
	sender, err := signature.HexToPrivateKey(senderHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to parse the sender key: %s", failed, err)
	}

	other, err := signature.HexToPrivateKey(otherHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to parse the other key: %s", failed, err)
	}

	return sender, other
}

// =============================================================================

func Test_TransactionSigning(t *testing.T) {
	sender, other := keys(t)
	from := database.Address(sender.PublicKey())
	to := database.Address(other.PublicKey())

	t.Log("Given the need to sign and validate transactions.")
	{
		t.Logf("\tTest 0:\tWhen signing with the sender's key.")
		{
			tx := database.NewTx(from, to, 5)

			if err := tx.Sign(sender); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the transaction: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to sign the transaction.", success)

			ok, err := tx.IsValid()
			if err != nil || !ok {
				t.Fatalf("\t%s\tTest 0:\tShould be a valid transaction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be a valid transaction.", success)

			tx.Amount = 50
			ok, err = tx.IsValid()
			if err != nil || ok {
				t.Fatalf("\t%s\tTest 0:\tShould be invalid, without an error, after changing the amount: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be invalid, without an error, after changing the amount.", success)
		}

		t.Logf("\tTest 1:\tWhen signing with another key.")
		{
			tx := database.NewTx(from, to, 5)

			err := tx.Sign(other)
			if !errors.Is(err, database.ErrUnauthorizedSigner) {
				t.Fatalf("\t%s\tTest 1:\tShould fail with an unauthorized signer: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould fail with an unauthorized signer.", success)

			if tx.Signature != "" {
				t.Fatalf("\t%s\tTest 1:\tShould not change the signature.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould not change the signature.", success)
		}

		t.Logf("\tTest 2:\tWhen validating an unsigned transaction.")
		{
			tx := database.NewTx(from, to, 5)

			ok, err := tx.IsValid()
			if !errors.Is(err, database.ErrMissingSignature) || ok {
				t.Fatalf("\t%s\tTest 2:\tShould fail with a missing signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould fail with a missing signature.", success)
		}

		t.Logf("\tTest 3:\tWhen validating a reward transaction.")
		{
			tx := database.NewRewardTx(to, 100)

			ok, err := tx.IsValid()
			if err != nil || !ok {
				t.Fatalf("\t%s\tTest 3:\tShould always be valid: %v", failed, err)
			}

			tx.Signature = "0xdeadbeef"
			ok, err = tx.IsValid()
			if err != nil || !ok {
				t.Fatalf("\t%s\tTest 3:\tShould be valid regardless of the signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould always be valid.", success)
		}

		t.Logf("\tTest 4:\tWhen the sender is not a public key.")
		{
			tx := database.NewTx("bill", to, 5)
			tx.Signature = "0x00"

			ok, err := tx.IsValid()
			if err != nil || ok {
				t.Fatalf("\t%s\tTest 4:\tShould be invalid without an error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 4:\tShould be invalid without an error.", success)
		}
	}
}

func Test_TransactionContentHash(t *testing.T) {
	sender, other := keys(t)
	from := database.Address(sender.PublicKey())
	to := database.Address(other.PublicKey())

	t.Log("Given the need to hash transaction content.")
	{
		tx := database.NewTx(from, to, 5)
		h := tx.ContentHash()

		if h != database.NewTx(from, to, 5).ContentHash() {
			t.Fatalf("\t%s\tShould get the same hash for the same content.", failed)
		}
		t.Logf("\t%s\tShould get the same hash for the same content.", success)

		if err := tx.Sign(sender); err != nil {
			t.Fatalf("\t%s\tShould be able to sign: %s", failed, err)
		}

		if h != tx.ContentHash() {
			t.Fatalf("\t%s\tShould not include the signature in the content hash.", failed)
		}
		t.Logf("\t%s\tShould not include the signature in the content hash.", success)

		if h == database.NewTx(from, to, 6).ContentHash() {
			t.Fatalf("\t%s\tShould get a different hash for a different amount.", failed)
		}
		t.Logf("\t%s\tShould get a different hash for a different amount.", success)

		ktx := database.NewTx(from, to, 5, database.WithHashFunc(signature.Keccak256))
		if h == ktx.ContentHash() {
			t.Fatalf("\t%s\tShould get a different hash with keccak.", failed)
		}

		if err := ktx.Sign(sender); err != nil {
			t.Fatalf("\t%s\tShould be able to sign with keccak: %s", failed, err)
		}

		ok, err := ktx.IsValid()
		if err != nil || !ok {
			t.Fatalf("\t%s\tShould validate with keccak: %v", failed, err)
		}
		t.Logf("\t%s\tShould sign and validate with keccak.", success)
	}
}
