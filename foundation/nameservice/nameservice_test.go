package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_NameService(t *testing.T) {
	t.Log("Given the need to name addresses from key files.")
	{
		root := t.TempDir()

		pk, err := signature.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a key: %s", failed, err)
		}

		if err := pk.Save(filepath.Join(root, "kennedy.ecdsa")); err != nil {
			t.Fatalf("\t%s\tShould be able to save the key: %s", failed, err)
		}

		if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0600); err != nil {
			t.Fatalf("\t%s\tShould be able to write another file: %s", failed, err)
		}

		ns, err := nameservice.New(root)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the name service: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the name service.", success)

		address := database.Address(pk.PublicKey())
		if name := ns.Lookup(address); name != "kennedy" {
			t.Fatalf("\t%s\tShould find the name for the address: got %s", failed, name)
		}
		t.Logf("\t%s\tShould find the name for the address.", success)

		if got, ok := ns.Resolve("kennedy"); !ok || got != address {
			t.Fatalf("\t%s\tShould resolve the name to the address.", failed)
		}
		t.Logf("\t%s\tShould resolve the name to the address.", success)

		if name := ns.Lookup("0xunknown"); name != "0xunknown" {
			t.Fatalf("\t%s\tShould return the address when there is no name: got %s", failed, name)
		}
		t.Logf("\t%s\tShould return the address when there is no name.", success)

		if len(ns.Copy()) != 1 {
			t.Fatalf("\t%s\tShould only load key files.", failed)
		}
		t.Logf("\t%s\tShould only load key files.", success)
	}
}
