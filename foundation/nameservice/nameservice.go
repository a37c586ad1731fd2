// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the ledger's addresses.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// keyExtension is the extension of the private key files.
const keyExtension = ".ecdsa"

// NameService maintains a map of addresses for name lookup.
type NameService struct {
	names     map[database.Address]string
	addresses map[string]database.Address
}

// New constructs a Name Service with the key files found under root.
func New(root string) (*NameService, error) {
	ns := NameService{
		names:     make(map[database.Address]string),
		addresses: make(map[string]database.Address),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != keyExtension {
			return nil
		}

		privateKey, err := signature.LoadPrivateKey(fileName)
		if err != nil {
			return fmt.Errorf("loading %s: %w", fileName, err)
		}

		address := database.Address(privateKey.PublicKey())
		name := strings.TrimSuffix(path.Base(fileName), keyExtension)

		ns.names[address] = name
		ns.addresses[name] = address

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address. The address itself is
// returned when there is no name.
func (ns *NameService) Lookup(address database.Address) string {
	name, exists := ns.names[address]
	if !exists {
		return string(address)
	}
	return name
}

// Resolve returns the address for the specified name.
func (ns *NameService) Resolve(name string) (database.Address, bool) {
	address, exists := ns.addresses[name]
	return address, exists
}

// Copy returns a copy of the map of addresses and names.
func (ns *NameService) Copy() map[database.Address]string {
	cpy := make(map[database.Address]string, len(ns.names))
	for address, name := range ns.names {
		cpy[address] = name
	}
	return cpy
}
