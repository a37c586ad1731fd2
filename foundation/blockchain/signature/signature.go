// Package signature provides helper functions for handling the ledger's
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is returned when a value
// can't be marshaled for hashing.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// HashFunc produces a digest over the provided data. The ledger injects one
// of these into transactions and blocks so the hashing algorithm can be
// swapped without touching the core.
type HashFunc func(data ...[]byte) []byte

// SHA256 is the default HashFunc.
func SHA256(data ...[]byte) []byte {
	h := sha256.New()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256 is the Ethereum flavored HashFunc.
func Keccak256(data ...[]byte) []byte {
	return crypto.Keccak256(data...)
}

// Hash returns a unique hex string for the value using the specified hash
// function. A nil hash function means SHA256.
func Hash(fn HashFunc, value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	if fn == nil {
		fn = SHA256
	}

	return hex.EncodeToString(fn(data))
}

// =============================================================================

// Signer represents the capability to sign on behalf of an address. The
// public key is the address the signer speaks for.
type Signer interface {
	PublicKey() string
	SignDigest(digest []byte) ([]byte, error)
}

// PrivateKey implements the Signer interface for a secp256k1 key.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// NewPrivateKey constructs a signer from an ecdsa private key.
func NewPrivateKey(key *ecdsa.PrivateKey) PrivateKey {
	return PrivateKey{key: key}
}

// GenerateKey produces a brand new key pair.
func GenerateKey() (PrivateKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return PrivateKey{}, err
	}

	return PrivateKey{key: key}, nil
}

// HexToPrivateKey parses a hex encoded private key.
func HexToPrivateKey(hexKey string) (PrivateKey, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return PrivateKey{}, err
	}

	return PrivateKey{key: key}, nil
}

// LoadPrivateKey reads a private key file like the ones produced by the
// wallet's generate command.
func LoadPrivateKey(path string) (PrivateKey, error) {
	key, err := crypto.LoadECDSA(path)
	if err != nil {
		return PrivateKey{}, err
	}

	return PrivateKey{key: key}, nil
}

// Save writes the private key to the specified file.
func (pk PrivateKey) Save(path string) error {
	return crypto.SaveECDSA(path, pk.key)
}

// PublicKey returns the address for this key.
func (pk PrivateKey) PublicKey() string {
	return PublicKeyToAddress(pk.key.PublicKey)
}

// SignDigest signs the 32 byte digest. Signatures are deterministic and
// returned in the [R|S|V] format.
func (pk PrivateKey) SignDigest(digest []byte) ([]byte, error) {
	if len(digest) != crypto.DigestLength {
		return nil, fmt.Errorf("digest must be %d bytes, got %d", crypto.DigestLength, len(digest))
	}

	return crypto.Sign(digest, pk.key)
}

// =============================================================================

// PublicKeyToAddress converts the public key into the address format used by
// the ledger, the hex encoding of the uncompressed key.
func PublicKeyToAddress(pub ecdsa.PublicKey) string {
	return hexutil.Encode(crypto.FromECDSAPub(&pub))
}

// Verify checks the signature was produced over the digest by the key
// behind the address. An error is returned when the address isn't a
// public key.
func Verify(address string, digest []byte, sig []byte) (bool, error) {
	pubBytes, err := hexutil.Decode(address)
	if err != nil {
		return false, fmt.Errorf("decoding address: %w", err)
	}

	if _, err := crypto.UnmarshalPubkey(pubBytes); err != nil {
		return false, fmt.Errorf("address is not a public key: %w", err)
	}

	if len(sig) < crypto.RecoveryIDOffset {
		return false, nil
	}

	return crypto.VerifySignature(pubBytes, digest, sig[:crypto.RecoveryIDOffset]), nil
}

// EncodeSignature returns the signature as a string.
func EncodeSignature(sig []byte) string {
	return hexutil.Encode(sig)
}

// DecodeSignature converts the string form back into bytes.
func DecodeSignature(sigStr string) ([]byte, error) {
	if sigStr == "" {
		return nil, errors.New("empty signature")
	}

	return hexutil.Decode(sigStr)
}
