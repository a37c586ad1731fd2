package database

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Set of errors a transaction can return.
var (
	ErrUnauthorizedSigner = errors.New("signing key does not belong to the sender")
	ErrMissingSignature   = errors.New("transaction has no signature")
)

// =============================================================================

// Address represents the public key of a participant in a transaction.
type Address string

// NoSender is the sender of a reward transaction. The value is created by
// the ledger and not transferred from any holder.
const NoSender Address = ""

// =============================================================================

// Option configures the hashing used by transactions and blocks.
type Option func(*options)

type options struct {
	hashFn signature.HashFunc
}

// WithHashFunc sets the hash function used for content hashes.
func WithHashFunc(fn signature.HashFunc) Option {
	return func(o *options) {
		o.hashFn = fn
	}
}

func applyOptions(opts []Option) options {
	o := options{hashFn: signature.SHA256}
	for _, opt := range opts {
		opt(&o)
	}

	if o.hashFn == nil {
		o.hashFn = signature.SHA256
	}

	return o
}

// =============================================================================

// Tx is the value transfer between two parties.
type Tx struct {
	Sender    Address `json:"sender"`
	Recipient Address `json:"recipient"`
	Amount    int64   `json:"amount"`
	Signature string  `json:"signature,omitempty"`

	hashFn signature.HashFunc
}

// NewTx constructs a new unsigned transaction.
func NewTx(sender Address, recipient Address, amount int64, opts ...Option) Tx {
	o := applyOptions(opts)

	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		hashFn:    o.hashFn,
	}
}

// NewRewardTx constructs the transaction paying the mining reward.
func NewRewardTx(recipient Address, amount int64, opts ...Option) Tx {
	return NewTx(NoSender, recipient, amount, opts...)
}

// IsReward reports whether this transaction was issued by the ledger.
func (tx Tx) IsReward() bool {
	return tx.Sender == NoSender
}

// ContentHash returns the hash of the sender, recipient and amount. This is
// the value that is signed.
func (tx Tx) ContentHash() string {
	content := struct {
		Sender    Address `json:"sender"`
		Recipient Address `json:"recipient"`
		Amount    int64   `json:"amount"`
	}{
		Sender:    tx.Sender,
		Recipient: tx.Recipient,
		Amount:    tx.Amount,
	}

	return signature.Hash(tx.hashFn, content)
}

// Sign uses the signer to sign the transaction. Only the key behind the
// sender's address may sign.
func (tx *Tx) Sign(signer signature.Signer) error {
	if Address(signer.PublicKey()) != tx.Sender {
		return ErrUnauthorizedSigner
	}

	digest, err := hex.DecodeString(tx.ContentHash())
	if err != nil {
		return fmt.Errorf("decoding content hash: %w", err)
	}

	sig, err := signer.SignDigest(digest)
	if err != nil {
		return fmt.Errorf("signing content hash: %w", err)
	}

	tx.Signature = signature.EncodeSignature(sig)

	return nil
}

// IsValid verifies the signature against the sender. Reward transactions
// are always valid. A missing signature is an error, a signature that
// doesn't verify is not.
func (tx Tx) IsValid() (bool, error) {
	if tx.IsReward() {
		return true, nil
	}

	if tx.Signature == "" {
		return false, ErrMissingSignature
	}

	sig, err := signature.DecodeSignature(tx.Signature)
	if err != nil {
		return false, nil
	}

	digest, err := hex.DecodeString(tx.ContentHash())
	if err != nil {
		return false, nil
	}

	ok, err := signature.Verify(string(tx.Sender), digest, sig)
	if err != nil {
		return false, nil
	}

	return ok, nil
}

// SetHashFunc replaces the hash function used for the content hash.
func (tx *Tx) SetHashFunc(fn signature.HashFunc) {
	tx.hashFn = fn
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	from := string(tx.Sender)
	if tx.IsReward() {
		from = "reward"
	}

	return fmt.Sprintf("%s:%s:%d", short(from), short(string(tx.Recipient)), tx.Amount)
}

// short trims long addresses for log output.
func short(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:12]
}
