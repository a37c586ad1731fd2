package public

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/nameservice"
)

// submitTx is the transaction a wallet submits to the pending pool.
type submitTx struct {
	Sender    database.Address `json:"sender" validate:"required"`
	Recipient database.Address `json:"recipient" validate:"required"`
	Amount    int64            `json:"amount"`
	Signature string           `json:"signature" validate:"required"`
}

// toDatabaseTx converts the submitted transaction for the ledger.
func (s submitTx) toDatabaseTx() database.Tx {
	tx := database.NewTx(s.Sender, s.Recipient, s.Amount)
	tx.Signature = s.Signature
	return tx
}

// mineRequest asks the node to mine the pending pool.
type mineRequest struct {
	RewardAddress string `json:"reward_address"`
}

type tx struct {
	Sender        database.Address `json:"sender"`
	SenderName    string           `json:"sender_name"`
	Recipient     database.Address `json:"recipient"`
	RecipientName string           `json:"recipient_name"`
	Amount        int64            `json:"amount"`
	Signature     string           `json:"signature,omitempty"`
	Reward        bool             `json:"reward"`
}

type block struct {
	Number       int    `json:"number"`
	TimeStamp    int64  `json:"timestamp"`
	PrevHash     string `json:"previousHash"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash"`
	Transactions []tx   `json:"transactions"`
}

type balance struct {
	Address     database.Address `json:"address"`
	Name        string           `json:"name"`
	Balance     int64            `json:"balance"`
	LatestBlock string           `json:"latest_block"`
	PendingTxs  int              `json:"pending"`
	ChainLength int              `json:"chain_length"`
}

type validity struct {
	Valid  bool `json:"valid"`
	Blocks int  `json:"blocks"`
}

// =============================================================================

func toTx(ns *nameservice.NameService, dbTx database.Tx) tx {
	senderName := "reward"
	if !dbTx.IsReward() {
		senderName = ns.Lookup(dbTx.Sender)
	}

	return tx{
		Sender:        dbTx.Sender,
		SenderName:    senderName,
		Recipient:     dbTx.Recipient,
		RecipientName: ns.Lookup(dbTx.Recipient),
		Amount:        dbTx.Amount,
		Signature:     dbTx.Signature,
		Reward:        dbTx.IsReward(),
	}
}

func toTxs(ns *nameservice.NameService, dbTxs []database.Tx) []tx {
	trans := make([]tx, len(dbTxs))
	for i, dbTx := range dbTxs {
		trans[i] = toTx(ns, dbTx)
	}
	return trans
}

func toBlock(ns *nameservice.NameService, number int, dbBlock database.Block) block {
	return block{
		Number:       number,
		TimeStamp:    dbBlock.TimeStamp,
		PrevHash:     dbBlock.PrevHash,
		Nonce:        dbBlock.Nonce,
		Hash:         dbBlock.Hash,
		Transactions: toTxs(ns, dbBlock.Transactions),
	}
}
