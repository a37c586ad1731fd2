// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log           *zap.SugaredLogger
	Ledger        *ledger.Ledger
	NS            *nameservice.NameService
	WS            websocket.Upgrader
	Evts          *events.Events
	Worker        *worker.Worker
	MinerAddress  database.Address
	MiningTimeout time.Duration
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the ledger.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// This starts a ticker to send a ping to the client.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a signed transaction to the pending pool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var stx submitTx
	if err := web.Decode(r, &stx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(stx); err != nil {
		return err
	}

	dbTx := stx.toDatabaseTx()

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", dbTx, "sender", h.NS.Lookup(dbTx.Sender), "recipient", h.NS.Lookup(dbTx.Recipient), "amount", dbTx.Amount)

	if err := h.Ledger.AddTransaction(dbTx); err != nil {
		switch {
		case errors.Is(err, ledger.ErrIncompleteTransaction),
			errors.Is(err, ledger.ErrInvalidTransaction),
			errors.Is(err, database.ErrMissingSignature):
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	// Let the auto miner check the pool when it's running.
	if h.Worker != nil {
		h.Worker.SignalStartMining()
	}

	resp := struct {
		Status  string `json:"status"`
		Pending int    `json:"pending"`
	}{
		Status:  "transaction added to pending pool",
		Pending: len(h.Ledger.Pending()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine packages the pending pool into a new block. The reward goes to the
// requested address, or the node's miner when none is provided.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req mineRequest
	if r.ContentLength != 0 {
		if err := web.Decode(r, &req); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	rewardAddress := h.MinerAddress
	if req.RewardAddress != "" {
		rewardAddress = h.resolve(req.RewardAddress)
	}

	if h.MiningTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.MiningTimeout)
		defer cancel()
	}

	dbBlock, err := h.Ledger.MinePendingTransactions(ctx, rewardAddress)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrIncompleteTransaction):
			return errs.NewTrusted(err, http.StatusBadRequest)
		case errors.Is(err, context.DeadlineExceeded):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}
		return err
	}

	number, _ := h.Ledger.BlockNumber(dbBlock.Hash)

	return web.Respond(ctx, w, toBlock(h.NS, int(number), dbBlock), http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Ledger.Genesis(), http.StatusOK)
}

// Chain returns every block in the chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlocks := h.Ledger.Chain()

	blocks := make([]block, len(dbBlocks))
	for i, dbBlock := range dbBlocks {
		blocks[i] = toBlock(h.NS, i, dbBlock)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// BlocksByAddress returns the blocks holding transactions for the address.
func (h Handlers) BlocksByAddress(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := h.resolve(web.Param(r, "address"))

	dbBlocks := h.Ledger.QueryBlocksByAddress(address)
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, dbBlock := range dbBlocks {
		blocks[i] = toBlock(h.NS, -1, dbBlock)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// LatestBlock returns the last block in the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlock, number := h.Ledger.Tip()
	return web.Respond(ctx, w, toBlock(h.NS, int(number), dbBlock), http.StatusOK)
}

// Validate checks the integrity of the whole chain.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	valid, blocks := h.Ledger.Validity()

	resp := validity{
		Valid:  valid,
		Blocks: blocks,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Pending returns the set of transactions waiting to be mined.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toTxs(h.NS, h.Ledger.Pending()), http.StatusOK)
}

// Balance returns the balance for the address derived from the whole chain.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := h.resolve(web.Param(r, "address"))
	dbBlock, number := h.Ledger.Tip()

	resp := balance{
		Address:     address,
		Name:        h.NS.Lookup(address),
		Balance:     h.Ledger.BalanceOf(address),
		LatestBlock: dbBlock.Hash,
		PendingTxs:  len(h.Ledger.Pending()),
		ChainLength: int(number) + 1,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// resolve accepts either an address or a name known to the name service.
func (h Handlers) resolve(s string) database.Address {
	if address, exists := h.NS.Resolve(s); exists {
		return address
	}
	return database.Address(s)
}
