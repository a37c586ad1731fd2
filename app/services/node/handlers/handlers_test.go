package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/client"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type node struct {
	url     string
	client  *client.Client
	ledger  *ledger.Ledger
	miner   signature.PrivateKey
	kennedy signature.PrivateKey
}

// startNode runs the public API over a memory ledger. The wrap function,
// when provided, sits in front of the API.
func startNode(t *testing.T, wrap func(http.Handler) http.Handler) node {
	t.Helper()

	folder := t.TempDir()

	miner, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate the miner key: %v", failed, err)
	}
	if err := miner.Save(filepath.Join(folder, "miner1.ecdsa")); err != nil {
		t.Fatalf("\t%s\tShould be able to save the miner key: %v", failed, err)
	}

	kennedy, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate the account key: %v", failed, err)
	}
	if err := kennedy.Save(filepath.Join(folder, "kennedy.ecdsa")); err != nil {
		t.Fatalf("\t%s\tShould be able to save the account key: %v", failed, err)
	}

	ns, err := nameservice.New(folder)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the name service: %v", failed, err)
	}

	ldgr, err := ledger.New(ledger.Config{Storage: memory.New()})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the ledger: %v", failed, err)
	}

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:      make(chan os.Signal, 1),
		Log:           zap.NewNop().Sugar(),
		Ledger:        ldgr,
		NS:            ns,
		Evts:          events.New(),
		MinerAddress:  database.Address(miner.PublicKey()),
		MiningTimeout: time.Minute,
	})

	if wrap != nil {
		mux = wrap(mux)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return node{
		url:     srv.URL,
		client:  client.New(srv.URL, client.WithRetry(0, time.Millisecond, time.Millisecond)),
		ledger:  ldgr,
		miner:   miner,
		kennedy: kennedy,
	}
}

func Test_PublicAPI(t *testing.T) {
	t.Log("Given the need to drive the ledger through the public API.")
	{
		n := startNode(t, nil)
		ctx := context.Background()

		minerAddr := database.Address(n.miner.PublicKey())
		kennedyAddr := database.Address(n.kennedy.PublicKey())

		blk, err := n.client.Mine(ctx, "")
		if err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to mine the empty pool: %v", failed, err)
		}
		if blk.Number != 1 || len(blk.Transactions) != 1 || !blk.Transactions[0].Reward || blk.Transactions[0].RecipientName != "miner1" {
			t.Fatalf("\t%s\tTest 0:\tShould pay the reward to the node's miner: %+v", failed, blk)
		}
		t.Logf("\t%s\tTest 0:\tShould pay the reward to the node's miner.", success)

		tx := database.NewTx(minerAddr, kennedyAddr, 30)
		if err := tx.Sign(n.miner); err != nil {
			t.Fatalf("\t%s\tTest 1:\tShould be able to sign the transaction: %v", failed, err)
		}
		if err := n.client.SubmitTransaction(ctx, tx); err != nil {
			t.Fatalf("\t%s\tTest 1:\tShould accept a signed transaction: %v", failed, err)
		}
		t.Logf("\t%s\tTest 1:\tShould accept a signed transaction.", success)

		unsigned := database.NewTx(minerAddr, kennedyAddr, 30)
		if err := n.client.SubmitTransaction(ctx, unsigned); !errors.Is(err, client.ErrNodeReturnedError) {
			t.Fatalf("\t%s\tTest 2:\tShould reject an unsigned transaction: %v", failed, err)
		}
		t.Logf("\t%s\tTest 2:\tShould reject an unsigned transaction.", success)

		tampered := tx
		tampered.Amount = 3000
		if err := n.client.SubmitTransaction(ctx, tampered); !errors.Is(err, client.ErrNodeReturnedError) {
			t.Fatalf("\t%s\tTest 3:\tShould reject a tampered transaction: %v", failed, err)
		}
		t.Logf("\t%s\tTest 3:\tShould reject a tampered transaction.", success)

		blk, err = n.client.Mine(ctx, "kennedy")
		if err != nil {
			t.Fatalf("\t%s\tTest 4:\tShould be able to mine the pool: %v", failed, err)
		}
		if blk.Number != 2 || len(blk.Transactions) != 3 {
			t.Fatalf("\t%s\tTest 4:\tShould mine the primed reward, the transfer and the new reward: %+v", failed, blk)
		}
		t.Logf("\t%s\tTest 4:\tShould mine the primed reward, the transfer and the new reward.", success)

		bal, err := n.client.Balance(ctx, "kennedy")
		if err != nil {
			t.Fatalf("\t%s\tTest 5:\tShould be able to query a balance by name: %v", failed, err)
		}
		if bal.Address != kennedyAddr || bal.Balance != 130 || bal.ChainLength != 3 || bal.PendingTxs != 1 {
			t.Fatalf("\t%s\tTest 5:\tShould see the transfer plus the reward: %+v", failed, bal)
		}
		t.Logf("\t%s\tTest 5:\tShould see the transfer plus the reward.", success)

		bal, err = n.client.Balance(ctx, string(minerAddr))
		if err != nil {
			t.Fatalf("\t%s\tTest 6:\tShould be able to query a balance by address: %v", failed, err)
		}
		if bal.Name != "miner1" || bal.Balance != 170 {
			t.Fatalf("\t%s\tTest 6:\tShould see two rewards less the transfer: %+v", failed, bal)
		}
		t.Logf("\t%s\tTest 6:\tShould see two rewards less the transfer.", success)

		validity, err := n.client.Validate(ctx)
		if err != nil {
			t.Fatalf("\t%s\tTest 7:\tShould be able to validate the chain: %v", failed, err)
		}
		if !validity.Valid || validity.Blocks != 3 {
			t.Fatalf("\t%s\tTest 7:\tShould report a valid chain of three blocks: %+v", failed, validity)
		}
		t.Logf("\t%s\tTest 7:\tShould report a valid chain of three blocks.", success)

		blocks, err := n.client.Chain(ctx)
		if err != nil {
			t.Fatalf("\t%s\tTest 8:\tShould be able to read the chain: %v", failed, err)
		}
		for i := 1; i < len(blocks); i++ {
			if blocks[i].PrevHash != blocks[i-1].Hash {
				t.Fatalf("\t%s\tTest 8:\tShould link block %d to its predecessor.", failed, i)
			}
		}
		t.Logf("\t%s\tTest 8:\tShould link every block to its predecessor.", success)
	}
}

func Test_SubmitIsSentOnce(t *testing.T) {
	t.Log("Given the need to submit a transaction exactly once when the node is slow to answer.")
	{
		var requests atomic.Int32
		slowFirst := func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				h.ServeHTTP(w, r)
				if requests.Add(1) == 1 {
					time.Sleep(300 * time.Millisecond)
				}
			})
		}

		n := startNode(t, slowFirst)
		c := client.New(n.url, client.WithTimeout(100*time.Millisecond), client.WithRetry(2, 10*time.Millisecond, 10*time.Millisecond))

		minerAddr := database.Address(n.miner.PublicKey())
		kennedyAddr := database.Address(n.kennedy.PublicKey())

		tx := database.NewTx(minerAddr, kennedyAddr, 5)
		if err := tx.Sign(n.miner); err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}

		if err := c.SubmitTransaction(context.Background(), tx); err == nil {
			t.Fatalf("\t%s\tShould time out waiting for the slow response.", failed)
		}
		t.Logf("\t%s\tShould time out waiting for the slow response.", success)

		// Give a resent request time to arrive.
		time.Sleep(200 * time.Millisecond)

		if got := requests.Load(); got != 1 {
			t.Fatalf("\t%s\tShould send the submission once: got %d requests", failed, got)
		}
		t.Logf("\t%s\tShould send the submission once.", success)

		if got := len(n.ledger.Pending()); got != 1 {
			t.Fatalf("\t%s\tShould hold one pending transaction: got %d", failed, got)
		}
		t.Logf("\t%s\tShould hold one pending transaction.", success)
	}
}

func Test_ReadsAreRetried(t *testing.T) {
	t.Log("Given the need to retry reads when the node is briefly unavailable.")
	{
		var requests atomic.Int32
		failFirst := func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if requests.Add(1) == 1 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				h.ServeHTTP(w, r)
			})
		}

		n := startNode(t, failFirst)
		c := client.New(n.url, client.WithRetry(2, 10*time.Millisecond, 10*time.Millisecond))

		validity, err := c.Validate(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould succeed on the second attempt: %v", failed, err)
		}
		if !validity.Valid || validity.Blocks != 1 || requests.Load() != 2 {
			t.Fatalf("\t%s\tShould succeed on the second attempt: %+v requests[%d]", failed, validity, requests.Load())
		}
		t.Logf("\t%s\tShould succeed on the second attempt.", success)
	}
}
