// Package worker implements automatic mining of the pending pool in the
// background.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Ledger is the behavior the worker needs from the ledger.
type Ledger interface {
	Pending() []database.Tx
	MinePendingTransactions(ctx context.Context, rewardAddress database.Address) (database.Block, error)
}

// EventHandler defines a function that is called when events
// occur in the processing of the worker.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the worker.
type Config struct {
	Ledger        Ledger
	RewardAddress database.Address
	Threshold     int
	Timeout       time.Duration
	EvHandler     EventHandler
}

// =============================================================================

// Worker manages the mining workflow for the node.
type Worker struct {
	ledger        Ledger
	rewardAddress database.Address
	threshold     int
	timeout       time.Duration
	evHandler     EventHandler

	wg           sync.WaitGroup
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan bool
}

// Run creates a worker and starts the mining goroutine.
func Run(cfg Config) *Worker {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	threshold := cfg.Threshold
	if threshold < 1 {
		threshold = 1
	}

	w := Worker{
		ledger:        cfg.Ledger,
		rewardAddress: cfg.RewardAddress,
		threshold:     threshold,
		timeout:       cfg.Timeout,
		evHandler:     ev,
		shut:          make(chan struct{}),
		startMining:   make(chan bool, 1),
		cancelMining:  make(chan bool, 1),
	}

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.miningOperations()
	}()

	<-hasStarted

	return &w
}

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// waiting counts the pending transfers. The reward priming the next block
// does not count.
func (w *Worker) waiting() int {
	var n int
	for _, tx := range w.ledger.Pending() {
		if !tx.IsReward() {
			n++
		}
	}
	return n
}
