package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/redis"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/logger"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		State struct {
			MinerName     string        `conf:"default:miner1"`
			GenesisPath   string        `conf:"default:zblock/genesis.json"`
			Storage       string        `conf:"default:disk,help:disk|memory|redis"`
			DBPath        string        `conf:"default:zblock/blocks/"`
			HashAlgorithm string        `conf:"default:sha256,help:sha256|keccak256"`
			MiningTimeout time.Duration `conf:"default:50s"`
			AutoMineTxs   int           `conf:"default:0,help:pending transfers that trigger mining or 0 to disable"`
		}
		Redis struct {
			Addr      string        `conf:"default:0.0.0.0:6379"`
			Username  string
			Password  string        `conf:"mask"`
			DB        int           `conf:"default:0"`
			Namespace string        `conf:"default:ledger"`
			Timeout   time.Duration `conf:"default:5s"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "proof of work ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "LEDGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The names come from the file names in the zblock/accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	for address, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "address", address)
	}

	// =========================================================================
	// Ledger Support

	// The miner account gets credited with the mining reward when a mining
	// request does not name a reward address.
	path := filepath.Join(cfg.NameService.Folder, cfg.State.MinerName+".ecdsa")
	minerKey, err := signature.LoadPrivateKey(path)
	if err != nil {
		return fmt.Errorf("unable to load private key for node: %w", err)
	}

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis file: %w", err)
	}

	hashFn, err := hashFunc(cfg.State.HashAlgorithm)
	if err != nil {
		return err
	}

	storage, err := openStorage(cfg.State.Storage, cfg.State.DBPath, redis.Config{
		Addr:      cfg.Redis.Addr,
		Username:  cfg.Redis.Username,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		Namespace: cfg.Redis.Namespace,
		Timeout:   cfg.Redis.Timeout,
	})
	if err != nil {
		return fmt.Errorf("unable to open %s storage: %w", cfg.State.Storage, err)
	}

	// The ledger packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	ldgr, err := ledger.New(ledger.Config{
		Genesis:   gen,
		HashFunc:  hashFn,
		Storage:   storage,
		EvHandler: ev,
	})
	if err != nil {
		storage.Close()
		return err
	}
	defer ldgr.Shutdown()

	minerAddress := database.Address(minerKey.PublicKey())

	// The worker mines in the background once enough transfers are waiting.
	var wrk *worker.Worker
	if cfg.State.AutoMineTxs > 0 {
		wrk = worker.Run(worker.Config{
			Ledger:        ldgr,
			RewardAddress: minerAddress,
			Threshold:     cfg.State.AutoMineTxs,
			Timeout:       cfg.State.MiningTimeout,
			EvHandler:     ev,
		})
		defer wrk.Shutdown()
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, ldgr)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:      shutdown,
		Log:           log,
		Ledger:        ldgr,
		NS:            ns,
		Evts:          evts,
		Worker:        wrk,
		MinerAddress:  minerAddress,
		MiningTimeout: cfg.State.MiningTimeout,
	})

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// hashFunc maps the configured algorithm name to the hash function used
// for transactions and blocks.
func hashFunc(name string) (signature.HashFunc, error) {
	switch name {
	case "sha256":
		return signature.SHA256, nil
	case "keccak256":
		return signature.Keccak256, nil
	}
	return nil, fmt.Errorf("unknown hash algorithm %q", name)
}

// openStorage constructs the configured block storage.
func openStorage(kind string, dbPath string, redisCfg redis.Config) (database.Storage, error) {
	switch kind {
	case "disk":
		return disk.New(dbPath)
	case "memory":
		return memory.New(), nil
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), redisCfg.Timeout)
		defer cancel()
		return redis.New(ctx, redisCfg)
	}
	return nil, fmt.Errorf("unknown storage %q", kind)
}
