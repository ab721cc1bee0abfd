package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	electionservice "payparty/contexts/party/election-service"
	electionethereum "payparty/contexts/party/election-service/adapters/ethereum"
	electionmemory "payparty/contexts/party/election-service/adapters/memory"
	"payparty/contexts/party/election-service/adapters/natskv"
	electionpostgres "payparty/contexts/party/election-service/adapters/postgres"
	electionworkers "payparty/contexts/party/election-service/application/workers"
	electionports "payparty/contexts/party/election-service/ports"
	payoutservice "payparty/contexts/party/payout-service"
	payoutethereum "payparty/contexts/party/payout-service/adapters/ethereum"
	payoutmemory "payparty/contexts/party/payout-service/adapters/memory"
	payoutpostgres "payparty/contexts/party/payout-service/adapters/postgres"
	"payparty/contexts/party/payout-service/adapters/receiptsink"
	payoutworkers "payparty/contexts/party/payout-service/application/workers"
	payoutports "payparty/contexts/party/payout-service/ports"
	"payparty/internal/app/partybridge"
	"payparty/internal/platform/config"
	"payparty/internal/platform/db"
	platformethereum "payparty/internal/platform/ethereum"
	"payparty/internal/platform/httpserver"
	"payparty/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server *httpserver.Server
	// loop is set only for the memory store, where no other process can see
	// the outbox or the pending receipts.
	loop    *workerLoop
	runtime *runtime
	logger  *slog.Logger
}

type WorkerApp struct {
	loop    *workerLoop
	runtime *runtime
	logger  *slog.Logger
}

type workerLoop struct {
	outboxRelay  *electionworkers.OutboxRelay
	receipts     payoutworkers.ReceiptRetrier
	pollInterval time.Duration
	logger       *slog.Logger
}

type runtime struct {
	elections electionservice.Module
	payouts   payoutservice.Module
	outbox    electionports.OutboxRepository
	publisher electionports.EventPublisher
	closers   []func() error
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg).With("service", cfg.ServiceName, "process", "api")

	rt, err := build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &APIApp{
		server:  httpserver.New(rt.elections, rt.payouts, logger, normalizeAddr(cfg.HTTPPort)),
		runtime: rt,
		logger:  logger,
	}
	if cfg.DocumentStore == config.DocumentStoreMemory {
		app.loop = newWorkerLoop(cfg, rt, logger)
	}
	return app, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg).With("service", cfg.ServiceName, "process", "worker")
	if cfg.DocumentStore == config.DocumentStoreMemory {
		logger.Warn("worker running against a private memory store",
			"event", "bootstrap_worker_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	rt, err := build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{
		loop:    newWorkerLoop(cfg, rt, logger),
		runtime: rt,
		logger:  logger,
	}, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT. An
// unknown level falls back to info.
func NewLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	options := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, options))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, options))
}

func build(ctx context.Context, cfg config.Config, logger *slog.Logger) (rt *runtime, err error) {
	rt = &runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close()
			rt = nil
		}
	}()

	var natsClient *messaging.Client
	if cfg.DocumentStore == config.DocumentStoreNATS {
		natsClient, err = messaging.Connect(cfg.NATSURL)
		if err != nil {
			return rt, err
		}
		rt.closers = append(rt.closers, func() error {
			natsClient.Close()
			return nil
		})
		rt.publisher, err = messaging.NewJetStream(ctx, natsClient.JetStream, cfg.NATSStream, messaging.DefaultSubjectPrefix, logger)
		if err != nil {
			return rt, err
		}
	} else {
		rt.publisher = messaging.NewBus(logger)
	}

	var pg *db.Postgres
	if cfg.PostgresDSN != "" && cfg.DocumentStore != config.DocumentStoreMemory {
		pg, err = db.Connect(ctx, cfg.PostgresDSN, db.Options{}, logger)
		if err != nil {
			return rt, err
		}
		rt.closers = append(rt.closers, pg.Close)
	}

	electionDeps := electionservice.Dependencies{
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         logger,
	}
	switch cfg.DocumentStore {
	case config.DocumentStoreMemory:
		store := electionmemory.NewStore(nil)
		electionDeps.Documents = store
		electionDeps.Idempotency = store
		electionDeps.Outbox = store
		electionDeps.Clock = store
		electionDeps.IDGen = store
		rt.outbox = store
	case config.DocumentStorePostgres:
		repo := electionpostgres.NewRepository(pg.DB, logger)
		if cfg.AutoMigrate {
			if err = repo.AutoMigrate(ctx); err != nil {
				return rt, err
			}
		}
		electionDeps.Documents = repo
		electionDeps.Idempotency = repo
		electionDeps.Outbox = repo
		electionDeps.Clock = electionpostgres.SystemClock{}
		electionDeps.IDGen = electionpostgres.UUIDGenerator{}
		rt.outbox = repo
	case config.DocumentStoreNATS:
		var store *natskv.Store
		store, err = natskv.NewStore(ctx, natsClient.JetStream, natskv.Config{
			IdempotencyTTL:     cfg.IdempotencyTTL,
			EventSubjectPrefix: messaging.DefaultSubjectPrefix,
		}, logger)
		if err != nil {
			return rt, err
		}
		electionDeps.Documents = store
		electionDeps.Idempotency = store
		electionDeps.Outbox = store
		electionDeps.Clock = electionpostgres.SystemClock{}
		electionDeps.IDGen = electionpostgres.UUIDGenerator{}
	default:
		return rt, fmt.Errorf("unknown DOCUMENT_STORE %q", cfg.DocumentStore)
	}

	var gateway payoutports.PaymentGateway
	if cfg.ChainEnabled() {
		var client *platformethereum.Client
		client, err = platformethereum.Dial(ctx, platformethereum.Config{
			RPCURL:           cfg.EthereumRPCURL,
			DiplomatContract: cfg.DiplomatContract,
			SignerPrivateKey: cfg.SignerPrivateKey,
			ChainID:          cfg.ChainID,
		})
		if err != nil {
			return rt, err
		}
		rt.closers = append(rt.closers, func() error {
			client.Close()
			return nil
		})
		if gateway, err = payoutethereum.NewGateway(client, logger); err != nil {
			return rt, err
		}
		if cfg.EnableChainAnchoring {
			var anchor *electionethereum.Anchor
			if anchor, err = electionethereum.NewAnchor(client, logger); err != nil {
				return rt, err
			}
			electionDeps.Anchor = anchor
		}
	} else {
		logger.Warn("chain not configured, payouts run in dry-run mode",
			"event", "bootstrap_payout_dry_run",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		gateway = payoutmemory.NewGateway()
	}

	var receipts payoutports.ReceiptSink
	if cfg.ReceiptAPIURL != "" {
		receipts = receiptsink.NewClient(cfg.ReceiptAPIURL, nil, logger)
	} else {
		receipts = payoutmemory.NewReceiptLog()
	}

	payoutDeps := payoutservice.Dependencies{
		Gateway:            gateway,
		Receipts:           receipts,
		Events:             rt.publisher,
		ReceiptBatchSize:   cfg.OutboxBatchSize,
		ReceiptMaxAttempts: cfg.ReceiptMaxAttempts,
		Logger:             logger,
	}
	if pg != nil {
		repo := payoutpostgres.NewRepository(pg.DB, logger)
		if cfg.AutoMigrate {
			if err = repo.AutoMigrate(ctx); err != nil {
				return rt, err
			}
		}
		payoutDeps.Repository = repo
		payoutDeps.Clock = electionpostgres.SystemClock{}
		payoutDeps.IDGen = electionpostgres.UUIDGenerator{}
	} else {
		store := payoutmemory.NewStore()
		payoutDeps.Repository = store
		payoutDeps.Clock = store
		payoutDeps.IDGen = store
	}

	rt.elections = electionservice.NewModule(electionDeps)
	payoutDeps.Elections = partybridge.New(rt.elections)
	rt.payouts = payoutservice.NewModule(payoutDeps)

	logger.Info("runtime wired",
		"event", "bootstrap_runtime_wired",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"document_store", cfg.DocumentStore,
		"chain_enabled", cfg.ChainEnabled(),
		"chain_anchoring", electionDeps.Anchor != nil,
		"receipt_api", cfg.ReceiptAPIURL != "",
	)
	return rt, nil
}

func newWorkerLoop(cfg config.Config, rt *runtime, logger *slog.Logger) *workerLoop {
	loop := &workerLoop{
		receipts:     rt.payouts.ReceiptRetrier,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}
	if loop.pollInterval <= 0 {
		loop.pollInterval = 2 * time.Second
	}
	// The NATS store publishes events as it writes them; there is no outbox
	// table to drain.
	if rt.outbox != nil {
		loop.outboxRelay = &electionworkers.OutboxRelay{
			Outbox:    rt.outbox,
			Publisher: rt.publisher,
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		}
	}
	return loop
}

func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	if a.loop != nil {
		go func() {
			if err := a.loop.Run(ctx); err != nil {
				a.logger.Error("in-process worker loop stopped",
					"event", "bootstrap_api_worker_stopped",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}()
	}
	return a.server.Start()
}

func (a *APIApp) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *APIApp) Close() error {
	if a.runtime != nil {
		return a.runtime.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	return w.loop.Run(ctx)
}

func (w *WorkerApp) Close() error {
	if w.runtime != nil {
		return w.runtime.Close()
	}
	return nil
}

// Run drains the outbox and retries pending receipts every poll interval.
// Cycle failures are logged and retried on the next tick; only context
// cancellation stops the loop.
func (l *workerLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	l.logger.Info("worker loop started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", l.pollInterval.String(),
		"outbox_relay", l.outboxRelay != nil,
	)

	for {
		l.runCycle(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (l *workerLoop) runCycle(ctx context.Context) {
	if l.outboxRelay != nil {
		if _, err := l.outboxRelay.RunOnce(ctx); err != nil && ctx.Err() == nil {
			l.logger.Error("outbox relay cycle failed",
				"event", "bootstrap_outbox_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}
	if _, err := l.receipts.RunOnce(ctx); err != nil && ctx.Err() == nil {
		l.logger.Error("receipt retry cycle failed",
			"event", "bootstrap_receipt_cycle_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
