// Package bootstrap is the composition root for the api, worker and CLI
// processes. Module code never reads config or opens connections itself.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	rewardallocation "sponsordesk/contexts/sponsor-review/reward-allocation"
	notifyadapter "sponsordesk/contexts/sponsor-review/reward-allocation/adapters/notify"
	postgresadapter "sponsordesk/contexts/sponsor-review/reward-allocation/adapters/postgres"
	workerapp "sponsordesk/contexts/sponsor-review/reward-allocation/application/workers"
	"sponsordesk/internal/platform/config"
	"sponsordesk/internal/platform/db"
	"sponsordesk/internal/platform/httpserver"
	"sponsordesk/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	bus          *messaging.Kafka
	outboxRelay  workerapp.OutboxRelay
	dispatcher   workerapp.NotificationDispatcher
	relayEnabled bool
	pollInterval time.Duration
	logger       *slog.Logger
}

// CLIApp backs the review command line tool with the same wiring as the API.
type CLIApp struct {
	Module     rewardallocation.Module
	Repository *postgresadapter.Repository
	postgres   *db.Postgres
}

func BuildAPI(configPath string) (*APIApp, error) {
	cfg, pg, logger, err := connect(configPath, "api")
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := newModule(cfg, repo, logger)
	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker(configPath string) (*WorkerApp, error) {
	cfg, pg, logger, err := connect(configPath, "worker")
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		bus:      kafka,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		dispatcher: workerapp.NotificationDispatcher{
			Subscriber:    kafka,
			Sender:        notifyadapter.LogSender{Logger: logger},
			ConsumerGroup: "reward-allocation-notifications-cg",
			Logger:        logger,
		},
		relayEnabled: cfg.EnableOutboxRelay,
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func BuildCLI(configPath string) (*CLIApp, error) {
	cfg, pg, logger, err := connect(configPath, "cli")
	if err != nil {
		return nil, err
	}
	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &CLIApp{
		Module:     newModule(cfg, repo, logger),
		Repository: repo,
		postgres:   pg,
	}, nil
}

func connect(configPath string, process string) (config.Config, *db.Postgres, *slog.Logger, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", process)
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return config.Config{}, nil, nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, pg, logger, nil
}

func newModule(cfg config.Config, repo *postgresadapter.Repository, logger *slog.Logger) rewardallocation.Module {
	return rewardallocation.NewModule(rewardallocation.Dependencies{
		Listings:       repo,
		Candidates:     repo,
		Idempotency:    repo,
		Outbox:         repo,
		Clock:          postgresadapter.SystemClock{},
		IDGenerator:    postgresadapter.UUIDGenerator{},
		BatchChunkSize: cfg.BatchChunkSize,
		ChunkTimeout:   cfg.BatchChunkTimeout,
		IdempotencyTTL: cfg.IdempotencyTTL,
		RepairWindow:   cfg.PublishRepairTTL,
		Logger:         logger,
	})
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Run(ctx)
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run relays the outbox on a fixed interval and dispatches notifications
// until ctx is cancelled or either loop fails.
func (w *WorkerApp) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if err := w.dispatcher.Start(groupCtx); err != nil {
		return err
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"outbox_relay_enabled", w.relayEnabled,
	)

	group.Go(func() error {
		if !w.relayEnabled {
			<-groupCtx.Done()
			return nil
		}
		return w.relayLoop(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		w.bus.Wait()
		return nil
	})
	return group.Wait()
}

func (w *WorkerApp) relayLoop(ctx context.Context) error {
	interval := w.pollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// RunOnce logs its own failures; unpublished rows stay pending for
		// the next tick.
		_ = w.outboxRelay.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func (c *CLIApp) Close() error {
	if c.postgres != nil {
		return c.postgres.Close()
	}
	return nil
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
