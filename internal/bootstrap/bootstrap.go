package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/paywallet/wallet_ledger/internal/config"
	"github.com/paywallet/wallet_ledger/internal/infra"
	"github.com/paywallet/wallet_ledger/internal/ledger"
	"github.com/paywallet/wallet_ledger/internal/notification"
	"github.com/paywallet/wallet_ledger/internal/owner"
	"github.com/paywallet/wallet_ledger/internal/reconcile"
	"github.com/paywallet/wallet_ledger/internal/wallet"
)

// Container holds the connections and services shared by the API server and
// the reconcile command.
type Container struct {
	Cfg    config.Config
	Logger *slog.Logger
	DB     *pgxpool.Pool
	Cache  *redis.Client

	Owners    *owner.Service
	Wallets   *wallet.Service
	Reconcile *reconcile.Job
	Scheduler *reconcile.Scheduler
}

// New connects to Postgres and Redis when configured, applies migrations and
// builds the services. Without DATABASE_URL the in-memory backends are used.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Cfg: cfg, Logger: logger}

	if cfg.DatabaseURL != "" {
		db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.DB = db
		if err := infra.Migrate(ctx, db); err != nil {
			c.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	if cfg.RedisURL != "" {
		cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Cache = cache
	}

	c.wire()
	return c, nil
}

// NewInMemory builds a container on the in-memory backends only.
func NewInMemory(cfg config.Config, logger *slog.Logger) *Container {
	c := &Container{Cfg: cfg, Logger: logger}
	c.wire()
	return c
}

func (c *Container) wire() {
	var (
		ownerRepo  owner.Repository
		walletRepo wallet.Repository
		store      ledger.Store
		source     reconcile.Source
	)
	if c.DB != nil {
		ownerRepo = owner.NewPostgresRepository(c.DB)
		walletRepo = wallet.NewPostgresRepository(c.DB)
		store = ledger.NewPostgresStore(c.DB)
		source = reconcile.NewPostgresSource(c.DB)
	} else {
		ownerRepo = owner.NewMemoryRepository()
		walletRepo = wallet.NewMemoryRepository()
		store = ledger.NewInMemory()
		source = reconcile.NewStoreSource(walletRepo, store)
	}

	c.Owners = owner.NewService(ownerRepo)
	writer := ledger.NewWriter(store, c.Logger)
	c.Wallets = wallet.NewService(walletRepo, c.Owners, store, writer, c.Cfg.DefaultCurrency, c.Logger)

	scanner := reconcile.NewScanner(source, c.Cfg.ReconcilePageSize, c.Logger)
	notifier := notification.NewLoggerNotifier(c.Logger)
	c.Reconcile = reconcile.NewJob(scanner, reconcile.NewCSVReportWriter(c.Cfg.ReportDir), notifier, c.Logger)

	var locker reconcile.Locker
	if c.Cache != nil {
		locker = reconcile.NewRedisLock(c.Cache, reconcile.DefaultLockKey, c.Cfg.ReconcileLockTTL)
	}
	c.Scheduler = reconcile.NewScheduler(c.Reconcile, c.Cfg.ReconcileInterval, locker, c.Logger)
}

// Close releases the connections opened by New.
func (c *Container) Close() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("close redis", slog.Any("error", err))
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
