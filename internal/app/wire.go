package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/polyscout/internal/blob/s3"
	"github.com/alanyoungcy/polyscout/internal/cache/redis"
	"github.com/alanyoungcy/polyscout/internal/config"
	"github.com/alanyoungcy/polyscout/internal/crypto"
	"github.com/alanyoungcy/polyscout/internal/datasets"
	"github.com/alanyoungcy/polyscout/internal/discovery"
	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/notify"
	"github.com/alanyoungcy/polyscout/internal/pipeline"
	"github.com/alanyoungcy/polyscout/internal/platform/polymarket"
	"github.com/alanyoungcy/polyscout/internal/reconcile"
	"github.com/alanyoungcy/polyscout/internal/store/file"
	"github.com/alanyoungcy/polyscout/internal/store/postgres"
)

// Dependencies bundles everything the modes need. It is constructed by Wire
// and torn down by the returned cleanup function.
type Dependencies struct {
	Sink     *datasets.Sink
	Runner   *pipeline.Runner
	Notifier *notify.Notifier

	// Passes. Reconcile is nil when no wallet is configured.
	Discovery *pipeline.DiscoveryPass
	Crypto    *pipeline.CryptoPass
	Reconcile *pipeline.ReconcilePass
}

// Wire constructs all concrete implementations from cfg and returns them
// together with a cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{}

	var (
		primary domain.DatasetStore
		mirrors []domain.DatasetStore
		lock    domain.LockManager
		audit   domain.PassAuditStore
	)

	// --- Primary dataset store ---
	switch cfg.Storage.Backend {
	case "s3":
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		if err := s3Client.Health(ctx); err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		primary = s3blob.NewDatasetStore(s3Client, cfg.S3.Prefix, cfg.S3.History)
	default:
		fs, err := file.New(cfg.Storage.Dir)
		if err != nil {
			return fail(fmt.Errorf("wire: file store: %w", err))
		}
		primary = fs
	}

	// --- Redis mirror and pass lock ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		mirrors = append(mirrors, redis.NewDatasetStore(redisClient, cfg.Redis.DatasetTTL.Duration))
		lock = redis.NewLockManager(redisClient)
	}

	// --- PostgreSQL snapshots and run audit ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("wire: postgres migrations: %w", err))
			}
		}

		pool := pgClient.Pool()
		mirrors = append(mirrors, postgres.NewDatasetStore(pool, cfg.Postgres.KeepSnapshots))
		audit = postgres.NewPassRunStore(pool)
	}

	deps.Sink = datasets.NewSink(primary, mirrors, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			notify.DefaultTelegramAPI,
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Polymarket clients ---
	var signer *crypto.Signer
	keySrc := crypto.KeySource{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	}
	if keySrc.Configured() {
		key, err := crypto.ResolveKey(keySrc)
		if err != nil {
			return fail(fmt.Errorf("wire: wallet: %w", err))
		}
		signer, err = crypto.NewSigner(key, cfg.Polymarket.ChainID)
		if err != nil {
			return fail(fmt.Errorf("wire: wallet: %w", err))
		}
	}
	creds := crypto.APICreds{
		Key:        cfg.API.Key,
		Secret:     cfg.API.Secret,
		Passphrase: cfg.API.Passphrase,
	}

	delay := cfg.Polymarket.RequestDelay.Duration
	clob := polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, creds)
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost)

	// --- Passes ---
	builder := discovery.NewCatalogBuilder(clob, clob, cfg.Discovery.MakerReward, delay, logger)
	deps.Discovery = pipeline.NewDiscoveryPass(builder, deps.Sink,
		cfg.Discovery.MinMarkets, cfg.Discovery.VolatilityCap, logger)

	scanner := discovery.NewScanner(gamma, discovery.NewNormalizer(clob, logger),
		scanPlan(cfg.Crypto.Plan), delay, logger)
	deps.Crypto = pipeline.NewCryptoPass(scanner, deps.Sink)

	if signer != nil && cfg.Wallet.BrowserAddress != "" {
		deps.Reconcile = pipeline.NewReconcilePass(pipeline.ReconcileSources{
			Orders:    clob,
			Positions: polymarket.NewDataClient(cfg.Polymarket.DataHost),
			Earnings:  polymarket.NewRewardsClient(cfg.Polymarket.RewardsURL, cfg.Wallet.BrowserAddress, clob),
			Address:   cfg.Wallet.BrowserAddress,
		}, deps.Sink, reconcile.NewEngine(logger), cfg.Reconcile.TreatFailedPositionsAsEmpty, logger)
	}

	deps.Runner = pipeline.NewRunner(lock, cfg.Redis.LockTTL.Duration, audit, deps.Notifier, logger)

	return deps, cleanup, nil
}

// scanPlan converts configured plan entries, falling back to the default
// plan when none are configured.
func scanPlan(entries []config.ScanTargetCfg) []discovery.ScanTarget {
	if len(entries) == 0 {
		return discovery.DefaultScanPlan()
	}
	plan := make([]discovery.ScanTarget, 0, len(entries))
	for _, e := range entries {
		plan = append(plan, discovery.ScanTarget{
			Asset:      e.Asset,
			Recurrence: domain.Recurrence(e.Recurrence),
			Horizon:    e.Horizon.Duration,
		})
	}
	return plan
}

// schedule builds a pass schedule from configured durations.
func schedule(interval, retry time.Duration) pipeline.Schedule {
	return pipeline.Schedule{Interval: interval, RetryInterval: retry}
}
