// Package config defines the polyscout configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration. Fields are populated from a TOML file and
// then overridden by POLYSCOUT_* environment variables.
type Config struct {
	Wallet     WalletConfig     `toml:"wallet"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	API        APIConfig        `toml:"api"`
	Discovery  DiscoveryConfig  `toml:"discovery"`
	Crypto     CryptoConfig     `toml:"crypto"`
	Reconcile  ReconcileConfig  `toml:"reconcile"`
	Storage    StorageConfig    `toml:"storage"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// WalletConfig identifies the trading account. The key is only used to sign
// read requests; nothing is ever submitted on-chain.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
	// BrowserAddress is the account (proxy wallet) address whose positions
	// and reward earnings are read.
	BrowserAddress string `toml:"browser_address"`
}

// PolymarketConfig holds API endpoints and chain parameters.
type PolymarketConfig struct {
	ClobHost     string   `toml:"clob_host"`
	GammaHost    string   `toml:"gamma_host"`
	DataHost     string   `toml:"data_host"`
	RewardsURL   string   `toml:"rewards_url"`
	ChainID      int      `toml:"chain_id"`
	RequestDelay duration `toml:"request_delay"`
}

// APIConfig holds CLOB L2 API credentials. When empty they are derived from
// the wallet key at startup.
type APIConfig struct {
	Key        string `toml:"key"`
	Secret     string `toml:"secret"`
	Passphrase string `toml:"passphrase"`
}

// DiscoveryConfig drives the full-catalog pass.
type DiscoveryConfig struct {
	Enabled       bool     `toml:"enabled"`
	Interval      duration `toml:"interval"`
	RetryInterval duration `toml:"retry_interval"`
	MakerReward   float64  `toml:"maker_reward"`
	MinMarkets    int      `toml:"min_markets"`
	VolatilityCap float64  `toml:"volatility_cap"`
}

// CryptoConfig drives the recurring crypto-market pass.
type CryptoConfig struct {
	Enabled       bool            `toml:"enabled"`
	Interval      duration        `toml:"interval"`
	RetryInterval duration        `toml:"retry_interval"`
	Plan          []ScanTargetCfg `toml:"plan"`
}

// ScanTargetCfg is one [[crypto.plan]] entry.
type ScanTargetCfg struct {
	Asset      string   `toml:"asset"`
	Recurrence string   `toml:"recurrence"`
	Horizon    duration `toml:"horizon"`
}

// ReconcileConfig drives the account reconciliation pass.
type ReconcileConfig struct {
	Enabled       bool     `toml:"enabled"`
	Interval      duration `toml:"interval"`
	RetryInterval duration `toml:"retry_interval"`
	// TreatFailedPositionsAsEmpty reconciles on orders alone when the
	// positions fetch fails instead of failing the pass.
	TreatFailedPositionsAsEmpty bool `toml:"treat_failed_positions_as_empty"`
}

// StorageConfig selects where datasets live.
type StorageConfig struct {
	// Backend is the primary store: "file" or "s3".
	Backend string `toml:"backend"`
	// Dir is the dataset directory of the file backend.
	Dir string `toml:"dir"`
}

// RedisConfig holds Redis connection parameters. When enabled, datasets are
// mirrored into Redis and passes take a cross-replica lock.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	DatasetTTL duration `toml:"dataset_ttl"`
	LockTTL    duration `toml:"lock_ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	// History keeps a timestamped copy of every write.
	History bool `toml:"history"`
}

// PostgresConfig holds PostgreSQL parameters. When enabled, every dataset
// write is kept as a snapshot and each pass run is recorded.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
	KeepSnapshots int    `toml:"keep_snapshots"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration lets TOML strings like "30m" decode into a time.Duration.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost:     "https://clob.polymarket.com",
			GammaHost:    "https://gamma-api.polymarket.com",
			DataHost:     "https://data-api.polymarket.com",
			RewardsURL:   "https://polymarket.com/api/rewards/markets",
			ChainID:      137,
			RequestDelay: duration{100 * time.Millisecond},
		},
		Discovery: DiscoveryConfig{
			Enabled:       true,
			Interval:      duration{time.Hour},
			RetryInterval: duration{30 * time.Minute},
			MakerReward:   0.75,
			MinMarkets:    50,
			VolatilityCap: 20,
		},
		Crypto: CryptoConfig{
			Enabled:       true,
			Interval:      duration{30 * time.Minute},
			RetryInterval: duration{30 * time.Minute},
		},
		Reconcile: ReconcileConfig{
			Enabled:       true,
			Interval:      duration{5 * time.Minute},
			RetryInterval: duration{30 * time.Minute},
		},
		Storage: StorageConfig{
			Backend: "file",
			Dir:     "config",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			LockTTL:    duration{2 * time.Hour},
		},
		S3: S3Config{
			Region:         "us-east-1",
			Bucket:         "polyscout-data",
			Prefix:         "datasets",
			ForcePathStyle: true,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "polyscout",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  1,
			RunMigrations: true,
			KeepSnapshots: 500,
		},
		Notify: NotifyConfig{
			Events: []string{"pass_failed"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// Modes.
const (
	ModeDiscover  = "discover"
	ModeCrypto    = "crypto"
	ModeReconcile = "reconcile"
	ModeOnce      = "once"
	ModeFull      = "full"
)

var validModes = map[string]bool{
	ModeDiscover:  true,
	ModeCrypto:    true,
	ModeReconcile: true,
	ModeOnce:      true,
	ModeFull:      true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validRecurrences = map[string]bool{
	"hourly": true,
	"15m":    true,
	"daily":  true,
}

// NeedsAccount reports whether the configured mode runs reconciliation.
func (c *Config) NeedsAccount() bool {
	switch strings.ToLower(c.Mode) {
	case ModeReconcile:
		return true
	case ModeOnce, ModeFull:
		return c.Reconcile.Enabled
	}
	return false
}

// Validate checks c and returns one error listing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: discover, crypto, reconcile, once, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.NeedsAccount() {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: private_key or encrypted_key_path is required to reconcile")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
		if c.Wallet.BrowserAddress == "" {
			errs = append(errs, "wallet: browser_address (or BROWSER_ADDRESS) is required to reconcile")
		}
	}

	ak, as, ap := c.API.Key != "", c.API.Secret != "", c.API.Passphrase != ""
	if (ak || as || ap) && !(ak && as && ap) {
		errs = append(errs, "api: key, secret and passphrase must all be set together")
	}

	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ChainID <= 0 {
		errs = append(errs, "polymarket: chain_id must be positive")
	}
	if c.Polymarket.RequestDelay.Duration < 0 {
		errs = append(errs, "polymarket: request_delay must not be negative")
	}

	for name, iv := range map[string][2]time.Duration{
		"discovery": {c.Discovery.Interval.Duration, c.Discovery.RetryInterval.Duration},
		"crypto":    {c.Crypto.Interval.Duration, c.Crypto.RetryInterval.Duration},
		"reconcile": {c.Reconcile.Interval.Duration, c.Reconcile.RetryInterval.Duration},
	} {
		if iv[0] <= 0 {
			errs = append(errs, name+": interval must be > 0")
		}
		if iv[1] <= 0 {
			errs = append(errs, name+": retry_interval must be > 0")
		}
	}

	if c.Discovery.MakerReward <= 0 || c.Discovery.MakerReward > 1 {
		errs = append(errs, fmt.Sprintf("discovery: maker_reward must be in (0, 1], got %g", c.Discovery.MakerReward))
	}
	if c.Discovery.MinMarkets < 0 {
		errs = append(errs, "discovery: min_markets must be >= 0")
	}

	for i, t := range c.Crypto.Plan {
		if t.Asset == "" {
			errs = append(errs, fmt.Sprintf("crypto: plan[%d] asset must not be empty", i))
		}
		if !validRecurrences[t.Recurrence] {
			errs = append(errs, fmt.Sprintf("crypto: plan[%d] recurrence %q (valid: hourly, 15m, daily)", i, t.Recurrence))
		}
		if t.Horizon.Duration <= 0 {
			errs = append(errs, fmt.Sprintf("crypto: plan[%d] horizon must be > 0", i))
		}
	}

	switch c.Storage.Backend {
	case "file":
		if c.Storage.Dir == "" {
			errs = append(errs, "storage: dir must not be empty for the file backend")
		}
	case "s3":
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage: unknown backend %q (valid: file, s3)", c.Storage.Backend))
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.LockTTL.Duration <= 0 {
			errs = append(errs, "redis: lock_ttl must be > 0")
		}
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
