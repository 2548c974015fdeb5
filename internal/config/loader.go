package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load merges the TOML file at path over Defaults and applies environment
// overrides, including any set in a .env file in the working directory. An
// empty path or a missing file leaves the defaults in place. The result is
// not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides copies POLYSCOUT_* variables over the matching fields.
// BROWSER_ADDRESS is honoured as well since the trading tools already set it.
func applyEnvOverrides(cfg *Config) {
	// Wallet
	setStr(&cfg.Wallet.PrivateKey, "POLYSCOUT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "POLYSCOUT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "POLYSCOUT_WALLET_KEY_PASSWORD")
	setStr(&cfg.Wallet.BrowserAddress, "BROWSER_ADDRESS")
	setStr(&cfg.Wallet.BrowserAddress, "POLYSCOUT_WALLET_BROWSER_ADDRESS")

	// Polymarket
	setStr(&cfg.Polymarket.ClobHost, "POLYSCOUT_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "POLYSCOUT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.DataHost, "POLYSCOUT_POLYMARKET_DATA_HOST")
	setStr(&cfg.Polymarket.RewardsURL, "POLYSCOUT_POLYMARKET_REWARDS_URL")
	setInt(&cfg.Polymarket.ChainID, "POLYSCOUT_POLYMARKET_CHAIN_ID")
	setDuration(&cfg.Polymarket.RequestDelay, "POLYSCOUT_POLYMARKET_REQUEST_DELAY")

	// API credentials
	setStr(&cfg.API.Key, "POLYSCOUT_API_KEY")
	setStr(&cfg.API.Secret, "POLYSCOUT_API_SECRET")
	setStr(&cfg.API.Passphrase, "POLYSCOUT_API_PASSPHRASE")

	// Passes
	setBool(&cfg.Discovery.Enabled, "POLYSCOUT_DISCOVERY_ENABLED")
	setDuration(&cfg.Discovery.Interval, "POLYSCOUT_DISCOVERY_INTERVAL")
	setDuration(&cfg.Discovery.RetryInterval, "POLYSCOUT_DISCOVERY_RETRY_INTERVAL")
	setFloat64(&cfg.Discovery.MakerReward, "POLYSCOUT_DISCOVERY_MAKER_REWARD")
	setInt(&cfg.Discovery.MinMarkets, "POLYSCOUT_DISCOVERY_MIN_MARKETS")
	setFloat64(&cfg.Discovery.VolatilityCap, "POLYSCOUT_DISCOVERY_VOLATILITY_CAP")

	setBool(&cfg.Crypto.Enabled, "POLYSCOUT_CRYPTO_ENABLED")
	setDuration(&cfg.Crypto.Interval, "POLYSCOUT_CRYPTO_INTERVAL")
	setDuration(&cfg.Crypto.RetryInterval, "POLYSCOUT_CRYPTO_RETRY_INTERVAL")

	setBool(&cfg.Reconcile.Enabled, "POLYSCOUT_RECONCILE_ENABLED")
	setDuration(&cfg.Reconcile.Interval, "POLYSCOUT_RECONCILE_INTERVAL")
	setDuration(&cfg.Reconcile.RetryInterval, "POLYSCOUT_RECONCILE_RETRY_INTERVAL")
	setBool(&cfg.Reconcile.TreatFailedPositionsAsEmpty, "POLYSCOUT_RECONCILE_TREAT_FAILED_POSITIONS_AS_EMPTY")

	// Storage
	setStr(&cfg.Storage.Backend, "POLYSCOUT_STORAGE_BACKEND")
	setStr(&cfg.Storage.Dir, "POLYSCOUT_STORAGE_DIR")

	// Redis
	setBool(&cfg.Redis.Enabled, "POLYSCOUT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYSCOUT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYSCOUT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYSCOUT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYSCOUT_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "POLYSCOUT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.LockTTL, "POLYSCOUT_REDIS_LOCK_TTL")

	// S3
	setStr(&cfg.S3.Endpoint, "POLYSCOUT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYSCOUT_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYSCOUT_S3_BUCKET")
	setStr(&cfg.S3.Prefix, "POLYSCOUT_S3_PREFIX")
	setStr(&cfg.S3.AccessKey, "POLYSCOUT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYSCOUT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLYSCOUT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLYSCOUT_S3_FORCE_PATH_STYLE")

	// Postgres
	setBool(&cfg.Postgres.Enabled, "POLYSCOUT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "POLYSCOUT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "POLYSCOUT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POLYSCOUT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "POLYSCOUT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "POLYSCOUT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POLYSCOUT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "POLYSCOUT_POSTGRES_SSL_MODE")

	// Notify
	setStr(&cfg.Notify.TelegramToken, "POLYSCOUT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYSCOUT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYSCOUT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYSCOUT_NOTIFY_EVENTS")

	setStr(&cfg.Mode, "POLYSCOUT_MODE")
	setStr(&cfg.LogLevel, "POLYSCOUT_LOG_LEVEL")
}

// Typed env helpers. Each leaves dst alone when the variable is unset, empty
// or unparseable.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var cleaned []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}
