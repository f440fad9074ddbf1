package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	errReaderAPIID   = errors.New("TG_API_ID is required in reader mode")
	errReaderAPIHash = errors.New("TG_API_HASH is required in reader mode")
)

type Config struct {
	AppEnv      string  `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string  `env:"POSTGRES_DSN,required"`
	BotToken    string  `env:"BOT_TOKEN,required"`
	AdminIDs    []int64 `env:"ADMIN_IDS" envSeparator:","`
	BotUsername string  `env:"BOT_USERNAME"`
	ProxyURL    string  `env:"TELEGRAM_PROXY_URL"`
	HealthPort  int     `env:"HEALTH_PORT" envDefault:"8080"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Redis is optional; an empty address disables the shared cache.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Search
	SearchPageSize      int           `env:"SEARCH_PAGE_SIZE" envDefault:"10"`
	SearchCacheTTL      time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"30m"`
	InlineRateLimit     int           `env:"INLINE_RATE_LIMIT" envDefault:"20"`
	PMSearchEnabled     bool          `env:"PM_SEARCH_ENABLED" envDefault:"true"`
	InlineSearchEnabled bool          `env:"INLINE_SEARCH_ENABLED" envDefault:"true"`
	SpellCheckEnabled   bool          `env:"SPELL_CHECK_ENABLED" envDefault:"true"`
	PremiumEnabled      bool          `env:"PREMIUM_ENABLED" envDefault:"true"`

	// Metadata lookup
	MetadataLookupEnabled bool          `env:"METADATA_LOOKUP_ENABLED" envDefault:"false"`
	OMDbAPIKey            string        `env:"OMDB_API_KEY"`
	OMDbBaseURL           string        `env:"OMDB_BASE_URL" envDefault:"https://www.omdbapi.com"`
	MetadataCacheSize     int           `env:"METADATA_CACHE_SIZE" envDefault:"1000"`
	MetadataCacheTTL      time.Duration `env:"METADATA_CACHE_TTL" envDefault:"24h"`
	MetadataTimeout       time.Duration `env:"METADATA_TIMEOUT" envDefault:"10s"`

	// MTProto reader
	TGAPIID            int           `env:"TG_API_ID"`
	TGAPIHash          string        `env:"TG_API_HASH"`
	TGPhone            string        `env:"TG_PHONE"`
	TG2FAPassword      string        `env:"TG_2FA_PASSWORD"`
	TGSessionPath      string        `env:"TG_SESSION_PATH" envDefault:"./tg.session"`
	ReaderFetchLimit   int           `env:"READER_FETCH_LIMIT" envDefault:"100"`
	ReaderPollInterval time.Duration `env:"READER_POLL_INTERVAL" envDefault:"5m"`
	RateLimitRPS       int           `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Worker
	CleanupInterval    time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
	IndexRetryAttempts int           `env:"INDEX_RETRY_ATTEMPTS" envDefault:"3"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	return cfg, nil
}

// ValidateReader checks the credentials the MTProto reader needs.
func (c *Config) ValidateReader() error {
	if c.TGAPIID == 0 {
		return errReaderAPIID
	}

	if c.TGAPIHash == "" {
		return errReaderAPIHash
	}

	return nil
}

// IsAdmin reports whether userID is listed in ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}

	return false
}

func applyAliases(cfg *Config) {
	if !hasEnv("BOT_USERNAME") {
		setStringFromEnv("TELEGRAM_BOT_USERNAME", &cfg.BotUsername)
	}

	if !hasEnv("METADATA_TIMEOUT") {
		setDurationFromEnv("OMDB_TIMEOUT", &cfg.MetadataTimeout)
	}

	if !hasEnv("INLINE_RATE_LIMIT") {
		setIntFromEnv("SEARCH_RATE_LIMIT", &cfg.InlineRateLimit)
	}

	cfg.BotUsername = strings.TrimPrefix(cfg.BotUsername, "@")
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setIntFromEnv(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}

func setDurationFromEnv(key string, target *time.Duration) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}
