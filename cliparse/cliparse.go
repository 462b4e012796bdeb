package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendSQL    = "sql"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Port         int    `envconfig:"PORT" default:"3318"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseType string `envconfig:"DATABASE_TYPE" default:"sqlite"`

	// Secrets
	IPHashSalt      string `envconfig:"IP_HASH_SALT"`
	KalmiteeKeySalt string `envconfig:"KALMITEE_KEY_SALT"`

	// Vote rate limiting
	RateLimitBackend       string        `envconfig:"RATE_LIMIT_BACKEND" default:"sql"`
	RateLimitWindow        time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"10m"`
	RateLimitMax           int           `envconfig:"RATE_LIMIT_MAX" default:"20"`
	RateLimitPruneInterval time.Duration `envconfig:"RATE_LIMIT_PRUNE_INTERVAL" default:"1h"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB"`

	RealtimeBackend string `envconfig:"REALTIME_BACKEND" default:"memory"`

	// Directory holding words.json, phrases.json and keyboard layouts
	DictionaryDir string `envconfig:"DICTIONARY_DIR"`

	Debug bool `envconfig:"DEBUG"`
}

// ParseFlags reads an optional .env file and the environment, then applies
// any CLI flags on top. CLI flags always win.
func ParseFlags(args []string) (Config, error) {
	var flagCfg Config
	var envFile string

	fs := flag.NewFlagSet("calmunity", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&flagCfg.Port, "p", 0, "Server port")
	fs.StringVar(&flagCfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&flagCfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&envFile, "env-file", ".env", "Dotenv file to load if present")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&flagCfg.IPHashSalt, "ip-salt", "", "IP hash salt (prefer env)")
	fs.StringVar(&flagCfg.KalmiteeKeySalt, "kalmitee-salt", "", "Kalmitee member key salt (prefer env)")

	fs.StringVar(&flagCfg.RateLimitBackend, "rate-limit-backend", "", "Rate limit backend (sql or redis)")
	fs.StringVar(&flagCfg.RedisAddr, "redis", "", "Redis address")
	fs.StringVar(&flagCfg.RealtimeBackend, "realtime-backend", "", "Realtime backend (memory or redis)")
	fs.StringVar(&flagCfg.DictionaryDir, "dictionary", "", "Dictionary data directory")
	fs.BoolVar(&flagCfg.Debug, "debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = flagCfg.Port
		case "d":
			cfg.DatabaseURL = flagCfg.DatabaseURL
		case "t":
			cfg.DatabaseType = flagCfg.DatabaseType
		case "ip-salt":
			cfg.IPHashSalt = flagCfg.IPHashSalt
		case "kalmitee-salt":
			cfg.KalmiteeKeySalt = flagCfg.KalmiteeKeySalt
		case "rate-limit-backend":
			cfg.RateLimitBackend = flagCfg.RateLimitBackend
		case "redis":
			cfg.RedisAddr = flagCfg.RedisAddr
		case "realtime-backend":
			cfg.RealtimeBackend = flagCfg.RealtimeBackend
		case "dictionary":
			cfg.DictionaryDir = flagCfg.DictionaryDir
		case "debug":
			cfg.Debug = flagCfg.Debug
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks required settings and backend choices
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if c.DatabaseType != "sqlite" && c.DatabaseType != "postgres" {
		return fmt.Errorf("unsupported database type %q", c.DatabaseType)
	}

	// Secrets - MUST be provided
	if c.IPHashSalt == "" {
		return errors.New("IP_HASH_SALT required")
	}
	if c.KalmiteeKeySalt == "" {
		return errors.New("KALMITEE_KEY_SALT required")
	}

	if c.RateLimitBackend != BackendSQL && c.RateLimitBackend != BackendRedis {
		return fmt.Errorf("unsupported rate limit backend %q", c.RateLimitBackend)
	}
	if c.RealtimeBackend != BackendMemory && c.RealtimeBackend != BackendRedis {
		return fmt.Errorf("unsupported realtime backend %q", c.RealtimeBackend)
	}
	if (c.RateLimitBackend == BackendRedis || c.RealtimeBackend == BackendRedis) && c.RedisAddr == "" {
		return errors.New("REDIS_ADDR required for redis backends")
	}
	if c.RateLimitWindow <= 0 || c.RateLimitMax <= 0 {
		return errors.New("rate limit window and max must be positive")
	}

	return nil
}
