// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Settings are resolved in three layers: an optional dotenv file (loaded with
godotenv), the process environment (read with envconfig), then CLI flags.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - IPHashSalt: Secret for client address hashing (required)
  - KalmiteeKeySalt: Secret for kalmitee member keys (required)
  - RateLimitBackend: sql or redis (default: sql)
  - RateLimitWindow / RateLimitMax: 10m / 20 votes per address
  - RateLimitPruneInterval: how often expired window entries are swept (default: 1h)
  - RealtimeBackend: memory or redis (default: memory)
  - DictionaryDir: dictionary data to validate and serve (optional)

# CLI Flags

	-p                   Server port
	-d                   Database URL
	-t                   Database type
	-ip-salt             IP hash salt
	-kalmitee-salt       Kalmitee member key salt
	-rate-limit-backend  sql or redis
	-realtime-backend    memory or redis
	-redis               Redis address
	-dictionary          Dictionary data directory
	-env-file            Dotenv file (default: .env, skipped if missing)

# Environment Variables

	PORT, DATABASE_URL, DATABASE_TYPE, IP_HASH_SALT, KALMITEE_KEY_SALT,
	RATE_LIMIT_BACKEND, RATE_LIMIT_WINDOW, RATE_LIMIT_MAX,
	RATE_LIMIT_PRUNE_INTERVAL, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB,
	REALTIME_BACKEND, DICTIONARY_DIR

CLI flags take precedence over environment variables.
*/
package cliparse
