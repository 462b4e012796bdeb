// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Command calmunity runs the calmunity API and its dictionary tooling.

Calmunity lets a community affirm or dissent on proposals, discuss them in
kalments and have kalmitee members record how konfident they are. It also
serves a curated dialect dictionary.

# Commands

	calmunity serve [flags]        run the HTTP API
	calmunity validate [dir]       check the dictionary files, listing every violation
	calmunity migrate [dir] -w     move deprecated definition fields
	calmunity member-key <id>      print a kalmitee member's key

# Configuration

serve reads the environment, an optional .env file, then flags:

	DATABASE_URL=file:calmunity.db IP_HASH_SALT=... KALMITEE_KEY_SALT=... calmunity serve

Required settings:

  - DATABASE_URL (-d): SQLite file URL or PostgreSQL connection string
  - IP_HASH_SALT (-ip-salt): Secret for hashing client addresses
  - KALMITEE_KEY_SALT (-kalmitee-salt): Secret for kalmitee member keys

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - RATE_LIMIT_BACKEND (-rate-limit-backend): sql or redis (default: sql)
  - RATE_LIMIT_WINDOW, RATE_LIMIT_MAX: 20 votes per 10m by default
  - RATE_LIMIT_PRUNE_INTERVAL: how often expired sql entries are removed
  - REALTIME_BACKEND (-realtime-backend): memory or redis (default: memory)
  - REDIS_ADDR (-redis), REDIS_PASSWORD, REDIS_DB
  - DICTIONARY_DIR (-dictionary): serve the dictionary from this directory
  - DEBUG (-debug): debug logging

# Architecture

  - handlers: HTTP request handlers (votes, proposals, dictionary)
  - router: Route definitions using Go 1.22+ routing
  - ledger: Vote ledger service
  - ratelimit: Per-address vote window, SQL or Redis backed
  - realtime: Change notifications over websockets
  - dictionary: Dictionary loading, validation and migration
  - middleware: CORS, logging, metrics, JSON helpers
  - metrics: Prometheus collectors
  - models: Request/response types
  - auth: IDs, address hashing and kalmitee keys
  - db: Connection and schema
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
