// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections and schema creation.

# Connecting

Open selects the driver from the configured database type:

	conn, err := db.Open(db.TypePostgres, "postgres://...") // github.com/lib/pq
	conn, err := db.Open(db.TypeSQLite, "file:calmunity.db") // modernc.org/sqlite

SQLite connections get foreign_keys, busy_timeout and WAL pragmas and a single
open connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - proposal: community proposals with affirm_count / dissent_count tallies
  - proposal_vote: vote ledger, UNIQUE (proposal_id, voter_token, browser_fingerprint)
  - vote_rate_limit: per-address vote attempts, indexed on (ip_hash, created_at)
  - proposal_kalment: discussion comments
  - kalmitee_rekommendation: konfidence readings, one per (proposal_id, member_id)

# Constraint Errors

IsUniqueViolation recognises duplicate-key errors from both drivers so that
handlers can map them to 409 Conflict.
*/
package db
