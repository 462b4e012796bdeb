// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is kept to the subset shared by PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Schema is exported so tests can build a scratch database from it
const Schema = `
-- Proposals
CREATE TABLE IF NOT EXISTS proposal (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    author TEXT NOT NULL DEFAULT 'calmunity_member',
    affirm_count INTEGER NOT NULL DEFAULT 0 CHECK (affirm_count >= 0),
    dissent_count INTEGER NOT NULL DEFAULT 0 CHECK (dissent_count >= 0),
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'consensus-forming', 'adopted')),
    reasoning TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_proposal_created_at ON proposal(created_at);

-- Vote ledger: one row per (proposal, voter token, browser fingerprint)
CREATE TABLE IF NOT EXISTS proposal_vote (
    id TEXT PRIMARY KEY,
    proposal_id TEXT NOT NULL REFERENCES proposal(id) ON DELETE CASCADE,
    voter_token TEXT NOT NULL,
    browser_fingerprint TEXT NOT NULL DEFAULT '',
    vote_type TEXT NOT NULL CHECK (vote_type IN ('affirm', 'dissent')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (proposal_id, voter_token, browser_fingerprint)
);

CREATE INDEX IF NOT EXISTS idx_proposal_vote_proposal_id ON proposal_vote(proposal_id);

-- Rate limit window entries
CREATE TABLE IF NOT EXISTS vote_rate_limit (
    id TEXT PRIMARY KEY,
    ip_hash TEXT NOT NULL,
    proposal_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vote_rate_limit_ip_created ON vote_rate_limit(ip_hash, created_at);

-- Kalments (discussion)
CREATE TABLE IF NOT EXISTS proposal_kalment (
    id TEXT PRIMARY KEY,
    proposal_id TEXT NOT NULL REFERENCES proposal(id) ON DELETE CASCADE,
    author TEXT NOT NULL DEFAULT 'calmunity_member',
    body TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_proposal_kalment_proposal_id ON proposal_kalment(proposal_id);

-- Kalmitee rekommendations
CREATE TABLE IF NOT EXISTS kalmitee_rekommendation (
    proposal_id TEXT NOT NULL REFERENCES proposal(id) ON DELETE CASCADE,
    member_id TEXT NOT NULL,
    konfidence INTEGER NOT NULL CHECK (konfidence >= 0 AND konfidence <= 100),
    notes TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (proposal_id, member_id)
);
`
