// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// sqlitePragmas are appended to SQLite DSNs that don't set their own
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Open connects to the database and verifies the connection
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case TypePostgres:
		driver = "postgres"
	case TypeSQLite:
		driver = "sqlite"
		url = withSQLitePragmas(url)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dbType, err)
	}

	if dbType == TypeSQLite {
		// SQLite allows a single writer; serialize at the pool instead of
		// surfacing SQLITE_BUSY to handlers.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dbType, err)
	}

	return conn, nil
}

func withSQLitePragmas(url string) string {
	if strings.Contains(url, "_pragma=") {
		return url
	}
	if strings.Contains(url, "?") {
		return url + "&" + sqlitePragmas
	}
	return url + "?" + sqlitePragmas
}

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from either supported driver
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}
