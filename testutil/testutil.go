// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/blessed-dialekt/calmunity/auth"
	"github.com/blessed-dialekt/calmunity/cliparse"
	"github.com/blessed-dialekt/calmunity/db"
	"github.com/blessed-dialekt/calmunity/models"
)

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The database lives in t.TempDir and is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "calmunity.db")
	conn, err := db.Open(db.TypeSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      "file::memory:",
		DatabaseType:     db.TypeSQLite,
		IPHashSalt:       "test-ip-salt",
		KalmiteeKeySalt:  "test-kalmitee-salt",
		RateLimitBackend: cliparse.BackendSQL,
		RateLimitWindow:  10 * time.Minute,
		RateLimitMax:     20,
		RealtimeBackend:  cliparse.BackendMemory,
	}
}

// CreateTestProposal inserts an active proposal and returns its ID
func CreateTestProposal(t *testing.T, conn *sql.DB, title string) string {
	t.Helper()

	proposalID := auth.NewID()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO proposal (id, title, body, author, status, created_at, updated_at)
		VALUES ($1, $2, 'A test proposal', $3, $4, $5, $5)
	`, proposalID, title, models.DefaultAuthor, models.StatusActive, now)
	if err != nil {
		t.Fatalf("Failed to create test proposal: %v", err)
	}

	return proposalID
}

// ProposalCounts reads the stored affirm and dissent tallies
func ProposalCounts(t *testing.T, conn *sql.DB, proposalID string) (affirm, dissent int) {
	t.Helper()

	err := conn.QueryRow(`
		SELECT affirm_count, dissent_count FROM proposal WHERE id = $1
	`, proposalID).Scan(&affirm, &dissent)
	if err != nil {
		t.Fatalf("Failed to read proposal counts: %v", err)
	}
	return affirm, dissent
}

// CountRows returns the number of rows in table matching an optional
// proposal_id filter
func CountRows(t *testing.T, conn *sql.DB, table, proposalID string) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	var args []any
	if proposalID != "" {
		query += " WHERE proposal_id = $1"
		args = append(args, proposalID)
	}

	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s rows: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
