// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/blessed-dialekt/calmunity/auth"
	"github.com/blessed-dialekt/calmunity/middleware"
	"github.com/blessed-dialekt/calmunity/models"
	"github.com/blessed-dialekt/calmunity/realtime"
)

const maxKalmentLength = 2000

// CreateKalment handles POST /proposals/{id}/kalments
func (h *ProposalHandler) CreateKalment(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("id")

	var req models.CreateKalmentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "body is required")
		return
	}
	if utf8.RuneCountInString(body) > maxKalmentLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, "body is too long")
		return
	}
	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = models.DefaultAuthor
	}

	if !h.proposalExists(w, r, proposalID) {
		return
	}

	kalmentID := auth.NewID()
	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO proposal_kalment (id, proposal_id, author, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, kalmentID, proposalID, author, body, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert kalment", "error", err, "proposal_id", proposalID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create kalment")
		return
	}

	slog.Info("kalment created", "proposal_id", proposalID, "kalment_id", kalmentID)

	realtime.PublishAfterCommit(r.Context(), h.hub, realtime.Event{
		Table:      realtime.TableKalments,
		Type:       realtime.TypeInsert,
		ProposalID: proposalID,
	})

	middleware.JSONResponse(w, http.StatusCreated, models.CreateKalmentResponse{KalmentID: kalmentID})
}

// ListKalments handles GET /proposals/{id}/kalments, oldest first
func (h *ProposalHandler) ListKalments(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("id")
	if !h.proposalExists(w, r, proposalID) {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, proposal_id, author, body, created_at
		FROM proposal_kalment
		WHERE proposal_id = $1
		ORDER BY created_at ASC, id
	`, proposalID)
	if err != nil {
		slog.Error("failed to query kalments", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	kalments := []models.Kalment{}
	for rows.Next() {
		var k models.Kalment
		if err := rows.Scan(&k.ID, &k.ProposalID, &k.Author, &k.Body, &k.CreatedAt); err != nil {
			slog.Error("failed to scan kalment", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		kalments = append(kalments, k)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate kalments", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListKalmentsResponse{Kalments: kalments})
}
