// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/blessed-dialekt/calmunity/middleware"
	"github.com/blessed-dialekt/calmunity/models"
	"github.com/blessed-dialekt/calmunity/realtime"
)

// SubmitRekommendation handles PUT /proposals/{id}/rekommendations.
// A member has one reading per proposal; resubmitting replaces it.
func (h *ProposalHandler) SubmitRekommendation(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("id")

	memberID, ok := h.authenticateMember(w, r)
	if !ok {
		return
	}

	var req models.SubmitRekommendationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Konfidence == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "konfidence is required")
		return
	}
	konfidence := *req.Konfidence
	if konfidence < 0 || konfidence > 100 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "konfidence must be between 0 and 100")
		return
	}

	if !h.proposalExists(w, r, proposalID) {
		return
	}

	now := time.Now().UTC()
	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO kalmitee_rekommendation (proposal_id, member_id, konfidence, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (proposal_id, member_id) DO UPDATE SET
			konfidence = excluded.konfidence,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`, proposalID, memberID, konfidence, req.Notes, now)
	if err != nil {
		slog.Error("failed to upsert rekommendation", "error", err, "proposal_id", proposalID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save rekommendation")
		return
	}

	slog.Info("rekommendation saved", "proposal_id", proposalID, "member_id", memberID, "konfidence", konfidence)

	realtime.PublishAfterCommit(r.Context(), h.hub, realtime.Event{
		Table:      realtime.TableRekommendations,
		Type:       realtime.TypeUpdate,
		ProposalID: proposalID,
	})

	h.ListRekommendations(w, r)
}

// ListRekommendations handles GET /proposals/{id}/rekommendations
func (h *ProposalHandler) ListRekommendations(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("id")
	if !h.proposalExists(w, r, proposalID) {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT proposal_id, member_id, konfidence, notes, created_at, updated_at
		FROM kalmitee_rekommendation
		WHERE proposal_id = $1
		ORDER BY created_at ASC, member_id
	`, proposalID)
	if err != nil {
		slog.Error("failed to query rekommendations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	recs := []models.Rekommendation{}
	for rows.Next() {
		var rec models.Rekommendation
		var notes sql.NullString
		if err := rows.Scan(&rec.ProposalID, &rec.MemberID, &rec.Konfidence, &notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			slog.Error("failed to scan rekommendation", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if notes.Valid {
			rec.Notes = &notes.String
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate rekommendations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, summarizeRekommendations(recs))
}

// summarizeRekommendations rounds the mean konfidence and buckets it.
// With no readings both average and tier are absent.
func summarizeRekommendations(recs []models.Rekommendation) models.RekommendationsResponse {
	resp := models.RekommendationsResponse{Rekommendations: recs}
	if len(recs) == 0 {
		return resp
	}

	total := 0
	for _, rec := range recs {
		total += rec.Konfidence
	}
	avg := int(math.Round(float64(total) / float64(len(recs))))
	tier := models.TierFor(avg)
	resp.AverageKonfidence = &avg
	resp.Tier = &tier
	return resp
}
