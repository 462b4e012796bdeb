// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/blessed-dialekt/calmunity/auth"
	"github.com/blessed-dialekt/calmunity/cliparse"
	"github.com/blessed-dialekt/calmunity/middleware"
	"github.com/blessed-dialekt/calmunity/models"
	"github.com/blessed-dialekt/calmunity/realtime"
)

const (
	maxTitleLength = 200
	maxBodyLength  = 10000
)

type ProposalHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	hub realtime.Hub
}

func NewProposalHandler(db *sql.DB, cfg cliparse.Config, hub realtime.Hub) *ProposalHandler {
	return &ProposalHandler{db: db, cfg: cfg, hub: hub}
}

const proposalColumns = `id, title, body, author, affirm_count, dissent_count, status, reasoning, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (models.Proposal, error) {
	var p models.Proposal
	var reasoning sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Body, &p.Author, &p.AffirmCount, &p.DissentCount,
		&p.Status, &reasoning, &p.CreatedAt, &p.UpdatedAt)
	if reasoning.Valid {
		p.Reasoning = &reasoning.String
	}
	return p, err
}

// CreateProposal handles POST /proposals
func (h *ProposalHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProposalRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	if title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if body == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "body is required")
		return
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is too long")
		return
	}
	if utf8.RuneCountInString(body) > maxBodyLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, "body is too long")
		return
	}

	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = models.DefaultAuthor
	}

	proposalID := auth.NewID()
	now := time.Now().UTC()
	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO proposal (id, title, body, author, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, proposalID, title, body, author, models.StatusActive, now)
	if err != nil {
		slog.Error("failed to insert proposal", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create proposal")
		return
	}

	slog.Info("proposal created", "proposal_id", proposalID, "author", author)

	realtime.PublishAfterCommit(r.Context(), h.hub, realtime.Event{
		Table:      realtime.TableProposals,
		Type:       realtime.TypeInsert,
		ProposalID: proposalID,
	})

	middleware.JSONResponse(w, http.StatusCreated, models.CreateProposalResponse{
		ProposalID: proposalID,
	})
}

// ListProposals handles GET /proposals, newest first. ?status= filters.
func (h *ProposalHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	query := `SELECT ` + proposalColumns + ` FROM proposal`
	var args []any
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := models.ParseProposalStatus(s)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid status")
			return
		}
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		slog.Error("failed to query proposals", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	proposals := []models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			slog.Error("failed to scan proposal", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate proposals", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListProposalsResponse{Proposals: proposals})
}

// GetProposal handles GET /proposals/{id}
func (h *ProposalHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("id")

	p, err := scanProposal(h.db.QueryRowContext(r.Context(),
		`SELECT `+proposalColumns+` FROM proposal WHERE id = $1`, proposalID))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Proposal not found")
		return
	}
	if err != nil {
		slog.Error("failed to query proposal", "error", err, "proposal_id", proposalID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, p)
}

// UpdateStatus handles PATCH /proposals/{id}/status. Kalmitee members only.
func (h *ProposalHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("id")

	memberID, ok := h.authenticateMember(w, r)
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	status, err := models.ParseProposalStatus(req.Status)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid status")
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE proposal SET status = $1, reasoning = $2, updated_at = $3 WHERE id = $4
	`, status, req.Reasoning, time.Now().UTC(), proposalID)
	if err != nil {
		slog.Error("failed to update proposal status", "error", err, "proposal_id", proposalID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update status")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Proposal not found")
		return
	}

	slog.Info("proposal status updated", "proposal_id", proposalID, "status", status, "member_id", memberID)

	realtime.PublishAfterCommit(r.Context(), h.hub, realtime.Event{
		Table:      realtime.TableProposals,
		Type:       realtime.TypeUpdate,
		ProposalID: proposalID,
	})

	h.GetProposal(w, r)
}

// authenticateMember checks the kalmitee headers and writes a 401 on failure
func (h *ProposalHandler) authenticateMember(w http.ResponseWriter, r *http.Request) (string, bool) {
	memberID := r.Header.Get("X-Kalmitee-Member")
	key := r.Header.Get("X-Kalmitee-Key")
	if err := auth.ValidateMemberKey(memberID, key, h.cfg.KalmiteeKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid kalmitee credentials")
		return "", false
	}
	return memberID, true
}

// proposalExists writes a 404 or 500 when the proposal cannot be used
func (h *ProposalHandler) proposalExists(w http.ResponseWriter, r *http.Request, proposalID string) bool {
	var one int
	err := h.db.QueryRowContext(r.Context(), `SELECT 1 FROM proposal WHERE id = $1`, proposalID).Scan(&one)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Proposal not found")
		return false
	}
	if err != nil {
		slog.Error("failed to query proposal", "error", err, "proposal_id", proposalID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	return true
}
