// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/blessed-dialekt/calmunity/ledger"
	"github.com/blessed-dialekt/calmunity/middleware"
	"github.com/blessed-dialekt/calmunity/models"
	"github.com/blessed-dialekt/calmunity/realtime"
)

const rateLimitedMessage = "Too many votes recently. Please wait a few minutes."

type VotingHandler struct {
	votes *ledger.Service
	hub   realtime.Hub
}

func NewVotingHandler(votes *ledger.Service, hub realtime.Hub) *VotingHandler {
	return &VotingHandler{votes: votes, hub: hub}
}

// CastVote handles POST /vote
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorWithMessage(w, http.StatusBadRequest, "Invalid JSON", "")
		return
	}

	res, err := h.votes.CastVote(r.Context(), ledger.VoteRequest{
		ProposalID: req.ProposalID,
		VoteType:   req.VoteType,
		Identity: ledger.Identity{
			Token:       req.VoterFingerprint,
			Fingerprint: req.BrowserFingerprint,
		},
		ClientAddress: middleware.GetClientIP(r),
	})

	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrMissingField):
		middleware.ErrorWithMessage(w, http.StatusBadRequest, "Missing required fields", "")
		return
	case errors.Is(err, ledger.ErrInvalidVoteType):
		middleware.ErrorWithMessage(w, http.StatusBadRequest, "Invalid vote_type", "")
		return
	case errors.Is(err, ledger.ErrRateLimited):
		middleware.ErrorWithMessage(w, http.StatusTooManyRequests, "Rate limited", rateLimitedMessage)
		return
	case errors.Is(err, ledger.ErrAlreadyVoted):
		vt, _ := models.ParseVoteType(req.VoteType)
		middleware.ErrorWithMessage(w, http.StatusConflict, "Already voted",
			fmt.Sprintf("You've already %s on this proposal", vt.PastTense()))
		return
	case errors.Is(err, ledger.ErrProposalNotFound):
		middleware.ErrorWithMessage(w, http.StatusNotFound, "Proposal not found", "")
		return
	default:
		slog.Error("failed to cast vote", "error", err, "proposal_id", req.ProposalID)
		middleware.ErrorWithMessage(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	changeType := realtime.TypeInsert
	if res.Switched {
		changeType = realtime.TypeUpdate
	}
	realtime.PublishAfterCommit(r.Context(), h.hub, realtime.Event{
		Table:      realtime.TableVotes,
		Type:       changeType,
		ProposalID: req.ProposalID,
	})
	realtime.PublishAfterCommit(r.Context(), h.hub, realtime.Event{
		Table:      realtime.TableProposals,
		Type:       realtime.TypeUpdate,
		ProposalID: req.ProposalID,
	})

	middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
		Success:  true,
		Switched: res.Switched,
	})
}
