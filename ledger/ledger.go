// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blessed-dialekt/calmunity/auth"
	"github.com/blessed-dialekt/calmunity/db"
	"github.com/blessed-dialekt/calmunity/metrics"
	"github.com/blessed-dialekt/calmunity/models"
	"github.com/blessed-dialekt/calmunity/ratelimit"
)

var (
	ErrMissingField     = errors.New("missing required fields")
	ErrInvalidVoteType  = errors.New("invalid vote_type")
	ErrRateLimited      = ratelimit.ErrRateLimited
	ErrAlreadyVoted     = errors.New("already voted")
	ErrProposalNotFound = errors.New("proposal not found")
)

// UnknownAddress is hashed in place of a missing client address so all
// such requests share one rate-limit bucket
const UnknownAddress = "unknown"

// Identity is the pair a ledger entry is unique on, per proposal.
// Fingerprint is optional; empty means the token alone identifies the voter.
type Identity struct {
	Token       string
	Fingerprint string
}

type VoteRequest struct {
	ProposalID    string
	VoteType      string
	Identity      Identity
	ClientAddress string
}

type Result struct {
	VoteType models.VoteType
	// Switched is set when an existing entry moved to the other category
	Switched bool
}

type Service struct {
	db      *sql.DB
	limiter ratelimit.Limiter
	ipSalt  string
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(conn *sql.DB, limiter ratelimit.Limiter, ipSalt string, m *metrics.Metrics) *Service {
	return &Service{
		db:      conn,
		limiter: limiter,
		ipSalt:  ipSalt,
		metrics: m,
		now:     time.Now,
	}
}

// CastVote records, rejects or switches one vote. The ledger write, the tally
// adjustment and the rate-limit entry commit together or not at all.
func (s *Service) CastVote(ctx context.Context, req VoteRequest) (Result, error) {
	res, err := s.castVote(ctx, req)
	s.metrics.ObserveVote(outcome(res, err))
	return res, err
}

func (s *Service) castVote(ctx context.Context, req VoteRequest) (Result, error) {
	if req.ProposalID == "" || req.VoteType == "" || req.Identity.Token == "" {
		return Result{}, ErrMissingField
	}

	voteType, err := models.ParseVoteType(req.VoteType)
	if err != nil {
		return Result{}, ErrInvalidVoteType
	}

	addr := req.ClientAddress
	if addr == "" {
		addr = UnknownAddress
	}
	addrKey := auth.HashIP(addr, s.ipSalt)

	// A limiter outside the database takes its slot up front and gives it
	// back unless the vote commits
	reserver, reserves := s.limiter.(ratelimit.Reserver)
	committed := false
	if reserves {
		release, err := reserver.Reserve(ctx, addrKey, req.ProposalID)
		if err != nil {
			if errors.Is(err, ratelimit.ErrRateLimited) {
				return Result{}, ErrRateLimited
			}
			return Result{}, err
		}
		defer func() {
			if committed {
				return
			}
			if err := release(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("failed to release rate limit slot", "error", err)
			}
		}()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if !reserves {
		if err := s.limiter.Allow(ctx, tx, addrKey); err != nil {
			if errors.Is(err, ratelimit.ErrRateLimited) {
				return Result{}, ErrRateLimited
			}
			return Result{}, err
		}
	}

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM proposal WHERE id = $1`, req.ProposalID).Scan(&one)
	if err == sql.ErrNoRows {
		return Result{}, ErrProposalNotFound
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to query proposal: %w", err)
	}

	now := s.now().UTC()
	result := Result{VoteType: voteType}

	inserted, err := s.insertEntry(ctx, tx, req.ProposalID, req.Identity, voteType, now)
	if err != nil {
		return Result{}, err
	}

	if inserted {
		err = s.increment(ctx, tx, req.ProposalID, voteType, now)
	} else {
		err = s.switchEntry(ctx, tx, req.ProposalID, req.Identity, voteType, now)
		result.Switched = err == nil
	}
	if err != nil {
		return Result{}, err
	}

	if !reserves {
		if err := s.limiter.Record(ctx, tx, addrKey, req.ProposalID); err != nil {
			return Result{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return Result{}, ErrAlreadyVoted
		}
		return Result{}, fmt.Errorf("failed to commit vote: %w", err)
	}
	committed = true

	slog.Info("vote recorded",
		"proposal_id", req.ProposalID,
		"vote_type", voteType,
		"switched", result.Switched,
	)
	return result, nil
}

// insertEntry reports whether a new ledger entry was created. A conflicting
// entry for the same identity leaves the table untouched.
func (s *Service) insertEntry(ctx context.Context, tx *sql.Tx, proposalID string, id Identity, voteType models.VoteType, now time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO proposal_vote (id, proposal_id, voter_token, browser_fingerprint, vote_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (proposal_id, voter_token, browser_fingerprint) DO NOTHING
	`, auth.NewID(), proposalID, id.Token, id.Fingerprint, string(voteType), now)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert vote: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read inserted rows: %w", err)
	}
	return n == 1, nil
}

func (s *Service) increment(ctx context.Context, tx *sql.Tx, proposalID string, voteType models.VoteType, now time.Time) error {
	col := voteType.Column()
	_, err := tx.ExecContext(ctx, `
		UPDATE proposal SET `+col+` = `+col+` + 1, updated_at = $2 WHERE id = $1
	`, proposalID, now)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", col, err)
	}
	return nil
}

// switchEntry moves an existing entry to voteType. Returns ErrAlreadyVoted
// when the entry already has that category, including when a concurrent
// request switched it first.
func (s *Service) switchEntry(ctx context.Context, tx *sql.Tx, proposalID string, id Identity, voteType models.VoteType, now time.Time) error {
	var entryID string
	var current models.VoteType
	err := tx.QueryRowContext(ctx, `
		SELECT id, vote_type FROM proposal_vote
		WHERE proposal_id = $1 AND voter_token = $2 AND browser_fingerprint = $3
	`, proposalID, id.Token, id.Fingerprint).Scan(&entryID, &current)
	if err == sql.ErrNoRows {
		// Lost a race with a delete; nothing to switch
		return ErrAlreadyVoted
	}
	if err != nil {
		return fmt.Errorf("failed to query existing vote: %w", err)
	}

	if current == voteType {
		return ErrAlreadyVoted
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE proposal_vote SET vote_type = $1, updated_at = $2
		WHERE id = $3 AND vote_type = $4
	`, string(voteType), now, entryID, string(current))
	if err != nil {
		return fmt.Errorf("failed to switch vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read switched rows: %w", err)
	}
	if n == 0 {
		return ErrAlreadyVoted
	}

	oldCol, newCol := current.Column(), voteType.Column()
	_, err = tx.ExecContext(ctx, `
		UPDATE proposal SET
			`+oldCol+` = CASE WHEN `+oldCol+` > 0 THEN `+oldCol+` - 1 ELSE 0 END,
			`+newCol+` = `+newCol+` + 1,
			updated_at = $2
		WHERE id = $1
	`, proposalID, now)
	if err != nil {
		return fmt.Errorf("failed to shift tally: %w", err)
	}
	return nil
}

// Tally recounts a proposal's votes from the ledger
func (s *Service) Tally(ctx context.Context, proposalID string) (affirm, dissent int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN vote_type = 'affirm' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN vote_type = 'dissent' THEN 1 ELSE 0 END), 0)
		FROM proposal_vote WHERE proposal_id = $1
	`, proposalID).Scan(&affirm, &dissent)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to tally votes: %w", err)
	}
	return affirm, dissent, nil
}

// Reconcile overwrites a proposal's stored counts with the ledger tally and
// reports whether they differed
func (s *Service) Reconcile(ctx context.Context, proposalID string) (bool, error) {
	affirm, dissent, err := s.Tally(ctx, proposalID)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE proposal SET affirm_count = $2, dissent_count = $3, updated_at = $4
		WHERE id = $1 AND (affirm_count <> $2 OR dissent_count <> $3)
	`, proposalID, affirm, dissent, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to reconcile counts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read reconciled rows: %w", err)
	}
	if n > 0 {
		slog.Warn("proposal counts drifted from ledger", "proposal_id", proposalID, "affirm", affirm, "dissent", dissent)
	}
	return n > 0, nil
}

func outcome(res Result, err error) string {
	switch {
	case err == nil && res.Switched:
		return metrics.OutcomeSwitched
	case err == nil:
		return metrics.OutcomeRecorded
	case errors.Is(err, ErrAlreadyVoted):
		return metrics.OutcomeAlreadyVoted
	case errors.Is(err, ErrRateLimited):
		return metrics.OutcomeRateLimited
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrInvalidVoteType):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrProposalNotFound):
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}
