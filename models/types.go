package models

import (
	"fmt"
	"time"
)

// VoteType is the category of a ledger entry.
type VoteType string

const (
	VoteAffirm  VoteType = "affirm"
	VoteDissent VoteType = "dissent"
)

// ParseVoteType rejects anything other than affirm or dissent.
func ParseVoteType(s string) (VoteType, error) {
	switch VoteType(s) {
	case VoteAffirm, VoteDissent:
		return VoteType(s), nil
	}
	return "", fmt.Errorf("unknown vote type %q", s)
}

// Column returns the proposal tally column the vote type counts towards.
func (v VoteType) Column() string {
	if v == VoteDissent {
		return "dissent_count"
	}
	return "affirm_count"
}

// PastTense is used in user-facing conflict messages.
func (v VoteType) PastTense() string {
	if v == VoteDissent {
		return "dissented"
	}
	return "affirmed"
}

// Proposal lifecycle status
type ProposalStatus string

const (
	StatusActive           ProposalStatus = "active"
	StatusConsensusForming ProposalStatus = "consensus-forming"
	StatusAdopted          ProposalStatus = "adopted"
)

// ParseProposalStatus rejects statuses outside the lifecycle
func ParseProposalStatus(s string) (ProposalStatus, error) {
	switch ProposalStatus(s) {
	case StatusActive, StatusConsensusForming, StatusAdopted:
		return ProposalStatus(s), nil
	}
	return "", fmt.Errorf("unknown proposal status %q", s)
}

// DefaultAuthor is used when a proposal or kalment is submitted anonymously
const DefaultAuthor = "calmunity_member"

// Request types

// proposal_id, vote_type and voter_fingerprint are required
type CastVoteRequest struct {
	ProposalID         string `json:"proposal_id"`
	VoteType           string `json:"vote_type"`
	VoterFingerprint   string `json:"voter_fingerprint"`
	BrowserFingerprint string `json:"browser_fingerprint,omitempty"`
}

type CreateProposalRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Author string `json:"author,omitempty"`
}

type CreateKalmentRequest struct {
	Body   string `json:"body"`
	Author string `json:"author,omitempty"`
}

type UpdateStatusRequest struct {
	Status    string  `json:"status"`
	Reasoning *string `json:"reasoning,omitempty"`
}

// konfidence is required; nil means it was left out of the body
type SubmitRekommendationRequest struct {
	Konfidence *int    `json:"konfidence,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// Response types

type CastVoteResponse struct {
	Success  bool `json:"success"`
	Switched bool `json:"switched,omitempty"`
}

type CreateProposalResponse struct {
	ProposalID string `json:"proposal_id"`
}

type CreateKalmentResponse struct {
	KalmentID string `json:"kalment_id"`
}

type ListProposalsResponse struct {
	Proposals []Proposal `json:"proposals"`
}

type ListKalmentsResponse struct {
	Kalments []Kalment `json:"kalments"`
}

type RekommendationsResponse struct {
	Rekommendations   []Rekommendation `json:"rekommendations"`
	AverageKonfidence *int             `json:"average_konfidence"`
	Tier              *KonfidenceTier  `json:"tier,omitempty"`
}

// Domain types

type Proposal struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Body         string         `json:"body"`
	Author       string         `json:"author"`
	AffirmCount  int            `json:"affirm_count"`
	DissentCount int            `json:"dissent_count"`
	Status       ProposalStatus `json:"status"`
	Reasoning    *string        `json:"reasoning,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Vote struct {
	ID                 string    `json:"id"`
	ProposalID         string    `json:"proposal_id"`
	VoterToken         string    `json:"-"` // Never expose in JSON
	BrowserFingerprint string    `json:"-"` // Never expose in JSON
	VoteType           VoteType  `json:"vote_type"`
	CreatedAt          time.Time `json:"created_at"`
}

type Kalment struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposal_id"`
	Author     string    `json:"author"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type Rekommendation struct {
	ProposalID string    `json:"proposal_id"`
	MemberID   string    `json:"member_id"`
	Konfidence int       `json:"konfidence"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// KonfidenceTier buckets an average konfidence reading
type KonfidenceTier string

const (
	TierEksploring       KonfidenceTier = "Eksploring"
	TierPromising        KonfidenceTier = "Promising"
	TierKonsensusForming KonfidenceTier = "Konsensus-forming"
	TierRekommended      KonfidenceTier = "Rekommended"
	TierAdopted          KonfidenceTier = "Adopted"
)

// TierFor maps a 0-100 konfidence value to its tier.
func TierFor(konfidence int) KonfidenceTier {
	switch {
	case konfidence < 20:
		return TierEksploring
	case konfidence < 40:
		return TierPromising
	case konfidence < 60:
		return TierKonsensusForming
	case konfidence < 80:
		return TierRekommended
	}
	return TierAdopted
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
