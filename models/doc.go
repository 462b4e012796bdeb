// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CastVoteRequest: proposal_id, vote_type, voter_fingerprint, browser_fingerprint
  - CreateProposalRequest: title, body, author
  - CreateKalmentRequest: body, author
  - UpdateStatusRequest: status, reasoning
  - SubmitRekommendationRequest: konfidence, notes

# Response Types

  - CastVoteResponse: success, switched
  - CreateProposalResponse: proposal_id
  - CreateKalmentResponse: kalment_id
  - RekommendationsResponse: rekommendations, average_konfidence, tier
  - ErrorResponse: error, message

# Domain Types

  - Proposal: community suggestion with affirm/dissent tallies
  - Vote: one identity's current vote on one proposal (ledger entry)
  - Kalment: discussion comment on a proposal
  - Rekommendation: a kalmitee member's konfidence reading

# Enumerations

Vote types are closed; ParseVoteType rejects anything else:

	VoteAffirm  = "affirm"
	VoteDissent = "dissent"

Proposal status, parsed with ParseProposalStatus:

	StatusActive           = "active"
	StatusConsensusForming = "consensus-forming"
	StatusAdopted          = "adopted"
*/
package models
