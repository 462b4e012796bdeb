// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the calmunity API.

# Handler Types

  - VotingHandler: POST /vote, backed by ledger.Service
  - ProposalHandler: proposals, kalments and kalmitee rekommendations
  - DictionaryHandler: read-only dictionary and keyboard layout lookups

	voting := handlers.NewVotingHandler(ledger.NewService(db, limiter, salt, m), hub)
	proposals := handlers.NewProposalHandler(db, cfg, hub)

# Voting

	POST /vote → CastVote

Request body: proposal_id, vote_type (affirm|dissent), voter_fingerprint and
an optional browser_fingerprint. Responses:

	200 {"success":true}                      new vote
	200 {"success":true,"switched":true}      moved to the other category
	400 {"error":"Missing required fields"}
	400 {"error":"Invalid vote_type"}
	404 {"error":"Proposal not found"}
	409 {"error":"Already voted","message":"You've already affirmed on this proposal"}
	429 {"error":"Rate limited","message":"Too many votes recently. Please wait a few minutes."}
	500 {"error":"Internal server error"}

# Proposals

	POST  /proposals                        → CreateProposal
	GET   /proposals                        → ListProposals (?status=)
	GET   /proposals/{id}                   → GetProposal
	PATCH /proposals/{id}/status            → UpdateStatus (kalmitee)
	POST  /proposals/{id}/kalments          → CreateKalment
	GET   /proposals/{id}/kalments          → ListKalments
	PUT   /proposals/{id}/rekommendations   → SubmitRekommendation (kalmitee)
	GET   /proposals/{id}/rekommendations   → ListRekommendations

Kalmitee operations require X-Kalmitee-Member and X-Kalmitee-Key headers.

# Realtime

Every successful write publishes a realtime.Event after it commits. A nil
hub disables publishing.
*/
package handlers
