// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger records community votes on proposals.

Each (proposal, voter token, browser fingerprint) triple holds at most one
vote. Casting the same vote again returns ErrAlreadyVoted; casting the other
category switches the entry and moves one count between the proposal's
affirm and dissent tallies, never dropping a tally below zero.

# Casting

	svc := ledger.NewService(db, limiter, cfg.IPHashSalt, m)
	res, err := svc.CastVote(ctx, ledger.VoteRequest{
		ProposalID:    id,
		VoteType:      "affirm",
		Identity:      ledger.Identity{Token: fp, Fingerprint: browserFP},
		ClientAddress: middleware.GetClientIP(r),
	})

Steps, all inside one transaction:

 1. Reject missing fields and unknown vote types
 2. Check the client's rate-limit window (20 attempts per 10 minutes)
 3. Insert the entry with ON CONFLICT DO NOTHING
 4. On conflict, reject a duplicate or compare-and-swap the category
 5. Adjust tallies with single-statement arithmetic
 6. Record the rate-limit entry

A limiter that implements ratelimit.Reserver (Redis) does steps 2 and 6
atomically before the transaction opens. Its slot is released unless the
transaction commits.

Client addresses are hashed with auth.HashIP before they are used as
rate-limit keys.

# Consistency

Tally recounts votes from the ledger. Reconcile writes that count back when
the stored tallies have drifted.
*/
package ledger
