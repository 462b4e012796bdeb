// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blessed-dialekt/calmunity/ledger"
	"github.com/blessed-dialekt/calmunity/models"
	"github.com/blessed-dialekt/calmunity/ratelimit"
	"github.com/blessed-dialekt/calmunity/realtime"
	"github.com/blessed-dialekt/calmunity/testutil"
)

// TestFullVotingWorkflow walks a proposal through its life:
// 1. Create proposal
// 2. Voters affirm and dissent
// 3. One voter switches
// 4. Kalments are posted
// 5. Kalmitee members rekommend
// 6. A member adopts it
func TestFullVotingWorkflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	hub := realtime.NewMemoryHub()
	defer hub.Close()

	svc := ledger.NewService(db, ratelimit.NewSQLLimiter(db, ratelimit.Options{}), cfg.IPHashSalt, nil)
	proposals := NewProposalHandler(db, cfg, hub)
	voting := NewVotingHandler(svc, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /proposals", proposals.CreateProposal)
	mux.HandleFunc("GET /proposals/{id}", proposals.GetProposal)
	mux.HandleFunc("PATCH /proposals/{id}/status", proposals.UpdateStatus)
	mux.HandleFunc("POST /proposals/{id}/kalments", proposals.CreateKalment)
	mux.HandleFunc("GET /proposals/{id}/kalments", proposals.ListKalments)
	mux.HandleFunc("PUT /proposals/{id}/rekommendations", proposals.SubmitRekommendation)
	mux.HandleFunc("POST /vote", voting.CastVote)

	do := func(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeRequest(method, path, body, headers))
		return w
	}

	// Step 1: Create a proposal
	w := do("POST", "/proposals", models.CreateProposalRequest{
		Title: "Kalm corner",
		Body:  "A quiet corner in every office",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create proposal failed: %d - %s", w.Code, w.Body.String())
	}
	var created models.CreateProposalResponse
	testutil.AssertJSON(t, w, &created)
	proposalID := created.ProposalID
	t.Logf("Step 1 - Created proposal: %s", proposalID)

	// Step 2: Three affirms and one dissent
	for _, v := range []struct{ token, voteType string }{
		{"alice", "affirm"},
		{"bob", "affirm"},
		{"carol", "affirm"},
		{"dave", "dissent"},
	} {
		w = do("POST", "/vote", voteBody(proposalID, v.voteType, v.token), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Step 2 - Vote by %s failed: %d - %s", v.token, w.Code, w.Body.String())
		}
	}

	// Step 3: Carol changes her mind
	w = do("POST", "/vote", voteBody(proposalID, "dissent", "carol"), nil)
	var switched models.CastVoteResponse
	testutil.AssertJSON(t, w, &switched)
	if !switched.Switched {
		t.Fatalf("Step 3 - Expected switched vote, got %+v", switched)
	}

	w = do("GET", "/proposals/"+proposalID, nil, nil)
	var p models.Proposal
	testutil.AssertJSON(t, w, &p)
	if p.AffirmCount != 2 || p.DissentCount != 2 {
		t.Errorf("Step 3 - Expected counts 2/2, got %d/%d", p.AffirmCount, p.DissentCount)
	}

	// Step 4: Kalments
	for _, body := range []string{"Love it", "Needs plants"} {
		w = do("POST", "/proposals/"+proposalID+"/kalments", models.CreateKalmentRequest{Body: body}, nil)
		testutil.AssertStatus(t, w, http.StatusCreated)
	}
	w = do("GET", "/proposals/"+proposalID+"/kalments", nil, nil)
	var kalments models.ListKalmentsResponse
	testutil.AssertJSON(t, w, &kalments)
	if len(kalments.Kalments) != 2 {
		t.Errorf("Step 4 - Expected 2 kalments, got %d", len(kalments.Kalments))
	}

	// Step 5: Rekommendations
	w = do("PUT", "/proposals/"+proposalID+"/rekommendations", models.SubmitRekommendationRequest{Konfidence: konfidenceOf(90)}, memberHeaders("km-1"))
	testutil.AssertStatus(t, w, http.StatusOK)
	w = do("PUT", "/proposals/"+proposalID+"/rekommendations", models.SubmitRekommendationRequest{Konfidence: konfidenceOf(80)}, memberHeaders("km-2"))
	var recs models.RekommendationsResponse
	testutil.AssertJSON(t, w, &recs)
	if recs.Tier == nil || *recs.Tier != models.TierAdopted {
		t.Errorf("Step 5 - Expected tier Adopted, got %v", recs.Tier)
	}

	// Step 6: Adopt
	w = do("PATCH", "/proposals/"+proposalID+"/status", models.UpdateStatusRequest{Status: "adopted"}, memberHeaders("km-1"))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &p)
	if p.Status != models.StatusAdopted {
		t.Errorf("Step 6 - Expected adopted, got %q", p.Status)
	}

	// Votes keep working after adoption
	w = do("POST", "/vote", voteBody(proposalID, "affirm", "erin"), nil)
	testutil.AssertStatus(t, w, http.StatusOK)
}
