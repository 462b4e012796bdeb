// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/blessed-dialekt/calmunity/cliparse"
	"github.com/blessed-dialekt/calmunity/dictionary"
	"github.com/blessed-dialekt/calmunity/handlers"
	"github.com/blessed-dialekt/calmunity/ledger"
	"github.com/blessed-dialekt/calmunity/metrics"
	"github.com/blessed-dialekt/calmunity/middleware"
	"github.com/blessed-dialekt/calmunity/ratelimit"
	"github.com/blessed-dialekt/calmunity/realtime"
)

// Deps are the collaborators the routes are built from. Dictionary and
// Metrics may be nil; a nil Limiter or Hub gets the single-instance default.
type Deps struct {
	DB         *sql.DB
	Config     cliparse.Config
	Limiter    ratelimit.Limiter
	Hub        realtime.Hub
	Dictionary *dictionary.Dictionary
	Metrics    *metrics.Metrics
}

// NewRouter returns the API wrapped in CORS, so preflight requests succeed
// on every path
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewSQLLimiter(deps.DB, ratelimit.Options{
			Window: deps.Config.RateLimitWindow,
			Max:    deps.Config.RateLimitMax,
		})
	}
	if deps.Hub == nil {
		deps.Hub = realtime.NewMemoryHub()
	}

	// Initialize handlers
	votes := ledger.NewService(deps.DB, deps.Limiter, deps.Config.IPHashSalt, deps.Metrics)
	votingHandler := handlers.NewVotingHandler(votes, deps.Hub)
	proposalHandler := handlers.NewProposalHandler(deps.DB, deps.Config, deps.Hub)
	dictionaryHandler := handlers.NewDictionaryHandler(deps.Dictionary)

	handle := func(pattern string, h http.HandlerFunc) {
		_, route, _ := strings.Cut(pattern, " ")
		mux.HandleFunc(pattern, middleware.WithLogging(middleware.WithMetrics(deps.Metrics, route, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	// Voting
	handle("POST /vote", votingHandler.CastVote)

	// Proposals and discussion
	handle("POST /proposals", proposalHandler.CreateProposal)
	handle("GET /proposals", proposalHandler.ListProposals)
	handle("GET /proposals/{id}", proposalHandler.GetProposal)
	handle("PATCH /proposals/{id}/status", proposalHandler.UpdateStatus)
	handle("POST /proposals/{id}/kalments", proposalHandler.CreateKalment)
	handle("GET /proposals/{id}/kalments", proposalHandler.ListKalments)
	handle("PUT /proposals/{id}/rekommendations", proposalHandler.SubmitRekommendation)
	handle("GET /proposals/{id}/rekommendations", proposalHandler.ListRekommendations)

	// Dictionary (read-only)
	handle("GET /dictionary/words", dictionaryHandler.ListWords)
	handle("GET /dictionary/phrases", dictionaryHandler.ListPhrases)
	handle("GET /dictionary/entries/{id}", dictionaryHandler.GetEntry)
	handle("GET /dictionary/letters/{letter}", dictionaryHandler.ListByLetter)
	handle("GET /keyboard-layouts", dictionaryHandler.ListLayouts)
	handle("GET /keyboard-layouts/{id}", dictionaryHandler.GetLayout)

	// Change notifications
	handle("GET /realtime", realtime.Handler(deps.Hub, deps.Metrics))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("calmunity API v1"))
	})

	return middleware.CORS(mux)
}
