// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the calmunity API.

# Route Registration

NewRouter builds an http.ServeMux from its dependencies and wraps it in CORS:

	handler := router.NewRouter(router.Deps{
		DB:         db,
		Config:     cfg,
		Limiter:    limiter,
		Hub:        hub,
		Dictionary: dict,
		Metrics:    m,
	})

Every API route is wrapped with request logging and, when Metrics is set,
request counting under its route pattern.

# Endpoints

Operational:

	GET /health   - Liveness
	GET /metrics  - Prometheus scrape (404 when metrics are disabled)
	GET /realtime - Websocket change notifications

Voting:

	POST /vote - Cast, reject or switch a vote

Proposals (kalmitee routes need X-Kalmitee-Member and X-Kalmitee-Key):

	POST  /proposals
	GET   /proposals
	GET   /proposals/{id}
	PATCH /proposals/{id}/status
	POST  /proposals/{id}/kalments
	GET   /proposals/{id}/kalments
	PUT   /proposals/{id}/rekommendations
	GET   /proposals/{id}/rekommendations

Dictionary:

	GET /dictionary/words
	GET /dictionary/phrases
	GET /dictionary/entries/{id}
	GET /dictionary/letters/{letter}
	GET /keyboard-layouts
	GET /keyboard-layouts/{id}

OPTIONS on any path is answered by the CORS middleware with 200 and no body.
*/
package router
