// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# Request Metrics

	mux.HandleFunc("POST /vote", middleware.WithMetrics(m, "/vote", handler))

Counts requests by method, route pattern and status. A nil *metrics.Metrics
returns the handler unchanged.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Client-Info, Apikey, X-Kalmitee-Member and
X-Kalmitee-Key. Preflight requests get 200 with an empty body.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ErrorWithMessage(w, http.StatusTooManyRequests, "Rate limited", "Too many votes recently. Please wait a few minutes.")

Parse JSON request bodies:

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client address. The first X-Forwarded-For hop wins, then
CF-Connecting-IP, X-Real-IP and the RemoteAddr host:

	ip := middleware.GetClientIP(r)

Returns UnknownClient ("unknown") when nothing is available. The vote ledger
hashes the result before using it as a rate-limit key.
*/
package middleware
