package api

import (
	"net/http"

	"github.com/revittco/storeadmin/internal/dashboard"
	"github.com/revittco/storeadmin/internal/identity"
	"github.com/revittco/storeadmin/internal/store"
)

// RouterDeps holds the dependencies needed by the HTTP API router.
type RouterDeps struct {
	Dashboard *dashboard.Dashboard
	Version   string
	Identity  *identity.Service  // optional; enables auth routes
	Commands  store.CommandStore // optional; enables the command audit trail
	Store     store.Store        // optional; pinged by health

	// RequireSession guards mutating resource routes, the command audit
	// trail and both event streams with a bearer token. Collection reads and
	// health stay public. Ignored without Identity.
	RequireSession bool
}

// NewRouter creates an http.Handler with all API routes.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	guard := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if deps.Identity != nil && deps.RequireSession {
		guard = requireSession
	}

	d := deps.Dashboard
	registerResource(mux, dashboard.Products, d.Products, guard)
	registerResource(mux, dashboard.Carts, d.Carts, guard)
	registerResource(mux, dashboard.Users, d.Users, guard)

	ev := &eventsHandler{bus: d.Bus}
	mux.HandleFunc("GET /api/v1/events", guard(ev.stream))

	if deps.Commands != nil {
		ch := &commandsHandler{store: deps.Commands}
		mux.HandleFunc("GET /api/v1/commands", guard(ch.query))
	}

	health := &healthHandler{version: deps.Version, dash: d}
	if deps.Store != nil {
		health.ping = deps.Store.Ping
	}
	if deps.Identity != nil {
		health.stats = deps.Identity.CacheStats

		auth := &authHandler{svc: deps.Identity}
		mux.HandleFunc("POST /api/v1/auth/signup", auth.signUp)
		mux.HandleFunc("POST /api/v1/auth/signin", auth.signIn)
		mux.HandleFunc("POST /api/v1/auth/signout", auth.signOut)
		mux.HandleFunc("GET /api/v1/auth/session", auth.session)
		mux.HandleFunc("GET /api/v1/auth/google/authorize", auth.googleAuthorize)
		mux.HandleFunc("GET /api/v1/auth/google/callback", auth.googleCallback)

		as := &authStreamHandler{svc: deps.Identity}
		mux.HandleFunc("GET /api/v1/auth/stream", guard(as.stream))
	}
	mux.HandleFunc("GET /api/v1/health", health.check)

	// Middleware chain: CORS -> security headers -> origin check ->
	// RequestID -> Logging -> JSON content type -> session -> mux
	var handler http.Handler = mux
	if deps.Identity != nil {
		handler = sessionMiddleware(deps.Identity)(handler)
	}
	handler = requireJSONContentTypeMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = browserOriginProtectionMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = corsMiddleware(handler)

	return handler
}
