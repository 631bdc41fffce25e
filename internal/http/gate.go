package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/nitrolabs/nitro/internal/authz"
	"github.com/nitrolabs/nitro/internal/metrics"
	"github.com/nitrolabs/nitro/internal/service"
	"github.com/nitrolabs/nitro/pkg/httpx"
	"github.com/nitrolabs/nitro/pkg/jwtx"
	"github.com/nitrolabs/nitro/pkg/slogx"
)

// CookieName is the cookie that carries the signed credential for browser
// clients. API clients send the same credential as a Bearer header.
const CookieName = "nitro_token"

const (
	LoginPath        = "/auth/login"
	AccessDeniedPath = "/auth/access-denied"
)

// ProtectedRoute subjects a path prefix to the authorization gate. Routes
// are evaluated in order and the first matching prefix wins, so more
// specific prefixes must come first.
type ProtectedRoute struct {
	Prefix string

	// Roles is the baseline set: the caller needs at least one of them.
	Roles []string

	// Permission, when non-empty, is additionally required beyond the
	// baseline role check.
	Permission string
}

// DefaultProtectedRoutes returns the protected area of the application.
func DefaultProtectedRoutes() []ProtectedRoute {
	baseline := []string{authz.RoleAdmin, authz.RoleUser}
	return []ProtectedRoute{
		{Prefix: "/dashboard/admin", Roles: []string{authz.RoleAdmin}},
		{Prefix: "/dashboard", Roles: baseline},
		{Prefix: "/account", Roles: baseline},
		{Prefix: "/v1/admin", Roles: []string{authz.RoleAdmin}},
		{Prefix: "/v1/userinfo", Roles: baseline},
		{Prefix: "/v1/account", Roles: baseline},
		{Prefix: "/v1/auth/session", Roles: baseline},
	}
}

// Gate is the request interceptor for protected paths. Every failure mode
// except a store outage collapses into one of two outcomes, a login redirect
// or an access-denied redirect, so a probing client learns nothing about
// which check failed.
type Gate struct {
	Tokens  *service.TokenService
	Routes  []ProtectedRoute
	Metrics metrics.MetricsCollector
}

func (g *Gate) metrics() metrics.MetricsCollector {
	if g.Metrics == nil {
		return metrics.Noop{}
	}
	return g.Metrics
}

func (g *Gate) match(path string) (ProtectedRoute, bool) {
	for _, route := range g.Routes {
		if path == route.Prefix || strings.HasPrefix(path, route.Prefix+"/") {
			return route, true
		}
	}
	return ProtectedRoute{}, false
}

// Middleware wraps a handler with the gate. Requests outside every protected
// prefix pass through untouched.
func (g *Gate) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := g.match(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			l := slogx.FromContext(ctx)

			raw := CredentialFromRequest(r)
			if raw == "" {
				g.unauthenticated(w, r)
				return
			}

			claims, err := g.Tokens.Authorize(ctx, raw)
			if err != nil {
				if isCredentialError(err) {
					// A broken, expired or revoked credential is
					// indistinguishable from having none at all.
					g.unauthenticated(w, r)
					return
				}
				l.Error("authorization gate store failure", "err", err)
				g.unavailable(w, r)
				return
			}

			if !authz.HasAnyRole(claims.Roles, route.Roles) {
				g.denied(w, r)
				return
			}
			if route.Permission != "" && !authz.HasPermission(claims.Roles, route.Permission) {
				g.denied(w, r)
				return
			}

			g.metrics().RecordGateDecision(metrics.GateAllowed)
			ctx = httpx.ContextWithClaims(ctx, claims)
			ctx = slogx.WithUser(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (g *Gate) unauthenticated(w http.ResponseWriter, r *http.Request) {
	g.metrics().RecordGateDecision(metrics.GateLogin)
	if isAPIPath(r.URL.Path) {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}

	target := LoginPath + "?callback_url=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusFound)
}

func (g *Gate) denied(w http.ResponseWriter, r *http.Request) {
	g.metrics().RecordGateDecision(metrics.GateDenied)
	if isAPIPath(r.URL.Path) {
		httpx.WriteError(w, http.StatusForbidden, "access_denied", "insufficient privileges")
		return
	}
	http.Redirect(w, r, AccessDeniedPath, http.StatusFound)
}

func (g *Gate) unavailable(w http.ResponseWriter, r *http.Request) {
	g.metrics().RecordGateDecision(metrics.GateUnavailable)
	if isAPIPath(r.URL.Path) {
		httpx.WriteError(w, http.StatusServiceUnavailable, "temporarily_unavailable", "please retry")
		return
	}
	http.Error(w, "service unavailable", http.StatusServiceUnavailable)
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/v1/")
}

// isCredentialError separates authorization decisions from operational
// faults. Only the latter surface as 5xx.
func isCredentialError(err error) bool {
	switch {
	case errors.Is(err, service.ErrSessionRevoked),
		errors.Is(err, jwtx.ErrMalformed),
		errors.Is(err, jwtx.ErrAlgMismatch),
		errors.Is(err, jwtx.ErrInvalidSig),
		errors.Is(err, jwtx.ErrIssuer),
		errors.Is(err, jwtx.ErrExpired),
		errors.Is(err, jwtx.ErrNotYetValid),
		errors.Is(err, jwtx.ErrInvalidClaim):
		return true
	}
	return false
}

// CredentialFromRequest pulls the signed credential from the Authorization
// header, falling back to the session cookie for browser clients.
func CredentialFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
