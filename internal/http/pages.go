package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nitrolabs/nitro/internal/authz"
	"github.com/nitrolabs/nitro/pkg/httpx"
)

// The page handlers are deliberately minimal server-rendered placeholders.
// Their job is to give the protected prefixes real endpoints to sit behind;
// the interesting behaviour lives in the gate in front of them.

func writePage(w http.ResponseWriter, code int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body><h1>%s</h1>%s</body></html>",
		title, title, body)
}

// DashboardPage greets any authenticated user.
func DashboardPage(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	body := fmt.Sprintf("<p>Signed in as %s</p><p>Roles: %s</p>",
		claims.Email, strings.Join(claims.Roles, ", "))
	if authz.HasRole(claims.Roles, authz.RoleAdmin) {
		body += `<p><a href="/dashboard/admin">Admin area</a></p>`
	}
	writePage(w, http.StatusOK, "Dashboard", body)
}

// AdminDashboardPage sits behind the admin-only prefix.
func AdminDashboardPage(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	writePage(w, http.StatusOK, "Admin Dashboard",
		fmt.Sprintf("<p>Welcome, %s</p><p>Permissions: %s</p>",
			claims.Name, strings.Join(claims.Permissions, ", ")))
}

// AccountPage shows the signed-in user's account settings.
func AccountPage(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	writePage(w, http.StatusOK, "Account",
		fmt.Sprintf("<p>%s (%s)</p><p>Change your password via POST /v1/account/change-password</p>",
			claims.Name, claims.Email))
}

// LoginPage is the unauthenticated sign-in form target.
func LoginPage(w http.ResponseWriter, r *http.Request) {
	callback := r.URL.Query().Get("callback_url")
	body := `<form method="post" action="/v1/auth/login">` +
		`<input name="email" type="email" placeholder="email">` +
		`<input name="password" type="password" placeholder="password">` +
		`<button type="submit">Sign in</button></form>`
	if callback != "" {
		body += fmt.Sprintf("<p>You will be returned to %s</p>", callback)
	}
	writePage(w, http.StatusOK, "Sign in", body)
}

// AccessDeniedPage is where the gate sends authenticated but under-privileged
// browser requests.
func AccessDeniedPage(w http.ResponseWriter, r *http.Request) {
	writePage(w, http.StatusForbidden, "Access denied",
		`<p>You do not have access to that page.</p><p><a href="/dashboard">Back to dashboard</a></p>`)
}
