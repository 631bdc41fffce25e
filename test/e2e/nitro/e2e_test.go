package nitro_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/nitrolabs/nitro/internal/app"

	"github.com/stretchr/testify/require"
)

/*
 * End-to-end tests that boot the whole application (config, migrations,
 * seeding, services, router) and drive it over HTTP like a real client.
 */

const (
	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!"
)

// newApp boots a fully wired application against a throwaway database.
func newApp(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("NITRO_DATABASE_FILE", filepath.Join(dir, "nitro.db"))
	t.Setenv("NITRO_PEPPER_FILE", filepath.Join(dir, "pepper"))
	t.Setenv("NITRO_SESSION_SECRET", "e2e-secret-0123456789abcdef0123456789")
	t.Setenv("NITRO_ADMIN_EMAIL", adminEmail)
	t.Setenv("NITRO_ADMIN_PASSWORD", adminPassword)
	t.Setenv("ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")

	application, err := app.New(app.LoadConfig())
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// newBrowser returns a client that carries cookies and does not follow
// redirects, so gate decisions stay observable.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) *http.Response {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := client.Post(baseURL+"/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSeededAdminFullJourney(t *testing.T) {
	srv := newApp(t)
	client := newBrowser(t)

	// Anonymous dashboard request bounces to login.
	resp, err := client.Get(srv.URL + "/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/auth/login", loc.Path)
	require.Equal(t, "/dashboard", loc.Query().Get("callback_url"))

	// The seeded admin can sign in.
	resp = login(t, client, srv.URL, adminEmail, adminPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokenResp))
	require.Equal(t, "Bearer", tokenResp.TokenType)
	require.NotEmpty(t, tokenResp.AccessToken)

	// The cookie now opens both the dashboard and the admin subtree.
	for _, path := range []string{"/dashboard", "/dashboard/admin", "/account"} {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	// Userinfo over the Bearer header reflects the seeded profile.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+tokenResp.AccessToken)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var info struct {
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&info))
	require.Equal(t, adminEmail, info.Email)
	require.Equal(t, []string{"admin"}, info.Roles)

	// Logout, then the old cookie is bounced to login (not access-denied).
	resp3, err := client.Post(srv.URL+"/v1/auth/logout", "application/json", nil)
	require.NoError(t, err)
	resp3.Body.Close()
	require.Equal(t, http.StatusNoContent, resp3.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+tokenResp.AccessToken)
	resp4, err := newBrowser(t).Do(req)
	require.NoError(t, err)
	resp4.Body.Close()
	require.Equal(t, http.StatusFound, resp4.StatusCode)
	require.Contains(t, resp4.Header.Get("Location"), "/auth/login")
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	srv := newApp(t)
	client := newBrowser(t)

	for _, tc := range []struct{ email, password string }{
		{adminEmail, "wrong-password"},
		{"ghost@example.com", adminPassword},
	} {
		resp := login(t, client, srv.URL, tc.email, tc.password)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var errResp struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		require.Equal(t, "authentication_failed", errResp.Error)
	}
}

func TestHealthAndMetricsUnauthenticated(t *testing.T) {
	srv := newApp(t)

	for _, path := range []string{"/livez", "/readyz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
