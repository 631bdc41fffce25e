package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nitrolabs/nitro/internal/authz"
	"github.com/nitrolabs/nitro/internal/domain"
	"github.com/nitrolabs/nitro/internal/metrics"
	"github.com/nitrolabs/nitro/internal/service"
	"github.com/nitrolabs/nitro/internal/store"
	"github.com/nitrolabs/nitro/internal/store/drivers/sqlite"
	"github.com/nitrolabs/nitro/pkg/cryptox"
	"github.com/nitrolabs/nitro/pkg/idx"
	"github.com/nitrolabs/nitro/pkg/jwtx"
	"github.com/nitrolabs/nitro/pkg/slogx"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://nitro.test"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "nitro-http-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

type testEnv struct {
	router *Router
	store  store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	seeder := &service.SeedService{Store: st}
	require.NoError(t, seeder.Seed(context.Background()))

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(testSecret, testIssuer)
	require.NoError(t, err)

	sessions := &service.SessionService{Store: st}
	tokens := &service.TokenService{
		Signer:   signer,
		Verifier: verifier,
		Sessions: sessions,
		Issuer:   testIssuer,
	}

	reg := prometheus.NewRegistry()
	router := NewRouter(
		"test",
		st,
		slogx.New(slogx.Config{Level: "error", Format: "text"}),
		metrics.NewCollector(reg),
		reg,
	)
	router.AuthService = &service.AuthService{Store: st}
	router.SessionService = sessions
	router.TokenService = tokens
	router.AccountService = &service.AccountService{Store: st}
	router.ApplyRoutes()

	return &testEnv{router: router, store: st}
}

func (e *testEnv) createUser(t *testing.T, email, password, roleName string) domain.User {
	t.Helper()
	ctx := context.Background()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.Users().CreateUser(ctx, u))

	role, err := e.store.Roles().GetRoleByName(ctx, roleName)
	require.NoError(t, err)
	require.NoError(t, e.store.Users().AssignRole(ctx, u.ID, role.ID))
	return u
}

func (e *testEnv) login(t *testing.T, email, password string) (string, *http.Cookie) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "login: %s", rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the credential cookie")
	return resp.AccessToken, cookie
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "a@x.com", "Sup3r$ecret", authz.RoleUser)

	for _, payload := range []map[string]string{
		{"email": "a@x.com", "password": "wrong"},
		{"email": "ghost@x.com", "password": "Sup3r$ecret"},
		{"email": "", "password": ""},
	} {
		body, _ := json.Marshal(payload)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		// One generic message for every credential failure.
		require.Equal(t, "authentication_failed", resp["error"])
	}
}

func TestLoginResponseCarriesProfile(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser(t, "a@x.com", "Sup3r$ecret", authz.RoleUser)

	body, _ := json.Marshal(map[string]string{"email": "a@x.com", "password": "Sup3r$ecret"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TokenType string `json:"token_type"`
		User      struct {
			ID          string   `json:"id"`
			Email       string   `json:"email"`
			Roles       []string `json:"roles"`
			Permissions []string `json:"permissions"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, u.ID, resp.User.ID)
	require.Equal(t, "a@x.com", resp.User.Email)
	require.Equal(t, []string{authz.RoleUser}, resp.User.Roles)
	require.Equal(t, []string{authz.PermissionDashboardView}, resp.User.Permissions)
}

func TestGateScenarioADeniesUserOnAdminSubtree(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "a@x.com", "Sup3r$ecret", authz.RoleUser)
	_, cookie := env.login(t, "a@x.com", "Sup3r$ecret")

	// Baseline area is reachable.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The admin subtree is not.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, AccessDeniedPath, rec.Header().Get("Location"))
}

func TestGateScenarioBAllowsAdminOnAdminSubtree(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "a@x.com", "Sup3r$ecret", authz.RoleAdmin)
	token, cookie := env.login(t, "a@x.com", "Sup3r$ecret")

	claims, err := env.router.TokenService.Decode(token)
	require.NoError(t, err)
	require.Equal(t, []string{authz.RoleAdmin}, claims.Roles)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGateScenarioDRevokedCredentialRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "a@x.com", "Sup3r$ecret", authz.RoleUser)
	_, cookie := env.login(t, "a@x.com", "Sup3r$ecret")

	// Logout while holding on to the old credential.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The pre-logout credential still decodes, but the gate must bounce it
	// to login, not to access-denied.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), LoginPath)
}

func TestGateDeniesUserOnAdminAPIPrefix(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "a@x.com", "Sup3r$ecret", authz.RoleUser)
	token, _ := env.login(t, "a@x.com", "Sup3r$ecret")

	// API paths get a JSON 403, never a redirect.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "access_denied", resp["error"])
}

func TestGateWithoutCredential(t *testing.T) {
	env := newTestEnv(t)

	// Browser path: redirect to login with a callback.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/settings?tab=profile", nil)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), LoginPath+"?callback_url=")
	require.Contains(t, rec.Header().Get("Location"), "tab%3Dprofile")

	// API path: JSON 401, no redirect.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage bearer token counts as no credential.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateIgnoresUnprotectedPaths(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// A prefix look-alike is not protected.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/dashboardish", nil)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserInfoWithBearerToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser(t, "a@x.com", "Sup3r$ecret", authz.RoleAdmin)
	token, _ := env.login(t, "a@x.com", "Sup3r$ecret")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UserID      string   `json:"user_id"`
		Email       string   `json:"email"`
		Roles       []string `json:"roles"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, u.ID, resp.UserID)
	require.Equal(t, "a@x.com", resp.Email)
	require.Equal(t, []string{authz.RoleAdmin}, resp.Roles)
	require.Contains(t, resp.Permissions, authz.PermissionAdminDashboard)
}

func TestSessionUpdateTerminateSignal(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "a@x.com", "Sup3r$ecret", authz.RoleUser)
	token, _ := env.login(t, "a@x.com", "Sup3r$ecret")

	// Plain update reports the live session.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/session", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Active bool `json:"active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.True(t, status.Active)

	// The terminate signal revokes the session.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/session",
		bytes.NewReader([]byte(`{"terminate_session":true}`)))
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The same credential is now dead at the gate.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/session", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePasswordEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "a@x.com", "Sup3r$ecret", authz.RoleUser)
	token, _ := env.login(t, "a@x.com", "Sup3r$ecret")

	do := func(current, next string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{
			"current_password": current,
			"new_password":     next,
		})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/account/change-password", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		env.router.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusUnauthorized, do("wrong", "N3w$ecret").Code)
	require.Equal(t, http.StatusBadRequest, do("Sup3r$ecret", "weak").Code)
	require.Equal(t, http.StatusNoContent, do("Sup3r$ecret", "N3w$ecret").Code)

	// Old password is gone, new one works.
	body, _ := json.Marshal(map[string]string{"email": "a@x.com", "password": "Sup3r$ecret"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	env.login(t, "a@x.com", "N3w$ecret")
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/livez", "/readyz", "/metrics"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
