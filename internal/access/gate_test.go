package access

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/hermes-be/internal/auth"
	"github.com/hongminglow/hermes-be/internal/models"
)

func newTokens(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager("gate-secret", "hermes-test", time.Hour, nil)
	require.NoError(t, err)
	return tm
}

func issue(t *testing.T, tm *auth.TokenManager, role models.Role) string {
	t.Helper()
	raw, _, err := tm.Issue(auth.Identity{ID: "u1", Email: "u@x.com", Role: role})
	require.NoError(t, err)
	return raw
}

// reached records whether the protected handler ran and what session it saw.
type reached struct {
	called bool
	claims auth.Claims
	ok     bool
}

func (h *reached) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.claims, h.ok = ClaimsFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func TestGate_RedirectsUnauthenticated(t *testing.T) {
	tm := newTokens(t)
	var redirects int
	gate, err := NewGate(tm, GateConfig{OnRedirect: func(*http.Request) { redirects++ }})
	require.NoError(t, err)

	next := &reached{}
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/user", nil))

	assert.False(t, next.called, "protected handler must not run")
	assert.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/signin", loc.Path)
	assert.Equal(t, "/dashboard/user", loc.Query().Get("callbackUrl"))
	assert.Equal(t, 1, redirects)
}

func TestGate_InvalidTokenIsUnauthenticated(t *testing.T) {
	tm := newTokens(t)
	other, err := auth.NewTokenManager("other-secret", "hermes-test", time.Hour, nil)
	require.NoError(t, err)
	gate, err := NewGate(tm, GateConfig{SignInPath: "/login"})
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":        "not-a-token",
		"foreign secret": issue(t, other, models.RoleAdmin),
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: raw})
			next := &reached{}
			rec := httptest.NewRecorder()
			gate.Middleware(next).ServeHTTP(rec, req)

			assert.False(t, next.called)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/login?callbackUrl=%2Fdashboard%2Fadmin", rec.Header().Get("Location"))
		})
	}
}

func TestGate_AllowsValidSessionRegardlessOfRole(t *testing.T) {
	tm := newTokens(t)
	gate, err := NewGate(tm, GateConfig{})
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard/startup", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: issue(t, tm, models.RoleInvestor)})
		next := &reached{}
		gate.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

		assert.True(t, next.called, "the gate does not check roles")
		require.True(t, next.ok)
		assert.Equal(t, models.RoleInvestor, next.claims.Role)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tm, ""))
		next := &reached{}
		gate.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

		assert.True(t, next.called)
		assert.False(t, next.claims.HasRole())
	})
}

func TestGate_UnprotectedPathsPassThrough(t *testing.T) {
	gate, err := NewGate(newTokens(t), GateConfig{})
	require.NoError(t, err)

	for _, path := range []string{"/", "/api/auth/register", "/auth/signin", "/unauthorized"} {
		next := &reached{}
		rec := httptest.NewRecorder()
		gate.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.True(t, next.called, path)
		assert.False(t, next.ok, path)
	}
}

func TestGate_Patterns(t *testing.T) {
	gate, err := NewGate(newTokens(t), GateConfig{})
	require.NoError(t, err)
	assert.True(t, gate.Protects("/dashboard"))
	assert.True(t, gate.Protects("/dashboard/user"))
	assert.True(t, gate.Protects("/dashboard/investor/deals/1"))
	assert.False(t, gate.Protects("/"))
	assert.False(t, gate.Protects("/api/dashboard"))

	custom, err := NewGate(newTokens(t), GateConfig{ProtectedPatterns: []string{"/admin/*", "/reports"}})
	require.NoError(t, err)
	assert.True(t, custom.Protects("/admin/users"))
	assert.True(t, custom.Protects("/reports"))
	assert.False(t, custom.Protects("/reports/2026"))
	assert.False(t, custom.Protects("/dashboard/user"))

	_, err = NewGate(newTokens(t), GateConfig{ProtectedPatterns: []string{"/dash[board"}})
	assert.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", TokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
	assert.Equal(t, "cookie-token", TokenFromRequest(req), "cookie wins over header")

	basic := httptest.NewRequest(http.MethodGet, "/", nil)
	basic.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Empty(t, TokenFromRequest(basic))
}

func TestSignInURL(t *testing.T) {
	assert.Equal(t, "/auth/signin", SignInURL("/auth/signin", ""))
	assert.Equal(t, "/auth/signin?callbackUrl=%2Fdashboard%2Fuser", SignInURL("/auth/signin", "/dashboard/user"))
}
