package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/hermes-be/internal/access"
	"github.com/hongminglow/hermes-be/internal/auth"
	"github.com/hongminglow/hermes-be/internal/models"
)

func callbackRequest(query string, cookies map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback/stub?"+query, nil)
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return req
}

func validOAuthCookies(callback string) map[string]string {
	return map[string]string{
		oauthStateCookie:    "state-123",
		oauthVerifierCookie: "verifier-456",
		oauthCallbackCookie: callback,
	}
}

func TestOAuthSignIn_RedirectsToProvider(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/signin/stub?callbackUrl=/dashboard/user", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "idp.example", loc.Host)
	assert.Equal(t, "state-123", loc.Query().Get("state"))

	assert.Equal(t, "state-123", findCookie(rec, oauthStateCookie).Value)
	assert.Equal(t, "verifier-456", findCookie(rec, oauthVerifierCookie).Value)
	assert.Equal(t, "/dashboard/user", findCookie(rec, oauthCallbackCookie).Value)
}

func TestOAuthSignIn_UnknownProvider(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/signin/github", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOAuthCallback_NewUser(t *testing.T) {
	env := newTestEnv(t)
	env.provider.cred = auth.ExternalCredential{
		Provider: "stub",
		Subject:  "sub-1",
		Email:    "new@example.com",
		Name:     "New Person",
	}

	rec := env.do(t, callbackRequest("state=state-123&code=abc", validOAuthCookies("/dashboard/user")))

	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/dashboard/user", rec.Header().Get("Location"))
	assert.Equal(t, "abc", env.provider.gotCode)
	assert.Equal(t, "verifier-456", env.provider.gotVerifier)

	cookie := findCookie(rec, access.SessionCookieName)
	require.NotNil(t, cookie)
	claims, err := env.tokens.Decode(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "stub:sub-1", claims.ID)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, "New Person", claims.Name)

	state := findCookie(rec, oauthStateCookie)
	require.NotNil(t, state)
	assert.Negative(t, state.MaxAge)
}

func TestOAuthCallback_ExistingUserKeepsRole(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "admin@example.com", "secret123", "admin")
	env.provider.cred = auth.ExternalCredential{Provider: "stub", Subject: "sub-2", Email: "admin@example.com"}

	rec := env.do(t, callbackRequest("state=state-123&code=abc", validOAuthCookies("")))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	claims, err := env.tokens.Decode(findCookie(rec, access.SessionCookieName).Value)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestOAuthCallback_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		cookies    map[string]string
		exchange   error
		wantStatus int
	}{
		{"state mismatch", "state=other&code=abc", validOAuthCookies("/"), nil, http.StatusBadRequest},
		{"no state cookie", "state=state-123&code=abc", map[string]string{oauthVerifierCookie: "verifier-456"}, nil, http.StatusBadRequest},
		{"no verifier cookie", "state=state-123&code=abc", map[string]string{oauthStateCookie: "state-123"}, nil, http.StatusBadRequest},
		{"missing code", "state=state-123", validOAuthCookies("/"), nil, http.StatusBadRequest},
		{"provider error", "state=state-123&error=access_denied", validOAuthCookies("/"), nil, http.StatusUnauthorized},
		{"exchange fails", "state=state-123&code=abc", validOAuthCookies("/"), errors.New("bad code"), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.provider.cred = auth.ExternalCredential{Provider: "stub", Subject: "s", Email: "x@example.com"}
			env.provider.err = tt.exchange

			rec := env.do(t, callbackRequest(tt.query, tt.cookies))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Nil(t, findCookie(rec, access.SessionCookieName))
		})
	}
}

func TestOAuthCallback_CredentialWithoutEmail(t *testing.T) {
	env := newTestEnv(t)
	env.provider.cred = auth.ExternalCredential{Provider: "stub", Subject: "s"}

	rec := env.do(t, callbackRequest("state=state-123&code=abc", validOAuthCookies("/")))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSafeCallback(t *testing.T) {
	tests := map[string]string{
		"/dashboard/user":      "/dashboard/user",
		"":                     "/",
		"https://evil.example": "/",
		"//evil.example/path":  "/",
		"/\\evil.example":      "/",
		"/dashboard?tab=a":     "/dashboard?tab=a",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeCallback(in), in)
	}
}
