package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/hermes-be/internal/access"
	"github.com/hongminglow/hermes-be/internal/auth"
	"github.com/hongminglow/hermes-be/internal/auth/provider"
	"github.com/hongminglow/hermes-be/internal/metrics"
	"github.com/hongminglow/hermes-be/internal/storage"
	"github.com/hongminglow/hermes-be/internal/storage/memory"
)

const testSecret = "handler-test-secret"

// stubProvider stands in for an external identity provider.
type stubProvider struct {
	cred auth.ExternalCredential
	err  error

	gotCode     string
	gotVerifier string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) AuthCodeURL(state, verifier string) string {
	return "https://idp.example/authorize?state=" + state + "&verifier=" + verifier
}

func (p *stubProvider) Exchange(_ context.Context, code, verifier string) (auth.ExternalCredential, error) {
	p.gotCode = code
	p.gotVerifier = verifier
	return p.cred, p.err
}

type testEnv struct {
	store    storage.UserStore
	tokens   *auth.TokenManager
	metrics  *metrics.Metrics
	provider *stubProvider
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, memory.NewUserStore())
}

func newTestEnvWithStore(t *testing.T, store storage.UserStore) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	tokens, err := auth.NewTokenManager(testSecret, "hermes-test", time.Hour, store)
	require.NoError(t, err)
	m := metrics.New()
	stub := &stubProvider{}
	registry := provider.NewRegistry(stub)
	authenticator := auth.NewAuthenticator(store, hasher)
	cookies := CookieConfig{}

	mux := http.NewServeMux()
	NewHealthHandler(time.Now(), nil).Register(mux)
	NewAuthHandler(auth.NewRegistrar(store, hasher), authenticator, tokens, cookies, logger, m).Register(mux)
	oauth := NewOAuthHandler(registry, authenticator, tokens, cookies, logger, m)
	oauth.newState = func() string { return "state-123" }
	oauth.newVerifier = func() string { return "verifier-456" }
	oauth.Register(mux)
	NewPagesHandler(tokens, registry, "", "", logger).Register(mux)

	gate, err := access.NewGate(tokens, access.GateConfig{OnRedirect: m.ObserveGateRedirect})
	require.NoError(t, err)

	return &testEnv{
		store:    store,
		tokens:   tokens,
		metrics:  m,
		provider: stub,
		handler:  gate.Middleware(mux),
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

// register creates an account through the API and returns a session token
// obtained by signing in.
func (e *testEnv) register(t *testing.T, email, password, role string) string {
	t.Helper()
	rec := e.postJSON(t, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.postJSON(t, "/api/auth/signin", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Token
}

func withSession(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: access.SessionCookieName, Value: token})
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}
