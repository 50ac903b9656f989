package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/hongminglow/hermes-be/internal/access"
	"github.com/hongminglow/hermes-be/internal/auth"
	"github.com/hongminglow/hermes-be/internal/auth/provider"
	"github.com/hongminglow/hermes-be/internal/http/respond"
	"github.com/hongminglow/hermes-be/internal/logging"
	"github.com/hongminglow/hermes-be/internal/metrics"
)

// OAuthHandler runs the authorization code flow against external providers.
type OAuthHandler struct {
	providers     *provider.Registry
	authenticator *auth.Authenticator
	tokens        *auth.TokenManager
	cookies       CookieConfig
	logger        *slog.Logger
	metrics       *metrics.Metrics

	newState    func() string
	newVerifier func() string
}

// NewOAuthHandler constructs the handler. m may be nil.
func NewOAuthHandler(
	providers *provider.Registry,
	authenticator *auth.Authenticator,
	tokens *auth.TokenManager,
	cookies CookieConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *OAuthHandler {
	return &OAuthHandler{
		providers:     providers,
		authenticator: authenticator,
		tokens:        tokens,
		cookies:       cookies,
		logger:        logger,
		metrics:       m,
		newState:      uuid.NewString,
		newVerifier:   oauth2.GenerateVerifier,
	}
}

// Register attaches the provider routes to the mux.
func (h *OAuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/signin/{provider}", h.handleSignIn)
	mux.HandleFunc("GET /api/auth/callback/{provider}", h.handleCallback)
}

func (h *OAuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p, err := h.providers.Get(r.PathValue("provider"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, err.Error())
		return
	}

	state := h.newState()
	verifier := h.newVerifier()
	h.cookies.setOAuth(w, oauthStateCookie, state)
	h.cookies.setOAuth(w, oauthVerifierCookie, verifier)
	h.cookies.setOAuth(w, oauthCallbackCookie, safeCallback(r.URL.Query().Get(access.CallbackParam)))

	http.Redirect(w, r, p.AuthCodeURL(state, verifier), http.StatusFound)
}

func (h *OAuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	const kind = "external"

	p, err := h.providers.Get(r.PathValue("provider"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, err.Error())
		return
	}

	query := r.URL.Query()
	state, err := r.Cookie(oauthStateCookie)
	if err != nil || state.Value == "" || state.Value != query.Get("state") {
		h.metrics.ObserveSignIn(kind, "invalid")
		respond.Error(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	verifier, err := r.Cookie(oauthVerifierCookie)
	if err != nil || verifier.Value == "" {
		h.metrics.ObserveSignIn(kind, "invalid")
		respond.Error(w, http.StatusBadRequest, "missing pkce verifier")
		return
	}
	if msg := query.Get("error"); msg != "" {
		h.metrics.ObserveSignIn(kind, "rejected")
		h.logger.InfoContext(r.Context(), "provider denied sign-in", "provider", p.Name(), "error", msg)
		respond.Error(w, http.StatusUnauthorized, "provider denied sign-in")
		return
	}
	code := query.Get("code")
	if code == "" {
		h.metrics.ObserveSignIn(kind, "invalid")
		respond.Error(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	cred, err := p.Exchange(r.Context(), code, verifier.Value)
	if err != nil {
		h.metrics.ObserveSignIn(kind, "rejected")
		h.logger.WarnContext(r.Context(), "provider exchange failed", "provider", p.Name(), "error", err)
		respond.Error(w, http.StatusUnauthorized, "external sign-in failed")
		return
	}

	identity, err := h.authenticator.Authenticate(r.Context(), cred)
	if err != nil {
		if errors.Is(err, auth.ErrMissingField) {
			h.metrics.ObserveSignIn(kind, "rejected")
			respond.Error(w, http.StatusUnauthorized, "external sign-in failed")
			return
		}
		h.metrics.ObserveSignIn(kind, "error")
		logging.LogError(h.logger, "external sign-in failed", err)
		respond.Error(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	token, claims, err := h.tokens.Issue(identity)
	if err != nil {
		h.metrics.ObserveSignIn(kind, "error")
		logging.LogError(h.logger, "issue session token failed", err)
		respond.Error(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	callback := "/"
	if c, err := r.Cookie(oauthCallbackCookie); err == nil {
		callback = safeCallback(c.Value)
	}
	h.cookies.clear(w, oauthStateCookie, oauthCookiePath)
	h.cookies.clear(w, oauthVerifierCookie, oauthCookiePath)
	h.cookies.clear(w, oauthCallbackCookie, oauthCookiePath)
	h.cookies.setSession(w, token, claims.ExpiresAt.Time)

	h.metrics.ObserveSignIn(kind, "success")
	http.Redirect(w, r, callback, http.StatusFound)
}
