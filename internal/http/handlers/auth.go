package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/hermes-be/internal/access"
	"github.com/hongminglow/hermes-be/internal/auth"
	"github.com/hongminglow/hermes-be/internal/http/respond"
	"github.com/hongminglow/hermes-be/internal/logging"
	"github.com/hongminglow/hermes-be/internal/metrics"
	"github.com/hongminglow/hermes-be/internal/models/dto"
)

// msgInvalidSignIn is shared by unknown emails and wrong passwords.
const msgInvalidSignIn = "invalid email or password"

// AuthHandler owns the register, sign-in, sign-out and session endpoints.
type AuthHandler struct {
	registrar     *auth.Registrar
	authenticator *auth.Authenticator
	tokens        *auth.TokenManager
	cookies       CookieConfig
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// NewAuthHandler constructs the handler. m may be nil.
func NewAuthHandler(
	registrar *auth.Registrar,
	authenticator *auth.Authenticator,
	tokens *auth.TokenManager,
	cookies CookieConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *AuthHandler {
	return &AuthHandler{
		registrar:     registrar,
		authenticator: authenticator,
		tokens:        tokens,
		cookies:       cookies,
		logger:        logger,
		metrics:       m,
	}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/signin", h.handleSignIn)
	mux.HandleFunc("POST /api/auth/signout", h.handleSignOut)
	mux.HandleFunc("GET /api/auth/session", h.handleSession)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.ObserveRegistration("invalid")
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.registrar.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingField),
			errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrInvalidRole):
			h.metrics.ObserveRegistration("invalid")
			respond.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrDuplicateEmail):
			h.metrics.ObserveRegistration("duplicate")
			respond.Error(w, http.StatusConflict, err.Error())
		default:
			h.metrics.ObserveRegistration("error")
			logging.LogError(h.logger, "register user failed", err)
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	h.metrics.ObserveRegistration("created")
	respond.JSON(w, http.StatusCreated, dto.RegisterResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	})
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	cred := auth.PasswordCredential{Email: req.Email, Password: req.Password}
	kind := auth.CredentialKind(cred)
	identity, err := h.authenticator.Authenticate(r.Context(), cred)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingField):
			h.metrics.ObserveSignIn(kind, "invalid")
			respond.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			h.metrics.ObserveSignIn(kind, "rejected")
			respond.Error(w, http.StatusUnauthorized, msgInvalidSignIn)
		default:
			h.metrics.ObserveSignIn(kind, "error")
			logging.LogError(h.logger, "password sign-in failed", err)
			respond.Error(w, http.StatusInternalServerError, "failed to sign in")
		}
		return
	}

	token, claims, err := h.tokens.Issue(identity)
	if err != nil {
		h.metrics.ObserveSignIn(kind, "error")
		logging.LogError(h.logger, "issue session token failed", err)
		respond.Error(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	h.metrics.ObserveSignIn(kind, "success")
	h.cookies.setSession(w, token, claims.ExpiresAt.Time)
	respond.JSON(w, http.StatusOK, dto.SignInResponse{Token: token, User: sessionUser(claims)})
}

func (h *AuthHandler) handleSignOut(w http.ResponseWriter, _ *http.Request) {
	h.cookies.clearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	claims, ok, err := h.tokens.Resolve(r.Context(), access.TokenFromRequest(r))
	if err != nil {
		logging.LogError(h.logger, "refresh session role failed", err)
	}
	if !ok {
		respond.JSON(w, http.StatusOK, dto.SessionResponse{})
		return
	}
	user := sessionUser(claims)
	respond.JSON(w, http.StatusOK, dto.SessionResponse{
		User:    &user,
		Expires: claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func sessionUser(c auth.Claims) dto.SessionUser {
	return dto.SessionUser{
		ID:    c.ID,
		Email: c.Email,
		Name:  c.Name,
		Image: c.Image,
		Role:  c.Role,
	}
}
