package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hongminglow/hermes-be/internal/access"
	"github.com/hongminglow/hermes-be/internal/auth"
	"github.com/hongminglow/hermes-be/internal/auth/provider"
	"github.com/hongminglow/hermes-be/internal/http/respond"
	"github.com/hongminglow/hermes-be/internal/logging"
	"github.com/hongminglow/hermes-be/internal/models"
	"github.com/hongminglow/hermes-be/internal/models/dto"
)

// PagesHandler serves the landing page, the role dashboards and the pages
// the access layer redirects to.
type PagesHandler struct {
	tokens           *auth.TokenManager
	router           *access.RoleRouter
	providers        *provider.Registry
	signInPath       string
	unauthorizedPath string
	logger           *slog.Logger
}

// NewPagesHandler constructs the handler. providers may be nil.
func NewPagesHandler(
	tokens *auth.TokenManager,
	providers *provider.Registry,
	signInPath, unauthorizedPath string,
	logger *slog.Logger,
) *PagesHandler {
	if signInPath == "" {
		signInPath = access.DefaultSignInPath
	}
	if unauthorizedPath == "" {
		unauthorizedPath = access.DefaultUnauthorizedPath
	}
	return &PagesHandler{
		tokens:           tokens,
		router:           access.NewRoleRouter(signInPath, unauthorizedPath),
		providers:        providers,
		signInPath:       signInPath,
		unauthorizedPath: unauthorizedPath,
		logger:           logger,
	}
}

// Register attaches the page routes to the mux.
func (h *PagesHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleLanding)
	mux.HandleFunc("GET /dashboard", h.handleLanding)
	mux.HandleFunc("GET /dashboard/{area}", h.handleDashboard)
	mux.HandleFunc("GET "+h.signInPath, h.handleSignInPage)
	mux.HandleFunc("GET "+h.unauthorizedPath, h.handleUnauthorized)
}

func (h *PagesHandler) handleLanding(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	decision := h.router.Landing(session)
	if decision.Action == access.Redirect {
		http.Redirect(w, r, decision.Location, http.StatusFound)
		return
	}
	if r.URL.Path != "/" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "welcome to hermes",
		"signIn":  h.signInPath,
	})
}

func (h *PagesHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	area := models.Role(r.PathValue("area"))
	if !area.Valid() {
		respond.Error(w, http.StatusNotFound, "unknown dashboard area")
		return
	}

	session := h.session(r)
	decision := h.router.Authorize(session, area)
	if decision.Action == access.Redirect {
		location := decision.Location
		if session == nil {
			location = access.SignInURL(location, r.URL.Path)
		}
		http.Redirect(w, r, location, http.StatusFound)
		return
	}
	respond.JSON(w, http.StatusOK, dto.DashboardResponse{Area: area, User: sessionUser(*session)})
}

func (h *PagesHandler) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	providers := []string{}
	if h.providers != nil {
		providers = h.providers.Names()
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"providers":   providers,
		"callbackUrl": safeCallback(r.URL.Query().Get(access.CallbackParam)),
	})
}

func (h *PagesHandler) handleUnauthorized(w http.ResponseWriter, _ *http.Request) {
	respond.Error(w, http.StatusForbidden, "you are not allowed to view this area")
}

// session returns the claims the Gate attached, or resolves the request's
// token on unprotected routes. The role is refreshed from the store when the
// token lacks one.
func (h *PagesHandler) session(r *http.Request) *auth.Claims {
	claims, ok := access.ClaimsFromContext(r.Context())
	if !ok {
		var err error
		claims, ok, err = h.tokens.Resolve(r.Context(), access.TokenFromRequest(r))
		if err != nil {
			logging.LogError(h.logger, "refresh session role failed", err)
		}
		if !ok {
			return nil
		}
		return &claims
	}
	refreshed, err := h.tokens.RefreshRole(r.Context(), claims)
	if err != nil {
		logging.LogError(h.logger, "refresh session role failed", err)
	}
	return &refreshed
}
