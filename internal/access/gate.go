package access

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gobwas/glob"

	"github.com/hongminglow/hermes-be/internal/auth"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "hermes.session-token"

// CallbackParam is the query parameter holding the originally requested path.
const CallbackParam = "callbackUrl"

// Default gate settings.
const (
	DefaultSignInPath       = "/auth/signin"
	DefaultUnauthorizedPath = "/unauthorized"
)

// DefaultProtectedPatterns protects every path starting with /dashboard.
var DefaultProtectedPatterns = []string{"/dashboard*"}

// SessionDecoder verifies a raw session token.
type SessionDecoder interface {
	Decode(raw string) (auth.Claims, error)
}

type claimsContextKey struct{}

// ClaimsFromContext returns the session the Gate attached to ctx.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(auth.Claims)
	return claims, ok
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// TokenFromRequest reads the session token from the session cookie, falling
// back to an Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// GateConfig configures a Gate.
type GateConfig struct {
	// ProtectedPatterns are glob patterns matched against the request path.
	// '*' also matches '/'.
	ProtectedPatterns []string
	SignInPath        string
	// OnRedirect, if set, is called for every request the Gate turns away.
	OnRedirect func(r *http.Request)
}

// Gate redirects unauthenticated requests for protected paths to sign-in.
type Gate struct {
	decoder    SessionDecoder
	patterns   []glob.Glob
	signInPath string
	onRedirect func(r *http.Request)
}

// NewGate compiles cfg's patterns. Empty fields take the package defaults.
func NewGate(decoder SessionDecoder, cfg GateConfig) (*Gate, error) {
	patterns := cfg.ProtectedPatterns
	if len(patterns) == 0 {
		patterns = DefaultProtectedPatterns
	}
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}
	signIn := cfg.SignInPath
	if signIn == "" {
		signIn = DefaultSignInPath
	}
	return &Gate{
		decoder:    decoder,
		patterns:   compiled,
		signInPath: signIn,
		onRedirect: cfg.OnRedirect,
	}, nil
}

// Protects reports whether path matches a protected pattern.
func (g *Gate) Protects(path string) bool {
	for _, p := range g.patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// Middleware wraps next so the gate decision completes before next runs.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Protects(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.decoder.Decode(TokenFromRequest(r))
		if err != nil {
			if g.onRedirect != nil {
				g.onRedirect(r)
			}
			http.Redirect(w, r, SignInURL(g.signInPath, r.URL.Path), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// SignInURL appends callback as the callbackUrl query parameter.
func SignInURL(signInPath, callback string) string {
	if callback == "" {
		return signInPath
	}
	return signInPath + "?" + url.Values{CallbackParam: {callback}}.Encode()
}
