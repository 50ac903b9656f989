package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/hongminglow/hermes-be/internal/access"
)

// Short-lived cookies carrying the OAuth round trip.
const (
	oauthStateCookie    = "hermes.oauth-state"
	oauthVerifierCookie = "hermes.pkce-verifier"
	oauthCallbackCookie = "hermes.callback-url"
	oauthCookiePath     = "/api/auth"
	oauthCookieTTL      = 10 * time.Minute
)

// CookieConfig controls the attributes of cookies the handlers set.
type CookieConfig struct {
	Secure bool
}

func (c CookieConfig) setSession(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     access.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clearSession(w http.ResponseWriter) {
	c.clear(w, access.SessionCookieName, "/")
}

func (c CookieConfig) setOAuth(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     oauthCookiePath,
		MaxAge:   int(oauthCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeCallback keeps redirects on this site: only absolute paths are
// honored, anything else goes to "/".
func safeCallback(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}
