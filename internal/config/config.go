package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/crypto/bcrypt"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port             string
	StorageDriver    string
	DatabaseURL      string
	DBConnectRetries uint64

	AuthSecret   string
	AuthIssuer   string
	AuthTTL      time.Duration
	BcryptCost   int
	CookieSecure bool

	SignInPath        string
	UnauthorizedPath  string
	ProtectedPatterns []string

	CORSOrigins []string
	LogFormat   string

	Google GoogleConfig
}

// GoogleConfig holds the optional Google sign-in client settings.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether a Google client is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:              fallback(os.Getenv("PORT"), "8080"),
		StorageDriver:     strings.ToLower(fallback(os.Getenv("STORAGE_DRIVER"), DriverPostgres)),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBConnectRetries:  uint64(positiveInt(os.Getenv("DB_CONNECT_RETRIES"), 5)),
		AuthSecret:        strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AuthIssuer:        fallback(os.Getenv("AUTH_ISSUER"), "hermes"),
		AuthTTL:           time.Duration(positiveInt(os.Getenv("AUTH_TTL_MINUTES"), 30*24*60)) * time.Minute,
		BcryptCost:        positiveInt(os.Getenv("BCRYPT_COST"), bcrypt.DefaultCost),
		CookieSecure:      parseBool(os.Getenv("AUTH_COOKIE_SECURE")),
		SignInPath:        fallback(os.Getenv("AUTH_SIGNIN_PATH"), "/auth/signin"),
		UnauthorizedPath:  fallback(os.Getenv("AUTH_UNAUTHORIZED_PATH"), "/unauthorized"),
		ProtectedPatterns: parseCSV(fallback(os.Getenv("AUTH_PROTECTED_PATHS"), "/dashboard*"), "/dashboard*"),
		CORSOrigins:       parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*"), "*"),
		LogFormat:         strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), "json")),
		Google: GoogleConfig{
			ClientID:     strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
			ClientSecret: strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
			RedirectURL:  strings.TrimSpace(os.Getenv("GOOGLE_REDIRECT_URL")),
		},
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER %q is not supported", cfg.StorageDriver)
	}
	if cfg.AuthSecret == "" {
		return Config{}, errors.New("AUTH_SECRET is required")
	}
	if err := cfg.validateAccessPaths(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// reservedPaths are served by fixed routes and cannot host the sign-in or
// unauthorized pages.
var reservedPaths = []string{"/", "/health", "/metrics", "/dashboard"}

// validateAccessPaths rejects page paths the router cannot register and a
// sign-in page the gate would itself protect.
func (c Config) validateAccessPaths() error {
	protected := make([]glob.Glob, 0, len(c.ProtectedPatterns))
	for _, p := range c.ProtectedPatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return fmt.Errorf("AUTH_PROTECTED_PATHS pattern %q is invalid: %w", p, err)
		}
		protected = append(protected, g)
	}

	for _, page := range []struct{ key, path string }{
		{"AUTH_SIGNIN_PATH", c.SignInPath},
		{"AUTH_UNAUTHORIZED_PATH", c.UnauthorizedPath},
	} {
		if err := validatePagePath(page.path); err != nil {
			return fmt.Errorf("%s %q %w", page.key, page.path, err)
		}
	}
	if c.SignInPath == c.UnauthorizedPath {
		return errors.New("AUTH_SIGNIN_PATH and AUTH_UNAUTHORIZED_PATH must differ")
	}
	for _, g := range protected {
		if g.Match(c.SignInPath) {
			return fmt.Errorf("AUTH_SIGNIN_PATH %q is covered by AUTH_PROTECTED_PATHS", c.SignInPath)
		}
	}
	return nil
}

func validatePagePath(path string) error {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return errors.New("must be an absolute path")
	}
	if strings.ContainsAny(path, "{}?# \t") {
		return errors.New("must be a plain path")
	}
	if slices.Contains(reservedPaths, path) || strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/dashboard/") {
		return errors.New("collides with a built-in route")
	}
	return nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

func parseCSV(input, def string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{def}
	}
	return out
}
