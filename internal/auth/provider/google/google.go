// Package google signs users in with Google via OpenID Connect.
package google

import (
	"context"
	"errors"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/samber/oops"
	"golang.org/x/oauth2"

	"github.com/hongminglow/hermes-be/internal/auth"
)

const (
	providerName = "google"
	issuerURL    = "https://accounts.google.com"
)

// ErrMissingConfig is returned when client id, secret or redirect URL is empty.
var ErrMissingConfig = errors.New("google oauth config missing required fields")

// Config holds the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c Config) validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURL == "" {
		return ErrMissingConfig
	}
	return nil
}

type idTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// Provider implements provider.Provider for Google.
type Provider struct {
	oauthConfig *oauth2.Config
	verifier    idTokenVerifier
}

// New discovers Google's OIDC configuration and builds a provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, oops.Code("GOOGLE_DISCOVERY_FAILED").With("issuer", issuerURL).Wrap(err)
	}

	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     oidcProvider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the authorization URL with an S256 PKCE challenge.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)
}

// Exchange redeems code, verifies the returned ID token and maps its claims.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (auth.ExternalCredential, error) {
	token, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return auth.ExternalCredential{}, oops.Code("GOOGLE_EXCHANGE_FAILED").With("operation", "token exchange").Wrap(err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return auth.ExternalCredential{}, oops.Code("GOOGLE_ID_TOKEN_MISSING").Errorf("google did not return id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return auth.ExternalCredential{}, oops.Code("GOOGLE_ID_TOKEN_INVALID").With("operation", "verify id_token").Wrap(err)
	}

	var c idClaims
	if err := idToken.Claims(&c); err != nil {
		return auth.ExternalCredential{}, oops.Code("GOOGLE_ID_TOKEN_INVALID").With("operation", "decode claims").Wrap(err)
	}
	return c.credential()
}

type idClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// credential rejects tokens whose email Google has not verified, since the
// email is what links to a local account.
func (c idClaims) credential() (auth.ExternalCredential, error) {
	if c.Subject == "" || c.Email == "" {
		return auth.ExternalCredential{}, oops.Code("GOOGLE_CLAIMS_INCOMPLETE").With("subject", c.Subject).Errorf("google id_token missing required claims")
	}
	if !c.EmailVerified {
		return auth.ExternalCredential{}, oops.Code("GOOGLE_EMAIL_UNVERIFIED").With("email", c.Email).Errorf("google account email is not verified")
	}
	return auth.ExternalCredential{
		Provider: providerName,
		Subject:  c.Subject,
		Email:    c.Email,
		Name:     c.Name,
		Image:    c.Picture,
	}, nil
}
