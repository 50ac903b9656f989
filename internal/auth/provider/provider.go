// Package provider holds the external identity providers the service can
// delegate sign-in to. Providers only report verified identity facts; every
// authentication decision stays in package auth.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hongminglow/hermes-be/internal/auth"
)

// ErrUnknownProvider is returned by Registry.Get for unregistered names.
var ErrUnknownProvider = errors.New("unknown identity provider")

// Provider is an OAuth/OIDC identity provider.
type Provider interface {
	// Name returns the provider identifier used in routes, e.g. "google".
	Name() string

	// AuthCodeURL returns the authorization URL for state and the PKCE
	// verifier held by the caller.
	AuthCodeURL(state, verifier string) string

	// Exchange trades an authorization code for a verified identity.
	Exchange(ctx context.Context, code, verifier string) (auth.ExternalCredential, error)
}

// Registry looks providers up by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers the given providers by name. Later entries win on
// duplicate names.
func NewRegistry(list ...Provider) *Registry {
	m := make(map[string]Provider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
