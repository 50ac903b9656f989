package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/hongminglow/hermes-be/internal/models"
	"github.com/hongminglow/hermes-be/internal/storage"
)

// Identity is the normalized result of a successful authentication.
type Identity struct {
	ID    string
	Email string
	Name  string
	Image string
	Role  models.Role
}

// Credential is a login attempt. It is implemented only by
// PasswordCredential and ExternalCredential.
type Credential interface {
	credentialKind() string
}

// PasswordCredential is an email/password pair.
type PasswordCredential struct {
	Email    string
	Password string
}

// ExternalCredential is an identity already verified by a trusted provider.
type ExternalCredential struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Image    string
}

func (PasswordCredential) credentialKind() string { return "password" }
func (ExternalCredential) credentialKind() string { return "external" }

// CredentialKind names the variant of c for logs and metrics.
func CredentialKind(c Credential) string {
	if c == nil {
		return "unknown"
	}
	return c.credentialKind()
}

// fallbackDummyHash is used only if the hasher cannot produce a dummy digest.
//
//nolint:gosec // G101: not a credential.
const fallbackDummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3rMz6rG2Jt5G1w8dX1b2eKa"

// Authenticator turns credentials into identities.
type Authenticator struct {
	store  storage.UserStore
	hasher PasswordHasher
	// dummyHash is verified against when no user exists so a miss costs as
	// much as a wrong password. It is made by hasher, so it shares its cost.
	dummyHash string
}

// NewAuthenticator builds an Authenticator.
func NewAuthenticator(store storage.UserStore, hasher PasswordHasher) *Authenticator {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		dummy = fallbackDummyHash
	}
	return &Authenticator{store: store, hasher: hasher, dummyHash: dummy}
}

// Authenticate makes a single decision for cred. It never retries.
func (a *Authenticator) Authenticate(ctx context.Context, cred Credential) (Identity, error) {
	switch c := cred.(type) {
	case PasswordCredential:
		return a.authenticatePassword(ctx, c)
	case ExternalCredential:
		return a.authenticateExternal(ctx, c)
	default:
		return Identity{}, oops.Code("AUTH_UNSUPPORTED_CREDENTIAL").Errorf("unsupported credential %T", cred)
	}
}

func (a *Authenticator) authenticatePassword(ctx context.Context, c PasswordCredential) (Identity, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" || c.Password == "" {
		return Identity{}, ErrMissingField
	}

	user, err := a.lookup(ctx, email)
	if err != nil {
		return Identity{}, err
	}
	if user == nil || !user.HasPassword() {
		a.hasher.Verify(c.Password, a.dummyHash)
		return Identity{}, ErrUserNotFound
	}
	if !a.hasher.Verify(c.Password, *user.PasswordHash) {
		return Identity{}, ErrInvalidCredentials
	}
	return identityFromUser(*user), nil
}

// authenticateExternal accepts a provider-verified identity. A local record
// with the same email supplies id and role; otherwise the identity is keyed
// by provider subject and gets the default role.
func (a *Authenticator) authenticateExternal(ctx context.Context, c ExternalCredential) (Identity, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return Identity{}, ErrMissingField
	}

	user, err := a.lookup(ctx, email)
	if err != nil {
		return Identity{}, err
	}
	if user != nil {
		id := identityFromUser(*user)
		if id.Name == "" {
			id.Name = c.Name
		}
		if id.Image == "" {
			id.Image = c.Image
		}
		return id, nil
	}

	return Identity{
		ID:    c.Provider + ":" + c.Subject,
		Email: email,
		Name:  c.Name,
		Image: c.Image,
		Role:  models.DefaultRole,
	}, nil
}

// lookup returns nil without error when the email is unknown.
func (a *Authenticator) lookup(ctx context.Context, email string) (*models.User, error) {
	user, err := a.store.FindByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}
	return &user, nil
}

func identityFromUser(u models.User) Identity {
	id := Identity{
		ID:    u.ID,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.Name != nil {
		id.Name = *u.Name
	}
	if u.Image != nil {
		id.Image = *u.Image
	}
	return id
}
