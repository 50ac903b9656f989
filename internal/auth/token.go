package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/hongminglow/hermes-be/internal/models"
	"github.com/hongminglow/hermes-be/internal/storage"
)

// Claims is the session payload carried by the client.
type Claims struct {
	jwt.RegisteredClaims
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
	Image string      `json:"image,omitempty"`
	Role  models.Role `json:"role,omitempty"`
}

// HasRole reports whether the role claim is populated.
func (c Claims) HasRole() bool {
	return c.Role != ""
}

// Identity returns the identity fields of the claims.
func (c Claims) Identity() Identity {
	return Identity{ID: c.ID, Email: c.Email, Name: c.Name, Image: c.Image, Role: c.Role}
}

// TokenManager issues and decodes signed, stateless session tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	store  storage.UserStore
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and
// lifetime. store is used to backfill missing role claims.
func NewTokenManager(secret, issuer string, ttl time.Duration, store storage.UserStore) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		store:  store,
		now:    time.Now,
	}, nil
}

// Issue signs a token embedding every identity claim.
func (t *TokenManager) Issue(id Identity) (string, Claims, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
		ID:    id.ID,
		Email: id.Email,
		Name:  id.Name,
		Image: id.Image,
		Role:  id.Role,
	}
	signed, err := t.sign(claims)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

// sign signs claims as they are, keeping their registered timestamps.
func (t *TokenManager) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Decode verifies raw and returns its claims. Every failure is reported as
// ErrInvalidToken.
func (t *TokenManager) Decode(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Email == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// RefreshRole fills a missing role from the user record matching the email
// claim. Claims that already carry a role are returned unchanged. An unknown
// email leaves the role empty.
func (t *TokenManager) RefreshRole(ctx context.Context, claims Claims) (Claims, error) {
	if claims.HasRole() || claims.Email == "" || t.store == nil {
		return claims, nil
	}
	user, err := t.store.FindByEmail(ctx, claims.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return claims, nil
	}
	if err != nil {
		return claims, oops.Code("TOKEN_ROLE_REFRESH_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}
	claims.Role = user.Role
	return claims, nil
}

// Resolve decodes raw and refreshes its role. ok is false when the token is
// absent or invalid; err only reports a failed role lookup.
func (t *TokenManager) Resolve(ctx context.Context, raw string) (claims Claims, ok bool, err error) {
	claims, decodeErr := t.Decode(raw)
	if decodeErr != nil {
		return Claims{}, false, nil
	}
	claims, err = t.RefreshRole(ctx, claims)
	return claims, true, err
}
