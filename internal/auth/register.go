package auth

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/hongminglow/hermes-be/internal/models"
	"github.com/hongminglow/hermes-be/internal/storage"
)

// MinPasswordLength is the shortest password registration accepts.
const MinPasswordLength = 6

// RegisterInput carries a sign-up request. Name and Role are optional.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Registrar creates identity records.
type Registrar struct {
	store  storage.UserStore
	hasher PasswordHasher
	newID  func() string
}

// NewRegistrar builds a Registrar over store and hasher.
func NewRegistrar(store storage.UserStore, hasher PasswordHasher) *Registrar {
	return &Registrar{store: store, hasher: hasher, newID: uuid.NewString}
}

// Register validates input and stores a new user. Validation stops at the
// first failing check. The returned record never carries the password hash.
func (r *Registrar) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	email := strings.TrimSpace(in.Email)
	role, err := validateRegistration(email, in.Password, in.Role)
	if err != nil {
		return models.User{}, err
	}

	// Fast path only; the store's unique constraint is what enforces it.
	if _, err := r.store.FindByEmail(ctx, email); err == nil {
		return models.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, oops.Code("REGISTER_LOOKUP_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, oops.Code("REGISTER_HASH_FAILED").Wrap(err)
	}

	user := models.User{
		ID:           r.newID(),
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = &name
	}

	created, err := r.store.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, oops.Code("REGISTER_CREATE_FAILED").
			With("operation", "create user").
			Wrap(err)
	}
	created.PasswordHash = nil
	return created, nil
}

func validateRegistration(email, password, role string) (models.Role, error) {
	if validation.Validate(email, validation.Required) != nil ||
		validation.Validate(password, validation.Required) != nil {
		return "", ErrMissingField
	}
	if validation.Validate(password, validation.RuneLength(MinPasswordLength, 0)) != nil {
		return "", ErrWeakPassword
	}
	if role == "" {
		return models.DefaultRole, nil
	}
	if validation.Validate(models.Role(role), validation.In(roleValues()...)) != nil {
		return "", ErrInvalidRole
	}
	return models.Role(role), nil
}

func roleValues() []any {
	roles := models.Roles()
	out := make([]any, len(roles))
	for i, r := range roles {
		out[i] = r
	}
	return out
}
