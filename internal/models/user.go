package models

import "time"

// User is the persisted identity record for an account.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            *string    `json:"name"`
	PasswordHash    *string    `json:"-"`
	Role            Role       `json:"role"`
	Image           *string    `json:"image,omitempty"`
	EmailVerifiedAt *time.Time `json:"emailVerified,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// HasPassword reports whether the record can authenticate with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
