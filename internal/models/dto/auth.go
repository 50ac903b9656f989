package dto

import "github.com/hongminglow/hermes-be/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// RegisterResponse is the public view of a freshly created account.
type RegisterResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  *string     `json:"name"`
	Role  models.Role `json:"role"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionUser struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
	Image string      `json:"image,omitempty"`
	Role  models.Role `json:"role,omitempty"`
}

type SignInResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

type SessionResponse struct {
	User    *SessionUser `json:"user,omitempty"`
	Expires string       `json:"expires,omitempty"`
}

// DashboardResponse is what a role area hands to the presentation layer.
type DashboardResponse struct {
	Area models.Role `json:"area"`
	User SessionUser `json:"user"`
}
