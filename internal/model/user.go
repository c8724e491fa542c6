package model

import (
	"errors"
	"time"
)

// User represents a user in the system
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // "-" hides from JSON output
	ExternalUID  *string   `db:"external_uid" json:"external_uid"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url"`
	AvatarKey    *string   `db:"avatar_key" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Credentials is what a token issuer authenticates.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the request body for PUT /auth/{guard}/me.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// ExternalIdentity is a user as reported by an external identity provider.
type ExternalIdentity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// User constraints
const (
	MaxNameLength     = 255
	MaxEmailLength    = 255
	MinPasswordLength = 8
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to create a user with a taken email
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
