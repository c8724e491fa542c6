package model

import (
	"errors"
	"time"
)

// PersonalAccessToken is a server-stored opaque token record.
// The plaintext "<id>|<secret>" is only ever returned at creation.
type PersonalAccessToken struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	Name       string     `db:"name" json:"name"`
	TokenHash  string     `db:"token_hash" json:"-"` // Never expose hash
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// IsExpired returns true if the token has expired
func (t *PersonalAccessToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

var ErrAccessTokenNotFound = errors.New("access token not found")

// TokenTypeBearer is the only token type handed out.
const TokenTypeBearer = "bearer"

// IssuedToken is the result of a successful login or refresh.
type IssuedToken struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int // seconds
	User        *User
}

// TokenResponse is the signed-token login/refresh payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// UserWithToken is the opaque-token login/register payload: the user plus its new token.
type UserWithToken struct {
	*User
	Token string `json:"token"`
}

// IdentityLoginResponse is the external-identity login payload.
type IdentityLoginResponse struct {
	User      *User  `json:"user"`
	IDToken   string `json:"id_token"`
	ExpiresIn int    `json:"expires_in"`
}

// GoogleSignInRequest is the request body for POST /auth/firebase/google.
type GoogleSignInRequest struct {
	IDToken string `json:"id_token"`
}

// IdentitySession is a successful password sign-in at the external identity provider.
type IdentitySession struct {
	Identity  ExternalIdentity
	IDToken   string
	ExpiresIn int // seconds
}

// External identity token failures, mapped to AuthError kinds by the issuer.
var (
	ErrIdentityTokenExpired = errors.New("identity token expired")
	ErrIdentityTokenInvalid = errors.New("identity token invalid")
)
