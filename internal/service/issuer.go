package service

import (
	"context"

	"inkpost/internal/model"
)

// TokenIssuer is one bearer-token strategy. Validate and Revoke report
// rejected tokens as *model.AuthError; any other error is an internal failure.
type TokenIssuer interface {
	// Name is the guard name used in routes and configuration.
	Name() string
	// Issue authenticates credentials and returns a fresh token.
	Issue(ctx context.Context, creds model.Credentials) (*model.IssuedToken, error)
	Validate(ctx context.Context, raw string) (*model.User, error)
	// Revoke invalidates the presented token.
	Revoke(ctx context.Context, raw string) error
}

// UserTokenMinter issues a token for an already authenticated user.
type UserTokenMinter interface {
	IssueForUser(ctx context.Context, user *model.User) (*model.IssuedToken, error)
}

// Refresher exchanges a valid token for a new one and retires the old.
type Refresher interface {
	Refresh(ctx context.Context, raw string) (*model.IssuedToken, error)
}

// Registrar creates an account for a guard.
type Registrar interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
}

func tokenMissing() error {
	return model.NewAuthError(model.KindTokenMissing, "authorization token not found", nil)
}

func tokenInvalid(err error) error {
	return model.NewAuthError(model.KindTokenInvalid, "token is invalid", err)
}

func tokenExpired(err error) error {
	return model.NewAuthError(model.KindTokenExpired, "token has expired", err)
}

func badCredentials() error {
	return model.NewAuthError(model.KindUnauthorized, "invalid email or password", nil)
}
