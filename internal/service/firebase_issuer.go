package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"inkpost/internal/config"
	"inkpost/internal/model"
)

// IdentityProvider is the external identity service behind the firebase guard.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*model.IdentitySession, error)
	CreateAccount(ctx context.Context, email, password, displayName string) (*model.ExternalIdentity, error)
	// VerifyIDToken fails with model.ErrIdentityTokenExpired or
	// model.ErrIdentityTokenInvalid for rejected tokens.
	VerifyIDToken(ctx context.Context, idToken string) (*model.ExternalIdentity, error)
	LookupUser(ctx context.Context, uid string) (*model.ExternalIdentity, error)
	RevokeSessions(ctx context.Context, uid string) error
}

// FirebaseIssuer uses provider-minted ID tokens as bearer tokens and keeps a
// local user row per external uid.
type FirebaseIssuer struct {
	idp      IdentityProvider
	accounts *UserService
}

func NewFirebaseIssuer(idp IdentityProvider, accounts *UserService) *FirebaseIssuer {
	return &FirebaseIssuer{idp: idp, accounts: accounts}
}

func (s *FirebaseIssuer) Name() string { return config.GuardFirebase }

func (s *FirebaseIssuer) Issue(ctx context.Context, creds model.Credentials) (*model.IssuedToken, error) {
	if err := ValidateCredentials(creds); err != nil {
		return nil, err
	}

	session, err := s.idp.SignInWithPassword(ctx, strings.TrimSpace(creds.Email), creds.Password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			return nil, badCredentials()
		}
		return nil, fmt.Errorf("identity sign-in: %w", err)
	}

	user, err := s.accounts.FindOrCreateExternal(ctx, &session.Identity)
	if err != nil {
		return nil, err
	}

	return &model.IssuedToken{
		AccessToken: session.IDToken,
		TokenType:   model.TokenTypeBearer,
		ExpiresIn:   session.ExpiresIn,
		User:        user,
	}, nil
}

func (s *FirebaseIssuer) Validate(ctx context.Context, raw string) (*model.User, error) {
	ident, err := s.verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.accounts.FindOrCreateExternal(ctx, ident)
}

// Revoke ends every provider session of the token's user; the provider has
// no per-token revocation.
func (s *FirebaseIssuer) Revoke(ctx context.Context, raw string) error {
	ident, err := s.verify(ctx, raw)
	if err != nil {
		return err
	}
	if err := s.idp.RevokeSessions(ctx, ident.UID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "identity sessions revoked", "component", "auth", "uid", ident.UID)
	return nil
}

// Register creates the provider account first, then the linked local user.
func (s *FirebaseIssuer) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}

	ident, err := s.idp.CreateAccount(ctx, normalizeEmail(req.Email), req.Password, strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, model.ErrEmailExists) {
			return nil, model.NewValidationError("email", "the email has already been taken")
		}
		return nil, fmt.Errorf("create identity account: %w", err)
	}
	if ident.DisplayName == "" {
		ident.DisplayName = strings.TrimSpace(req.Name)
	}
	if ident.Email == "" {
		ident.Email = normalizeEmail(req.Email)
	}
	return s.accounts.FindOrCreateExternal(ctx, ident)
}

// SignInWithGoogle accepts an ID token obtained client-side through Google
// sign-in and returns the matching local user.
func (s *FirebaseIssuer) SignInWithGoogle(ctx context.Context, idToken string) (*model.User, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, model.NewValidationError("id_token", "the id token field is required")
	}

	verified, err := s.verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	ident, err := s.idp.LookupUser(ctx, verified.UID)
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if ident.Email == "" {
		ident.Email = verified.Email
	}
	return s.accounts.FindOrCreateExternal(ctx, ident)
}

func (s *FirebaseIssuer) verify(ctx context.Context, raw string) (*model.ExternalIdentity, error) {
	if raw == "" {
		return nil, tokenMissing()
	}

	ident, err := s.idp.VerifyIDToken(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrIdentityTokenExpired):
			return nil, tokenExpired(err)
		case errors.Is(err, model.ErrIdentityTokenInvalid):
			return nil, tokenInvalid(err)
		}
		return nil, fmt.Errorf("verify identity token: %w", err)
	}
	return ident, nil
}
