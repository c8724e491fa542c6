package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkpost/internal/config"
	"inkpost/internal/model"
	"inkpost/internal/repository"
)

// PersonalTokenName labels tokens created at login and registration.
const PersonalTokenName = "Personal access Token"

// PersonalTokenIssuer hands out opaque "<id>|<secret>" tokens. Only the
// sha256 of the secret is stored, so every validation is a store lookup.
type PersonalTokenIssuer struct {
	accounts *UserService
	users    repository.UserRepository
	tokens   repository.AccessTokenRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewPersonalTokenIssuer(accounts *UserService, users repository.UserRepository, tokens repository.AccessTokenRepository, cfg *config.Config) *PersonalTokenIssuer {
	return &PersonalTokenIssuer{
		accounts: accounts,
		users:    users,
		tokens:   tokens,
		ttl:      cfg.SanctumTokenTTL,
		now:      time.Now,
	}
}

func (s *PersonalTokenIssuer) Name() string { return config.GuardSanctum }

func (s *PersonalTokenIssuer) Issue(ctx context.Context, creds model.Credentials) (*model.IssuedToken, error) {
	user, err := s.accounts.Authenticate(ctx, creds)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			return nil, badCredentials()
		}
		return nil, err
	}
	return s.IssueForUser(ctx, user)
}

// IssueForUser stores a new token record. The plaintext is returned once
// and cannot be recovered afterwards.
func (s *PersonalTokenIssuer) IssueForUser(ctx context.Context, user *model.User) (*model.IssuedToken, error) {
	secret := uuid.NewString()
	record := &model.PersonalAccessToken{
		UserID:    user.ID,
		Name:      PersonalTokenName,
		TokenHash: hashSecret(secret),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, &model.PersistenceError{Op: "create access token", Err: err}
	}

	return &model.IssuedToken{
		AccessToken: strconv.FormatInt(record.ID, 10) + "|" + secret,
		TokenType:   model.TokenTypeBearer,
		ExpiresIn:   int(s.ttl.Seconds()),
		User:        user,
	}, nil
}

func (s *PersonalTokenIssuer) Validate(ctx context.Context, raw string) (*model.User, error) {
	record, err := s.resolve(ctx, raw)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, tokenInvalid(err)
		}
		return nil, fmt.Errorf("load token user: %w", err)
	}

	if err := s.tokens.Touch(ctx, record.ID, s.now()); err != nil {
		slog.WarnContext(ctx, "failed to touch access token", "component", "auth", "token_id", record.ID, "error", err)
	}
	return user, nil
}

// Revoke deletes only the presented token; the user's other tokens stay valid.
func (s *PersonalTokenIssuer) Revoke(ctx context.Context, raw string) error {
	record, err := s.resolve(ctx, raw)
	if err != nil {
		return err
	}
	if err := s.tokens.Delete(ctx, record.ID); err != nil && !errors.Is(err, model.ErrAccessTokenNotFound) {
		return fmt.Errorf("delete access token: %w", err)
	}
	slog.InfoContext(ctx, "access token revoked", "component", "auth", "token_id", record.ID)
	return nil
}

func (s *PersonalTokenIssuer) resolve(ctx context.Context, raw string) (*model.PersonalAccessToken, error) {
	if raw == "" {
		return nil, tokenMissing()
	}

	idPart, secret, ok := strings.Cut(raw, "|")
	if !ok || secret == "" {
		return nil, tokenInvalid(errors.New("malformed token"))
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return nil, tokenInvalid(errors.New("malformed token id"))
	}

	record, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrAccessTokenNotFound) {
			return nil, tokenInvalid(err)
		}
		return nil, fmt.Errorf("load access token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(hashSecret(secret)), []byte(record.TokenHash)) != 1 {
		return nil, tokenInvalid(errors.New("secret mismatch"))
	}
	if record.IsExpired(s.now()) {
		return nil, tokenExpired(nil)
	}
	return record, nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
