package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"inkpost/internal/cache"
	"inkpost/internal/config"
	"inkpost/internal/model"
	"inkpost/internal/repository"
)

// JWTIssuer issues stateless HS256 tokens. Revocation is a jti blocklist
// that lives only as long as the revoked token would have.
type JWTIssuer struct {
	accounts  *UserService
	users     repository.UserRepository
	blocklist cache.TokenBlocklist
	secret    []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

func NewJWTIssuer(accounts *UserService, users repository.UserRepository, blocklist cache.TokenBlocklist, cfg *config.Config) *JWTIssuer {
	if blocklist == nil {
		blocklist = cache.NoopBlocklist{}
	}
	return &JWTIssuer{
		accounts:  accounts,
		users:     users,
		blocklist: blocklist,
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.JWTIssuer,
		ttl:       cfg.JWTTTL,
		now:       time.Now,
	}
}

func (s *JWTIssuer) Name() string { return config.GuardJWT }

func (s *JWTIssuer) Issue(ctx context.Context, creds model.Credentials) (*model.IssuedToken, error) {
	user, err := s.accounts.Authenticate(ctx, creds)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			return nil, badCredentials()
		}
		return nil, err
	}
	return s.IssueForUser(ctx, user)
}

func (s *JWTIssuer) IssueForUser(_ context.Context, user *model.User) (*model.IssuedToken, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &model.IssuedToken{
		AccessToken: signed,
		TokenType:   model.TokenTypeBearer,
		ExpiresIn:   int(s.ttl.Seconds()),
		User:        user,
	}, nil
}

func (s *JWTIssuer) Validate(ctx context.Context, raw string) (*model.User, error) {
	claims, err := s.parse(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.userFor(ctx, claims)
}

// Revoke blocklists the token's jti for its remaining lifetime.
func (s *JWTIssuer) Revoke(ctx context.Context, raw string) error {
	claims, err := s.parse(ctx, raw)
	if err != nil {
		return err
	}
	return s.block(ctx, claims)
}

// Refresh issues a new token for the same user and revokes the presented one.
func (s *JWTIssuer) Refresh(ctx context.Context, raw string) (*model.IssuedToken, error) {
	claims, err := s.parse(ctx, raw)
	if err != nil {
		return nil, err
	}
	user, err := s.userFor(ctx, claims)
	if err != nil {
		return nil, err
	}

	issued, err := s.IssueForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.block(ctx, claims); err != nil {
		return nil, err
	}
	return issued, nil
}

func (s *JWTIssuer) parse(ctx context.Context, raw string) (*jwt.RegisteredClaims, error) {
	if raw == "" {
		return nil, tokenMissing()
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, tokenExpired(err)
		}
		return nil, tokenInvalid(err)
	}
	if claims.ID == "" {
		return nil, tokenInvalid(errors.New("missing jti"))
	}

	blocked, err := s.blocklist.IsBlocked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token blocklist: %w", err)
	}
	if blocked {
		return nil, tokenInvalid(errors.New("token revoked"))
	}
	return claims, nil
}

func (s *JWTIssuer) userFor(ctx context.Context, claims *jwt.RegisteredClaims) (*model.User, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, tokenInvalid(fmt.Errorf("bad subject: %w", err))
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, tokenInvalid(err)
		}
		return nil, fmt.Errorf("load token user: %w", err)
	}
	return user, nil
}

func (s *JWTIssuer) block(ctx context.Context, claims *jwt.RegisteredClaims) error {
	remaining := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.blocklist.Block(ctx, claims.ID, remaining); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	slog.InfoContext(ctx, "jwt revoked", "component", "auth", "jti", claims.ID)
	return nil
}
