package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"inkpost/internal/model"
)

type accessTokenRepository struct {
	db *sqlx.DB
}

// NewAccessTokenRepository creates a new personal access token repository
func NewAccessTokenRepository(db *sqlx.DB) AccessTokenRepository {
	return &accessTokenRepository{db: db}
}

// Create inserts a new token record and fills its ID and CreatedAt
func (r *accessTokenRepository) Create(ctx context.Context, token *model.PersonalAccessToken) error {
	query := `
		INSERT INTO personal_access_tokens (user_id, name, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		token.UserID,
		token.Name,
		token.TokenHash,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}
	return nil
}

// GetByID retrieves a token record by its ID
func (r *accessTokenRepository) GetByID(ctx context.Context, id int64) (*model.PersonalAccessToken, error) {
	query := `
		SELECT id, user_id, name, token_hash, expires_at, last_used_at, created_at
		FROM personal_access_tokens
		WHERE id = $1
	`
	var token model.PersonalAccessToken
	err := r.db.GetContext(ctx, &token, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccessTokenNotFound
		}
		return nil, fmt.Errorf("failed to find access token: %w", err)
	}
	return &token, nil
}

// Touch records the last time a token authenticated a request
func (r *accessTokenRepository) Touch(ctx context.Context, id int64, usedAt time.Time) error {
	query := `UPDATE personal_access_tokens SET last_used_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, usedAt, id)
	if err != nil {
		return fmt.Errorf("failed to touch access token: %w", err)
	}
	return nil
}

// Delete removes exactly one token; other tokens of the same user stay valid
func (r *accessTokenRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM personal_access_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete access token: %w", err)
	}
	return requireAffected(res, model.ErrAccessTokenNotFound)
}
