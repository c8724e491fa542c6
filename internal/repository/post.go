package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"inkpost/internal/model"
)

const postColumns = `id, title, content, user_id, mirror_key, created_at, updated_at`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// List returns every post, newest first.
func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC, id DESC`

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) Create(ctx context.Context, userID int64, title, content string) (*model.Post, error) {
	query := `
		INSERT INTO posts (title, content, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + postColumns

	var post model.Post
	if err := r.db.GetContext(ctx, &post, query, title, content, userID); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// Update applies a partial update; nil fields keep their current value.
func (r *postRepository) Update(ctx context.Context, id int64, req model.UpdatePostRequest) (*model.Post, error) {
	query := `
		UPDATE posts
		SET title = COALESCE($1, title),
		    content = COALESCE($2, content),
		    updated_at = NOW()
		WHERE id = $3
		RETURNING ` + postColumns

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, req.Title, req.Content, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) SetMirrorKey(ctx context.Context, id int64, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE posts SET mirror_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("set mirror key: %w", err)
	}
	return requireAffected(res, model.ErrPostNotFound)
}

func (r *postRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return requireAffected(res, model.ErrPostNotFound)
}
