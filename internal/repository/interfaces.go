package repository

import (
	"context"
	"time"

	"inkpost/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByExternalUID(ctx context.Context, uid string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateName(ctx context.Context, id int64, name string) (*model.User, error)
	UpdateAvatar(ctx context.Context, id int64, url, key *string) error
	// LinkExternalUID attaches an external identity to an existing local account.
	LinkExternalUID(ctx context.Context, id int64, uid string) error
}

type AccessTokenRepository interface {
	Create(ctx context.Context, token *model.PersonalAccessToken) error
	GetByID(ctx context.Context, id int64) (*model.PersonalAccessToken, error)
	Touch(ctx context.Context, id int64, usedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

// PostRepository is the relational post store. It is the source of truth for
// whether a create succeeded.
type PostRepository interface {
	List(ctx context.Context) ([]model.Post, error)
	Create(ctx context.Context, userID int64, title, content string) (*model.Post, error)
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	Update(ctx context.Context, id int64, req model.UpdatePostRequest) (*model.Post, error)
	SetMirrorKey(ctx context.Context, id int64, key string) error
	Delete(ctx context.Context, id int64) error
}

// PostMirror is the remote key-addressable copy of posts. It is not
// transactionally linked to PostRepository.
type PostMirror interface {
	// All returns the raw value stored under the mirror root (nil when empty).
	All(ctx context.Context) (interface{}, error)
	// Push stores the record under a freshly generated key and returns that key.
	Push(ctx context.Context, record model.MirrorRecord) (string, error)
	// Get returns nil, nil when nothing is stored under key.
	Get(ctx context.Context, key string) (model.MirrorRecord, error)
	Update(ctx context.Context, key string, fields map[string]interface{}) error
	Delete(ctx context.Context, key string) error
}
