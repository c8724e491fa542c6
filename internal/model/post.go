package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Post represents a relational post row.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	UserID    int64     `db:"user_id" json:"user_id"`
	MirrorKey *string   `db:"mirror_key" json:"mirror_key"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MirrorRecord is a post as stored in the remote mirror: a free-form JSON object.
type MirrorRecord map[string]interface{}

// NewMirrorRecord builds the payload pushed to the mirror for a freshly created row.
func NewMirrorRecord(p *Post) MirrorRecord {
	return MirrorRecord{
		"post_id":    p.ID,
		"title":      p.Title,
		"content":    p.Content,
		"user_id":    p.UserID,
		"created_at": p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// PostID identifies a post in exactly one store. Numeric ids address the
// relational store, string keys address the mirror.
type PostID struct {
	numeric int64
	key     string
}

func NumericPostID(id int64) PostID { return PostID{numeric: id} }

func KeyPostID(key string) PostID { return PostID{key: key} }

// ParsePostID decides the variant from the raw path segment: positive
// decimal integers are numeric, any other non-empty string is a mirror key.
func ParsePostID(raw string) (PostID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PostID{}, ErrInvalidPostID
	}
	if isDigits(raw) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return PostID{}, ErrInvalidPostID
		}
		return NumericPostID(n), nil
	}
	if strings.ContainsAny(raw, "/.#$[]") {
		return PostID{}, ErrInvalidPostID
	}
	return KeyPostID(raw), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Numeric returns the relational id when the identifier is numeric.
func (id PostID) Numeric() (int64, bool) {
	return id.numeric, id.key == "" && id.numeric > 0
}

// Key returns the mirror key when the identifier is a string key.
func (id PostID) Key() (string, bool) {
	return id.key, id.key != ""
}

func (id PostID) String() string {
	if id.key != "" {
		return id.key
	}
	return strconv.FormatInt(id.numeric, 10)
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdatePostRequest is a partial update; nil fields are left untouched.
type UpdatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Fields returns the present fields as a mirror update payload.
func (r UpdatePostRequest) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, 2)
	if r.Title != nil {
		fields["title"] = *r.Title
	}
	if r.Content != nil {
		fields["content"] = *r.Content
	}
	return fields
}

// PostListResponse carries the relational list and the mirror's raw value side by side.
type PostListResponse struct {
	Posts       []Post      `json:"posts"`
	Mirror      interface{} `json:"mirror"`
	MirrorError string      `json:"mirror_error,omitempty"`
}

// CreatePostResponse reports both identifiers. MirrorError is set when the
// relational write succeeded but the mirror push did not.
type CreatePostResponse struct {
	Post        *Post  `json:"post"`
	MirrorKey   string `json:"mirror_key,omitempty"`
	MirrorError string `json:"mirror_error,omitempty"`
}

// PostView is a single post resolved from one store: Post for numeric ids,
// Key and Record for mirror keys.
type PostView struct {
	Post        *Post        `json:"post,omitempty"`
	Key         string       `json:"key,omitempty"`
	Record      MirrorRecord `json:"record,omitempty"`
	MirrorError string       `json:"mirror_error,omitempty"`
}

// Post constraints
const (
	MaxPostTitleLength = 255
)

// Post errors
var (
	ErrPostNotFound  = errors.New("post not found")
	ErrInvalidPostID = errors.New("invalid post id")
)
