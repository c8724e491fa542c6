package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"inkpost/internal/model"
	"inkpost/internal/repository"
)

// PostService writes posts to the relational store and mirrors them to the
// remote store. The relational store decides whether a write succeeded;
// mirror failures are reported next to the result, never rolled back.
type PostService struct {
	posts  repository.PostRepository
	mirror repository.PostMirror
}

func NewPostService(posts repository.PostRepository, mirror repository.PostMirror) *PostService {
	return &PostService{posts: posts, mirror: mirror}
}

// List returns the relational posts plus the mirror's raw value.
func (s *PostService) List(ctx context.Context) (*model.PostListResponse, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, &model.PersistenceError{Op: "list posts", Err: err}
	}

	resp := &model.PostListResponse{Posts: posts}
	mirrored, err := s.mirror.All(ctx)
	if err != nil {
		slog.WarnContext(ctx, "mirror read failed", "component", "posts", "error", err)
		resp.MirrorError = err.Error()
		return resp, nil
	}
	resp.Mirror = mirrored
	return resp, nil
}

func (s *PostService) Create(ctx context.Context, ownerID int64, req model.CreatePostRequest) (*model.CreatePostResponse, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if err := validatePostFields(&title, &content, true); err != nil {
		return nil, err
	}

	post, err := s.posts.Create(ctx, ownerID, title, content)
	if err != nil {
		return nil, &model.PersistenceError{Op: "create post", Err: err}
	}

	resp := &model.CreatePostResponse{Post: post}

	key, err := s.mirror.Push(ctx, model.NewMirrorRecord(post))
	if err != nil {
		slog.WarnContext(ctx, "mirror push failed", "component", "posts", "post_id", post.ID, "error", err)
		resp.MirrorError = err.Error()
		return resp, nil
	}
	resp.MirrorKey = key

	if err := s.posts.SetMirrorKey(ctx, post.ID, key); err != nil {
		slog.WarnContext(ctx, "failed to record mirror key", "component", "posts", "post_id", post.ID, "key", key, "error", err)
	} else {
		post.MirrorKey = &key
	}

	slog.InfoContext(ctx, "post created", "component", "posts", "post_id", post.ID, "key", key)
	return resp, nil
}

// Show resolves the identifier against exactly one store.
func (s *PostService) Show(ctx context.Context, id model.PostID) (*model.PostView, error) {
	if n, ok := id.Numeric(); ok {
		post, err := s.getRow(ctx, n)
		if err != nil {
			return nil, err
		}
		return &model.PostView{Post: post}, nil
	}

	key, _ := id.Key()
	rec, err := s.getRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	return &model.PostView{Key: key, Record: rec}, nil
}

// Update applies a partial update. Mirror keys touch the mirror only;
// numeric ids update the row, then the mirrored copy when one is linked.
func (s *PostService) Update(ctx context.Context, id model.PostID, req model.UpdatePostRequest) (*model.PostView, error) {
	if req.Title == nil && req.Content == nil {
		return nil, model.NewValidationError("", "at least one of title or content is required")
	}
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		req.Title = &t
	}
	if req.Content != nil {
		c := strings.TrimSpace(*req.Content)
		req.Content = &c
	}
	if err := validatePostFields(req.Title, req.Content, false); err != nil {
		return nil, err
	}
	fields := req.Fields()

	if n, ok := id.Numeric(); ok {
		post, err := s.posts.Update(ctx, n, req)
		if err != nil {
			if errors.Is(err, model.ErrPostNotFound) {
				return nil, err
			}
			return nil, &model.PersistenceError{Op: "update post", Err: err}
		}

		view := &model.PostView{Post: post}
		if post.MirrorKey != nil {
			view.Key = *post.MirrorKey
			if err := s.mirror.Update(ctx, *post.MirrorKey, fields); err != nil {
				slog.WarnContext(ctx, "mirror update failed", "component", "posts", "post_id", post.ID, "error", err)
				view.MirrorError = err.Error()
			}
		}
		return view, nil
	}

	key, _ := id.Key()
	// The mirror creates missing keys on update, so existence is checked first.
	if _, err := s.getRecord(ctx, key); err != nil {
		return nil, err
	}
	if err := s.mirror.Update(ctx, key, fields); err != nil {
		return nil, fmt.Errorf("mirror update: %w", err)
	}
	return &model.PostView{Key: key, Record: model.MirrorRecord(fields)}, nil
}

// Delete removes the post and returns the value it had just before.
func (s *PostService) Delete(ctx context.Context, id model.PostID) (*model.PostView, error) {
	if n, ok := id.Numeric(); ok {
		post, err := s.getRow(ctx, n)
		if err != nil {
			return nil, err
		}
		if err := s.posts.Delete(ctx, n); err != nil {
			if errors.Is(err, model.ErrPostNotFound) {
				return nil, err
			}
			return nil, &model.PersistenceError{Op: "delete post", Err: err}
		}

		view := &model.PostView{Post: post}
		if post.MirrorKey != nil {
			view.Key = *post.MirrorKey
			if err := s.mirror.Delete(ctx, *post.MirrorKey); err != nil {
				slog.WarnContext(ctx, "mirror delete failed", "component", "posts", "post_id", post.ID, "error", err)
				view.MirrorError = err.Error()
			}
		}
		slog.InfoContext(ctx, "post deleted", "component", "posts", "post_id", post.ID)
		return view, nil
	}

	key, _ := id.Key()
	rec, err := s.getRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.mirror.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("mirror delete: %w", err)
	}
	slog.InfoContext(ctx, "mirrored post deleted", "component", "posts", "key", key)
	return &model.PostView{Key: key, Record: rec}, nil
}

func (s *PostService) getRow(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			return nil, err
		}
		return nil, &model.PersistenceError{Op: "get post", Err: err}
	}
	return post, nil
}

func (s *PostService) getRecord(ctx context.Context, key string) (model.MirrorRecord, error) {
	rec, err := s.mirror.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("mirror get: %w", err)
	}
	if rec == nil {
		return nil, model.ErrPostNotFound
	}
	return rec, nil
}

// validatePostFields checks already trimmed values. With required set both
// must be present; otherwise only present fields are checked.
func validatePostFields(title, content *string, required bool) error {
	if title != nil || required {
		if title == nil || *title == "" {
			return model.NewValidationError("title", "the title field is required")
		}
		if utf8.RuneCountInString(*title) > model.MaxPostTitleLength {
			return model.NewValidationError("title", fmt.Sprintf("the title may not be greater than %d characters", model.MaxPostTitleLength))
		}
	}
	if content != nil || required {
		if content == nil || *content == "" {
			return model.NewValidationError("content", "the content field is required")
		}
	}
	return nil
}
