package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkpost/internal/model"
)

func strPtr(s string) *string { return &s }

func TestPostService_Create(t *testing.T) {
	posts, mirror := newMemPostRepo(), newMemMirror()
	svc := NewPostService(posts, mirror)

	resp, err := svc.Create(context.Background(), 7, model.CreatePostRequest{Title: " A ", Content: "B"})
	require.NoError(t, err)
	assert.Empty(t, resp.MirrorError)
	assert.Equal(t, "A", resp.Post.Title)
	assert.Equal(t, int64(7), resp.Post.UserID)
	require.NotEmpty(t, resp.MirrorKey)

	rec, ok := mirror.record(resp.MirrorKey)
	require.True(t, ok)
	assert.Equal(t, "A", rec["title"])
	assert.Equal(t, "B", rec["content"])

	stored, err := posts.GetByID(context.Background(), resp.Post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.MirrorKey)
	assert.Equal(t, resp.MirrorKey, *stored.MirrorKey, "the row remembers its mirror key")
}

func TestPostService_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   model.CreatePostRequest
		field string
	}{
		{"missing title", model.CreatePostRequest{Content: "B"}, "title"},
		{"blank content", model.CreatePostRequest{Title: "A", Content: "   "}, "content"},
		{"long title", model.CreatePostRequest{Title: strings.Repeat("t", 256), Content: "B"}, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, mirror := newMemPostRepo(), newMemMirror()
			_, err := NewPostService(posts, mirror).Create(context.Background(), 1, tt.req)

			var vErr *model.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Empty(t, posts.posts)
			assert.Zero(t, mirror.pushCalls)
		})
	}
}

func TestPostService_Create_RelationalFailureSkipsMirror(t *testing.T) {
	posts, mirror := newMemPostRepo(), newMemMirror()
	posts.createErr = errors.New("disk full")

	_, err := NewPostService(posts, mirror).Create(context.Background(), 1, model.CreatePostRequest{Title: "A", Content: "B"})

	var pErr *model.PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Zero(t, mirror.pushCalls, "nothing is pushed when the row was not written")
}

func TestPostService_Create_MirrorFailureStillSucceeds(t *testing.T) {
	posts, mirror := newMemPostRepo(), newMemMirror()
	mirror.pushErr = errors.New("mirror unavailable")

	resp, err := NewPostService(posts, mirror).Create(context.Background(), 1, model.CreatePostRequest{Title: "A", Content: "B"})
	require.NoError(t, err)
	assert.Contains(t, resp.MirrorError, "mirror unavailable")
	assert.Empty(t, resp.MirrorKey)
	assert.Len(t, posts.posts, 1, "the relational row is kept")
}

func TestPostService_Show(t *testing.T) {
	posts, mirror := newMemPostRepo(), newMemMirror()
	svc := NewPostService(posts, mirror)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, model.CreatePostRequest{Title: "A", Content: "B"})
	require.NoError(t, err)

	byID, err := svc.Show(ctx, model.NumericPostID(created.Post.ID))
	require.NoError(t, err)
	assert.Equal(t, "A", byID.Post.Title)
	assert.Equal(t, "B", byID.Post.Content)

	byKey, err := svc.Show(ctx, model.KeyPostID(created.MirrorKey))
	require.NoError(t, err)
	assert.Equal(t, created.MirrorKey, byKey.Key)
	assert.Equal(t, "A", byKey.Record["title"])

	_, err = svc.Show(ctx, model.KeyPostID("-Nmissing"))
	assert.ErrorIs(t, err, model.ErrPostNotFound)

	_, err = svc.Show(ctx, model.NumericPostID(404))
	assert.ErrorIs(t, err, model.ErrPostNotFound)
}

func TestPostService_Update(t *testing.T) {
	posts, mirror := newMemPostRepo(), newMemMirror()
	svc := NewPostService(posts, mirror)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, model.CreatePostRequest{Title: "A", Content: "B"})
	require.NoError(t, err)

	t.Run("numeric id updates row and mirror", func(t *testing.T) {
		view, err := svc.Update(ctx, model.NumericPostID(created.Post.ID), model.UpdatePostRequest{Title: strPtr("A2")})
		require.NoError(t, err)
		assert.Equal(t, "A2", view.Post.Title)
		assert.Equal(t, "B", view.Post.Content)
		assert.Empty(t, view.MirrorError)

		rec, _ := mirror.record(created.MirrorKey)
		assert.Equal(t, "A2", rec["title"])
	})

	t.Run("key updates mirror only", func(t *testing.T) {
		view, err := svc.Update(ctx, model.KeyPostID(created.MirrorKey), model.UpdatePostRequest{Content: strPtr("B3")})
		require.NoError(t, err)
		assert.Equal(t, "B3", view.Record["content"])

		row, err := posts.GetByID(ctx, created.Post.ID)
		require.NoError(t, err)
		assert.Equal(t, "B", row.Content, "relational row is untouched")
	})

	t.Run("missing key is not created", func(t *testing.T) {
		_, err := svc.Update(ctx, model.KeyPostID("-Nmissing"), model.UpdatePostRequest{Title: strPtr("X")})
		assert.ErrorIs(t, err, model.ErrPostNotFound)
		_, exists := mirror.record("-Nmissing")
		assert.False(t, exists)
	})

	t.Run("empty update", func(t *testing.T) {
		_, err := svc.Update(ctx, model.NumericPostID(created.Post.ID), model.UpdatePostRequest{})
		assert.True(t, model.IsValidation(err))
	})

	t.Run("mirror failure is reported", func(t *testing.T) {
		mirror.updateErr = errors.New("mirror unavailable")
		defer func() { mirror.updateErr = nil }()

		view, err := svc.Update(ctx, model.NumericPostID(created.Post.ID), model.UpdatePostRequest{Title: strPtr("A4")})
		require.NoError(t, err)
		assert.Equal(t, "A4", view.Post.Title)
		assert.Contains(t, view.MirrorError, "mirror unavailable")
	})
}

func TestPostService_Delete(t *testing.T) {
	posts, mirror := newMemPostRepo(), newMemMirror()
	svc := NewPostService(posts, mirror)
	ctx := context.Background()

	t.Run("key returns prior value", func(t *testing.T) {
		created, err := svc.Create(ctx, 1, model.CreatePostRequest{Title: "A", Content: "B"})
		require.NoError(t, err)

		view, err := svc.Delete(ctx, model.KeyPostID(created.MirrorKey))
		require.NoError(t, err)
		assert.Equal(t, "A", view.Record["title"])

		_, err = svc.Show(ctx, model.KeyPostID(created.MirrorKey))
		assert.ErrorIs(t, err, model.ErrPostNotFound)

		_, err = svc.Delete(ctx, model.KeyPostID(created.MirrorKey))
		assert.ErrorIs(t, err, model.ErrPostNotFound)
	})

	t.Run("numeric id removes row and mirrored copy", func(t *testing.T) {
		created, err := svc.Create(ctx, 1, model.CreatePostRequest{Title: "C", Content: "D"})
		require.NoError(t, err)

		view, err := svc.Delete(ctx, model.NumericPostID(created.Post.ID))
		require.NoError(t, err)
		assert.Equal(t, "C", view.Post.Title)

		_, err = posts.GetByID(ctx, created.Post.ID)
		assert.ErrorIs(t, err, model.ErrPostNotFound)
		_, exists := mirror.record(created.MirrorKey)
		assert.False(t, exists)
	})
}

func TestPostService_List(t *testing.T) {
	posts, mirror := newMemPostRepo(), newMemMirror()
	svc := NewPostService(posts, mirror)
	ctx := context.Background()

	empty, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Posts)
	assert.Nil(t, empty.Mirror)

	_, err = svc.Create(ctx, 1, model.CreatePostRequest{Title: "A", Content: "B"})
	require.NoError(t, err)

	mirror.getErr = errors.New("mirror unavailable")
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Posts, 1)
	assert.Contains(t, list.MirrorError, "mirror unavailable")
}
