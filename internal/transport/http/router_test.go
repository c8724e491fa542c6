package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkpost/internal/firebase"
	"inkpost/internal/handler"
	"inkpost/internal/model"
	"inkpost/internal/service"
)

// stubIssuer accepts exactly one token.
type stubIssuer struct{ name string }

func (s stubIssuer) Name() string { return s.name }

func (s stubIssuer) Issue(context.Context, model.Credentials) (*model.IssuedToken, error) {
	return nil, model.NewAuthError(model.KindUnauthorized, "invalid email or password", nil)
}

func (s stubIssuer) Validate(_ context.Context, raw string) (*model.User, error) {
	if raw == "valid-"+s.name {
		return &model.User{ID: 1, Name: "Ada"}, nil
	}
	return nil, model.NewAuthError(model.KindTokenInvalid, "token is invalid", nil)
}

func (s stubIssuer) Revoke(context.Context, string) error { return nil }

type nopRegistrar struct{}

func (nopRegistrar) Register(context.Context, *model.RegisterRequest) (*model.User, error) {
	return nil, model.NewValidationError("email", "the email field is required")
}

// emptyPosts is a relational store with no rows that rejects writes.
type emptyPosts struct{}

func (emptyPosts) List(context.Context) ([]model.Post, error) { return []model.Post{}, nil }

func (emptyPosts) Create(context.Context, int64, string, string) (*model.Post, error) {
	return nil, errors.New("read-only")
}

func (emptyPosts) GetByID(context.Context, int64) (*model.Post, error) {
	return nil, model.ErrPostNotFound
}

func (emptyPosts) Update(context.Context, int64, model.UpdatePostRequest) (*model.Post, error) {
	return nil, model.ErrPostNotFound
}

func (emptyPosts) SetMirrorKey(context.Context, int64, string) error { return nil }

func (emptyPosts) Delete(context.Context, int64) error { return model.ErrPostNotFound }

func newTestRouter() http.Handler {
	jwt, sanctum := stubIssuer{name: "jwt"}, stubIssuer{name: "sanctum"}
	return NewRouter(RouterConfig{
		Guards: []Guard{
			{Issuer: jwt, Handler: handler.NewAuthHandler(jwt, nopRegistrar{}, nil)},
			{Issuer: sanctum, Handler: handler.NewAuthHandler(sanctum, nopRegistrar{}, nil)},
		},
		PostsIssuer:         sanctum,
		PostHandler:         handler.NewPostHandler(service.NewPostService(emptyPosts{}, firebase.DisabledMirror{})),
		MediaHandler:        handler.NewMediaHandler(nil),
		NotificationHandler: handler.NewNotificationHandler(service.NewNotificationService(firebase.DisabledMessenger{})),
	})
}

func do(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRouter_Health(t *testing.T) {
	rec, env := do(t, newTestRouter(), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env["status"])
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter()
	do(t, r, http.MethodGet, "/health", "", "")

	rec, _ := do(t, r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inkpost_http_requests_total")
}

func TestRouter_PostsUseConfiguredGuard(t *testing.T) {
	r := newTestRouter()

	rec, env := do(t, r, http.MethodPost, "/posts", "", `{"title":"A","content":"B"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "TokenMissing"}, env["data"])

	// A valid token from another guard is not accepted for posts.
	rec, env = do(t, r, http.MethodPost, "/posts", "valid-jwt", `{"title":"A","content":"B"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "TokenInvalid"}, env["data"])

	rec, _ = do(t, r, http.MethodPost, "/posts", "valid-sanctum", `{"title":"A","content":"B"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "authenticated, then the read-only store fails")

	rec, _ = do(t, r, http.MethodGet, "/posts/7", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "reads are public")
}

func TestRouter_GuardRoutes(t *testing.T) {
	r := newTestRouter()

	rec, _ := do(t, r, http.MethodGet, "/auth/jwt/me", "valid-jwt", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, r, http.MethodGet, "/auth/sanctum/me", "valid-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/auth/jwt/login", "", `{"email":"a@b.c","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/auth/sanctum/refresh", "valid-sanctum", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "refresh is only mounted for refreshing guards")

	rec, env := do(t, r, http.MethodPost, "/auth/jwt/me/avatar", "valid-jwt", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "avatar storage not configured", env["message"])
}

func TestRouter_NotificationWithoutGateway(t *testing.T) {
	rec, env := do(t, newTestRouter(), http.MethodPost, "/notification/send-topic-notification", "",
		`{"topic":"news","title":"Hi","body":"There"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "DispatchError"}, env["data"])
}
