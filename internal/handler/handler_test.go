package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"inkpost/internal/model"
	"inkpost/internal/transport/http/middleware"
)

// envelope mirrors httputil.Envelope with a raw data member.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withUser simulates a request that passed the auth gateway.
func withUser(req *http.Request, user *model.User, raw string) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), user, raw))
}

// withURLParam sets a chi URL parameter without going through a router.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// =============================================================================
// MOCKS
// =============================================================================

type mockIssuer struct {
	name      string
	issueFn   func(ctx context.Context, creds model.Credentials) (*model.IssuedToken, error)
	revokeFn  func(ctx context.Context, raw string) error
	refreshFn func(ctx context.Context, raw string) (*model.IssuedToken, error)
	minted    int
}

func (m *mockIssuer) Name() string { return m.name }

func (m *mockIssuer) Issue(ctx context.Context, creds model.Credentials) (*model.IssuedToken, error) {
	return m.issueFn(ctx, creds)
}

func (m *mockIssuer) Validate(context.Context, string) (*model.User, error) {
	return nil, errors.New("not used")
}

func (m *mockIssuer) Revoke(ctx context.Context, raw string) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, raw)
	}
	return nil
}

func (m *mockIssuer) IssueForUser(_ context.Context, user *model.User) (*model.IssuedToken, error) {
	m.minted++
	return &model.IssuedToken{AccessToken: "1|secret", TokenType: model.TokenTypeBearer, User: user}, nil
}

// refreshingIssuer adds Refresh so the handler sees a service.Refresher.
type refreshingIssuer struct{ *mockIssuer }

func (m refreshingIssuer) Refresh(ctx context.Context, raw string) (*model.IssuedToken, error) {
	return m.refreshFn(ctx, raw)
}

type mockRegistrar struct {
	registerFn func(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
}

func (m *mockRegistrar) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	return m.registerFn(ctx, req)
}

type mockProfiles struct {
	updateFn func(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error)
}

func (m *mockProfiles) UpdateProfile(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error) {
	return m.updateFn(ctx, id, req)
}

func newMockIssuer(name string) *mockIssuer {
	return &mockIssuer{
		name: name,
		issueFn: func(_ context.Context, creds model.Credentials) (*model.IssuedToken, error) {
			if creds.Password != "securepassword123" {
				return nil, model.NewAuthError(model.KindUnauthorized, "invalid email or password", nil)
			}
			return &model.IssuedToken{
				AccessToken: "token-" + name,
				TokenType:   model.TokenTypeBearer,
				ExpiresIn:   3600,
				User:        &model.User{ID: 1, Name: "Ada", Email: creds.Email},
			}, nil
		},
	}
}

func okRegistrar() *mockRegistrar {
	return &mockRegistrar{registerFn: func(_ context.Context, req *model.RegisterRequest) (*model.User, error) {
		if req.Email == "" {
			return nil, model.NewValidationError("email", "the email field is required")
		}
		return &model.User{ID: 1, Name: req.Name, Email: req.Email}, nil
	}}
}

// in-memory stores for PostService

type memPosts struct {
	mu     sync.Mutex
	rows   map[int64]model.Post
	nextID int64
	err    error
}

func newMemPosts() *memPosts { return &memPosts{rows: map[int64]model.Post{}} }

func (m *memPosts) List(context.Context) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Post{}
	for _, p := range m.rows {
		out = append(out, p)
	}
	return out, m.err
}

func (m *memPosts) Create(_ context.Context, userID int64, title, content string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	p := model.Post{ID: m.nextID, Title: title, Content: content, UserID: userID, CreatedAt: time.Now()}
	m.rows[p.ID] = p
	return &p, nil
}

func (m *memPosts) GetByID(_ context.Context, id int64) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	return &p, nil
}

func (m *memPosts) Update(_ context.Context, id int64, req model.UpdatePostRequest) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	m.rows[id] = p
	return &p, nil
}

func (m *memPosts) SetMirrorKey(_ context.Context, id int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.rows[id]
	p.MirrorKey = &key
	m.rows[id] = p
	return nil
}

func (m *memPosts) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return model.ErrPostNotFound
	}
	delete(m.rows, id)
	return nil
}

type memMirror struct {
	mu      sync.Mutex
	records map[string]model.MirrorRecord
	err     error
}

func newMemMirror() *memMirror { return &memMirror{records: map[string]model.MirrorRecord{}} }

func (m *memMirror) All(context.Context) (interface{}, error) { return nil, m.err }

func (m *memMirror) Push(_ context.Context, rec model.MirrorRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	key := "-Nk" + string(rune('a'+len(m.records)))
	m.records[key] = rec
	return key, nil
}

func (m *memMirror) Get(_ context.Context, key string) (model.MirrorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.records[key], nil
}

func (m *memMirror) Update(_ context.Context, key string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[key]
	if rec == nil {
		rec = model.MirrorRecord{}
	}
	for k, v := range fields {
		rec[k] = v
	}
	m.records[key] = rec
	return m.err
}

func (m *memMirror) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return m.err
}
