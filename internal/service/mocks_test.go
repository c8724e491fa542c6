package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"inkpost/internal/model"
)

// =============================================================================
// IN-MEMORY REPOSITORIES
// =============================================================================
//
// The services depend on repository interfaces, so tests swap in small
// in-memory stores. Each store has optional error hooks for failure paths.

type memUserRepo struct {
	mu     sync.Mutex
	users  map[int64]model.User
	nextID int64

	createErr error
	existsErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int64]model.User{}}
}

func (m *memUserRepo) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.ErrEmailExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *memUserRepo) GetByExternalUID(_ context.Context, uid string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ExternalUID != nil && *u.ExternalUID == uid {
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *memUserRepo) UpdateName(_ context.Context, id int64, name string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u.Name = name
	m.users[id] = u
	return &u, nil
}

func (m *memUserRepo) UpdateAvatar(_ context.Context, id int64, url, key *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.AvatarURL, u.AvatarKey = url, key
	m.users[id] = u
	return nil
}

func (m *memUserRepo) LinkExternalUID(_ context.Context, id int64, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.ExternalUID = &uid
	m.users[id] = u
	return nil
}

type memTokenRepo struct {
	mu      sync.Mutex
	tokens  map[int64]model.PersonalAccessToken
	nextID  int64
	touched map[int64]time.Time
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: map[int64]model.PersonalAccessToken{}, touched: map[int64]time.Time{}}
}

func (m *memTokenRepo) Create(_ context.Context, t *model.PersonalAccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now()
	m.tokens[t.ID] = *t
	return nil
}

func (m *memTokenRepo) GetByID(_ context.Context, id int64) (*model.PersonalAccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, model.ErrAccessTokenNotFound
	}
	return &t, nil
}

func (m *memTokenRepo) Touch(_ context.Context, id int64, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[id] = usedAt
	return nil
}

func (m *memTokenRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[id]; !ok {
		return model.ErrAccessTokenNotFound
	}
	delete(m.tokens, id)
	return nil
}

type memPostRepo struct {
	mu     sync.Mutex
	posts  map[int64]model.Post
	nextID int64

	createErr error
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: map[int64]model.Post{}}
}

func (m *memPostRepo) List(_ context.Context) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Post{}
	for _, p := range m.posts {
		out = append(out, p)
	}
	return out, nil
}

func (m *memPostRepo) Create(_ context.Context, userID int64, title, content string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	now := time.Now()
	p := model.Post{ID: m.nextID, Title: title, Content: content, UserID: userID, CreatedAt: now, UpdatedAt: now}
	m.posts[p.ID] = p
	return &p, nil
}

func (m *memPostRepo) GetByID(_ context.Context, id int64) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	return &p, nil
}

func (m *memPostRepo) Update(_ context.Context, id int64, req model.UpdatePostRequest) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	p.UpdatedAt = time.Now()
	m.posts[id] = p
	return &p, nil
}

func (m *memPostRepo) SetMirrorKey(_ context.Context, id int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return model.ErrPostNotFound
	}
	p.MirrorKey = &key
	m.posts[id] = p
	return nil
}

func (m *memPostRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return model.ErrPostNotFound
	}
	delete(m.posts, id)
	return nil
}

// memMirror stands in for the remote post mirror.
type memMirror struct {
	mu      sync.Mutex
	records map[string]model.MirrorRecord
	nextKey int

	pushErr   error
	getErr    error
	updateErr error
	pushCalls int
}

func newMemMirror() *memMirror {
	return &memMirror{records: map[string]model.MirrorRecord{}}
}

func (m *memMirror) All(_ context.Context) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if len(m.records) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{}, len(m.records))
	for k, v := range m.records {
		out[k] = map[string]interface{}(v)
	}
	return out, nil
}

func (m *memMirror) Push(_ context.Context, record model.MirrorRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushCalls++
	if m.pushErr != nil {
		return "", m.pushErr
	}
	m.nextKey++
	key := "-Nkey" + string(rune('a'+m.nextKey-1))
	m.records[key] = record
	return key, nil
}

func (m *memMirror) Get(_ context.Context, key string) (model.MirrorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (m *memMirror) Update(_ context.Context, key string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	rec, ok := m.records[key]
	if !ok {
		rec = model.MirrorRecord{}
	}
	for k, v := range fields {
		rec[k] = v
	}
	m.records[key] = rec
	return nil
}

func (m *memMirror) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *memMirror) record(key string) (model.MirrorRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	return rec, ok
}

// =============================================================================
// GATEWAY FAKES
// =============================================================================

type mockMessenger struct {
	sendFn func(ctx context.Context, msg model.NotificationMessage) (string, error)
	sent   []model.NotificationMessage
}

func (m *mockMessenger) Send(ctx context.Context, msg model.NotificationMessage) (string, error) {
	m.sent = append(m.sent, msg)
	if m.sendFn != nil {
		return m.sendFn(ctx, msg)
	}
	return "projects/inkpost/messages/1", nil
}

type mockIdentity struct {
	signInFn  func(ctx context.Context, email, password string) (*model.IdentitySession, error)
	createFn  func(ctx context.Context, email, password, displayName string) (*model.ExternalIdentity, error)
	verifyFn  func(ctx context.Context, idToken string) (*model.ExternalIdentity, error)
	lookupFn  func(ctx context.Context, uid string) (*model.ExternalIdentity, error)
	revokeFn  func(ctx context.Context, uid string) error
	revokedID []string
}

func (m *mockIdentity) SignInWithPassword(ctx context.Context, email, password string) (*model.IdentitySession, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return nil, model.ErrInvalidCredentials
}

func (m *mockIdentity) CreateAccount(ctx context.Context, email, password, displayName string) (*model.ExternalIdentity, error) {
	if m.createFn != nil {
		return m.createFn(ctx, email, password, displayName)
	}
	return &model.ExternalIdentity{UID: "uid-" + email, Email: email, DisplayName: displayName}, nil
}

func (m *mockIdentity) VerifyIDToken(ctx context.Context, idToken string) (*model.ExternalIdentity, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, idToken)
	}
	return nil, model.ErrIdentityTokenInvalid
}

func (m *mockIdentity) LookupUser(ctx context.Context, uid string) (*model.ExternalIdentity, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, uid)
	}
	return &model.ExternalIdentity{UID: uid}, nil
}

func (m *mockIdentity) RevokeSessions(ctx context.Context, uid string) error {
	m.revokedID = append(m.revokedID, uid)
	if m.revokeFn != nil {
		return m.revokeFn(ctx, uid)
	}
	return nil
}

// registerUser creates a password account through the service under test.
func registerUser(ctx context.Context, accounts *UserService, email, password string) (*model.User, error) {
	return accounts.Register(ctx, &model.RegisterRequest{
		Name:                 "Ada Lovelace",
		Email:                email,
		Password:             password,
		PasswordConfirmation: password,
	})
}
