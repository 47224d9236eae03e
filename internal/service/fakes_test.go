package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Postline/internal/liteapi"
	"Postline/internal/models"
	"Postline/internal/storage"
)

// memStore is an in-memory stand-in for the Postgres store.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*models.User
	profiles map[int64]*models.UserProfile
	posts    map[int64]*models.Post
	emails   []models.EmailJob
	hotels   map[string]*models.Hotel
	tasks    map[int64]*models.TaskMessages
	failPost error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]*models.User{},
		profiles: map[int64]*models.UserProfile{},
		posts:    map[int64]*models.Post{},
		hotels:   map[string]*models.Hotel{},
		tasks:    map[int64]*models.TaskMessages{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return models.ErrDuplicate
		}
	}
	u.ID = m.id()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) CreateProfile(_ context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UserID]; ok {
		return models.ErrDuplicate
	}
	p.ID = m.id()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memStore) GetProfile(_ context.Context, userID int64) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdateProfile(_ context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UserID]; !ok {
		return models.ErrNotFound
	}
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memStore) DeleteProfile(_ context.Context, userID int64) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	delete(m.profiles, userID)
	return p, nil
}

func (m *memStore) CreatePost(_ context.Context, p *models.Post, notify *models.EmailJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPost != nil {
		return m.failPost
	}
	p.ID = m.id()
	cp := *p
	m.posts[p.ID] = &cp
	if notify != nil {
		postID := p.ID
		notify.ID = m.id()
		notify.PostID = &postID
		notify.Status = models.StatusPending
		m.emails = append(m.emails, *notify)
	}
	return nil
}

func (m *memStore) GetPost(_ context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListPosts(_ context.Context) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	posts := []models.Post{}
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.posts[id]; ok {
			posts = append(posts, *p)
		}
	}
	return posts, nil
}

func (m *memStore) UpdatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[p.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m *memStore) DeletePost(_ context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	delete(m.posts, id)
	return p, nil
}

func (m *memStore) UpsertHotel(_ context.Context, h *models.Hotel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *h
	m.hotels[h.ID] = &cp
	return nil
}

func (m *memStore) UpsertTaskMessages(_ context.Context, tm *models.TaskMessages) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.tasks[tm.TaskID]; ok {
		existing.MessagesBlob = tm.MessagesBlob
		tm.ID = existing.ID
		return nil
	}
	tm.ID = m.id()
	cp := *tm
	m.tasks[tm.TaskID] = &cp
	return nil
}

type fakeHotelProvider struct {
	hotel *liteapi.Hotel
	err   error
}

func (f fakeHotelProvider) FetchHotel(context.Context, string) (*liteapi.Hotel, error) {
	return f.hotel, f.err
}

type fakeMessageProvider struct {
	messages []json.RawMessage
	err      error
}

func (f fakeMessageProvider) FetchMessages(context.Context, int64) ([]json.RawMessage, error) {
	return f.messages, f.err
}

func newFiles(t *testing.T) *storage.Local {
	t.Helper()
	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return files
}

func seedUser(t *testing.T, store *memStore, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func requireKind(t *testing.T, err error, kind Kind, msg string) {
	t.Helper()
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, kind, svcErr.Kind)
	require.Equal(t, msg, svcErr.Message)
}

var nopLog = zap.NewNop()

func strPtr(s string) *string {
	return &s
}
