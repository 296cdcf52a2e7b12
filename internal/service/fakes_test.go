package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"auth-service/internal/event"
	"auth-service/internal/model"
	"auth-service/internal/token"
)

const testRefreshSecret = "service-test-secret"

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[int64]model.User{}} }

func (m *memUsers) FindByID(_ context.Context, id int64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.User{}, model.ErrDuplicateEmail
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.rows[u.ID] = u
	return u, nil
}

func (m *memUsers) Update(_ context.Context, id int64, upd model.UserUpdate) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	m.rows[id] = u
	return u, nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memUsers) List(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.rows))
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.rows[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memSessions struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.Session
}

func newMemSessions() *memSessions { return &memSessions{rows: map[int64]model.Session{}} }

func (m *memSessions) Create(_ context.Context, userID int64, expiresAt time.Time) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s := model.Session{ID: m.nextID, UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	m.rows[s.ID] = s
	return s, nil
}

func (m *memSessions) FindByID(_ context.Context, id int64) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return model.Session{}, model.ErrSessionNotFound
	}
	return s, nil
}

func (m *memSessions) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func (m *memSessions) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.rows {
		if s.UserID == userID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.rows {
		if !now.Before(s.ExpiresAt) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memSessions) has(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	return ok
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Create(ctx context.Context, userID int64, expiresAt time.Time) (model.Session, error) {
	args := m.Called(ctx, userID, expiresAt)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *mockSessionStore) FindByID(ctx context.Context, id int64) (model.Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *mockSessionStore) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionStore) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func signingKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return testKey
}

type authFixture struct {
	users    *memUsers
	sessions *memSessions
	creds    *CredentialService
	tokens   *TokenService
	auth     *AuthService
	verifier *token.Verifier
	bus      *event.InMemoryBus
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	keys := token.NewStaticKeySource(signingKey(t))
	f := &authFixture{
		users:    newMemUsers(),
		sessions: newMemSessions(),
		creds:    NewCredentialService(bcrypt.MinCost),
		verifier: token.NewVerifier(token.NewStaticKeyResolver(keys), testRefreshSecret, ""),
		bus:      event.NewBus(),
	}
	f.tokens = NewTokenService(token.NewIssuer(keys, testRefreshSecret, ""), f.sessions, nil)
	f.auth = NewAuthService(f.users, f.tokens, f.creds, f.bus, nil)
	return f
}

func (f *authFixture) register(t *testing.T, email string) model.IssuedSession {
	t.Helper()
	issued, err := f.auth.Register(context.Background(), model.RegisterRequest{
		FirstName: "John",
		LastName:  "Smith",
		Email:     email,
		Password:  "test@123",
	})
	require.NoError(t, err)
	return issued
}

// principals verifies both tokens of an issued pair.
func (f *authFixture) principals(t *testing.T, issued model.IssuedSession) (model.Principal, model.Principal) {
	t.Helper()
	access, err := f.verifier.VerifyAccessToken(context.Background(), issued.AccessToken)
	require.NoError(t, err)
	refresh, err := f.verifier.VerifyRefreshToken(context.Background(), issued.RefreshToken)
	require.NoError(t, err)
	return access, refresh
}
