package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"auth-service/internal/model"
	"auth-service/internal/token"
)

func newTokenService(t *testing.T, sessions SessionStore, now time.Time) *TokenService {
	t.Helper()
	keys := token.NewStaticKeySource(signingKey(t))
	svc := NewTokenService(token.NewIssuer(keys, testRefreshSecret, ""), sessions, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateSession_ExpiresInOneYear(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := newMemSessions()
	svc := newTokenService(t, sessions, now)

	session, err := svc.CreateSession(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), session.UserID)
	assert.Equal(t, now.Add(365*24*time.Hour), session.ExpiresAt)
}

func TestValidateSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := newMemSessions()
	svc := newTokenService(t, sessions, now)

	live, err := sessions.Create(context.Background(), 1, now.Add(time.Hour))
	require.NoError(t, err)
	expired, err := sessions.Create(context.Background(), 1, now)
	require.NoError(t, err)

	tests := []struct {
		name    string
		p       model.Principal
		wantErr bool
	}{
		{"live session", model.Principal{SubjectID: 1, SessionID: live.ID}, false},
		{"no session id", model.Principal{SubjectID: 1}, true},
		{"unknown session", model.Principal{SubjectID: 1, SessionID: 999}, true},
		{"other user's session", model.Principal{SubjectID: 2, SessionID: live.ID}, true},
		{"expired session", model.Principal{SubjectID: 1, SessionID: expired.ID}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateSession(context.Background(), tt.p)
			if tt.wantErr {
				require.ErrorIs(t, err, model.ErrAuthentication)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateSession_StorageErrorPassesThrough(t *testing.T) {
	sessions := new(mockSessionStore)
	sessions.On("FindByID", mock.Anything, int64(5)).Return(model.Session{}, model.ErrStorage)
	svc := newTokenService(t, sessions, time.Now())

	err := svc.ValidateSession(context.Background(), model.Principal{SubjectID: 1, SessionID: 5})
	require.ErrorIs(t, err, model.ErrStorage)
	assert.NotErrorIs(t, err, model.ErrAuthentication)
}

func TestIssue_SessionFailureIssuesNoTokens(t *testing.T) {
	sessions := new(mockSessionStore)
	sessions.On("Create", mock.Anything, int64(3), mock.AnythingOfType("time.Time")).
		Return(model.Session{}, model.ErrStorage)
	svc := newTokenService(t, sessions, time.Now())

	issued, err := svc.Issue(context.Background(), model.User{ID: 3, Role: model.RoleCustomer})

	require.ErrorIs(t, err, model.ErrStorage)
	assert.Empty(t, issued.AccessToken)
	assert.Empty(t, issued.RefreshToken)
}

func TestIssue_SigningFailureDiscardsSession(t *testing.T) {
	sessions := new(mockSessionStore)
	sessions.On("Create", mock.Anything, int64(3), mock.AnythingOfType("time.Time")).
		Return(model.Session{ID: 5, UserID: 3}, nil)
	sessions.On("Delete", mock.Anything, int64(5)).Return(true, nil).Once()

	keys := token.NewStaticKeySource(signingKey(t))
	svc := NewTokenService(token.NewIssuer(keys, "", ""), sessions, nil)

	issued, err := svc.Issue(context.Background(), model.User{ID: 3, Role: model.RoleCustomer})

	require.ErrorIs(t, err, model.ErrConfig)
	assert.Empty(t, issued.RefreshToken)
	sessions.AssertExpectations(t)
}

func TestSweepExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := newMemSessions()
	svc := newTokenService(t, sessions, now)

	_, err := sessions.Create(context.Background(), 1, now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = sessions.Create(context.Background(), 1, now)
	require.NoError(t, err)
	keep, err := sessions.Create(context.Background(), 1, now.Add(time.Minute))
	require.NoError(t, err)

	n, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, sessions.count())
	assert.True(t, sessions.has(keep.ID))
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	sessions := newMemSessions()
	svc := NewTokenService(nil, sessions, nil)

	_, err := sessions.Create(context.Background(), 1, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return sessions.count() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunSweeper_DisabledInterval(t *testing.T) {
	svc := NewTokenService(nil, newMemSessions(), nil)

	done := make(chan struct{})
	go func() {
		svc.RunSweeper(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper with zero interval should return immediately")
	}
}
