package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auth-service/internal/metrics"
	"auth-service/internal/model"
)

// TokenService binds token issuance to persisted sessions.
type TokenService struct {
	issuer   tokenIssuer
	sessions SessionStore
	now      func() time.Time
	metrics  *metrics.Metrics
}

func NewTokenService(issuer tokenIssuer, sessions SessionStore, m *metrics.Metrics) *TokenService {
	return &TokenService{issuer: issuer, sessions: sessions, now: time.Now, metrics: m}
}

// CreateSession persists a session for userID expiring one year from now.
func (s *TokenService) CreateSession(ctx context.Context, userID int64) (model.Session, error) {
	return s.sessions.Create(ctx, userID, s.now().Add(model.SessionTTL))
}

// DeleteSession removes a session; unknown ids are not an error. The bool
// reports whether a row was actually removed.
func (s *TokenService) DeleteSession(ctx context.Context, sessionID int64) (bool, error) {
	return s.sessions.Delete(ctx, sessionID)
}

// ValidateSession confirms the refresh principal still has a live session
// that belongs to it.
func (s *TokenService) ValidateSession(ctx context.Context, p model.Principal) error {
	if !p.HasSession() {
		return model.ErrAuthentication
	}

	session, err := s.sessions.FindByID(ctx, p.SessionID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrAuthentication
	}
	if err != nil {
		return err
	}

	if session.UserID != p.SubjectID || !s.now().Before(session.ExpiresAt) {
		return model.ErrAuthentication
	}
	return nil
}

// Issue creates a session for user and signs an access/refresh pair bound
// to it.
func (s *TokenService) Issue(ctx context.Context, user model.User) (model.IssuedSession, error) {
	session, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return model.IssuedSession{}, err
	}

	p := model.Principal{SubjectID: user.ID, Role: user.Role}

	access, err := s.issuer.IssueAccessToken(p)
	if err != nil {
		s.discardSession(ctx, session.ID)
		return model.IssuedSession{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.issuer.IssueRefreshToken(p, session.ID)
	if err != nil {
		s.discardSession(ctx, session.ID)
		return model.IssuedSession{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return model.IssuedSession{
		User:         user.Public(),
		SessionID:    session.ID,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// discardSession removes a session whose tokens could not be signed.
func (s *TokenService) discardSession(ctx context.Context, id int64) {
	if _, err := s.sessions.Delete(ctx, id); err != nil {
		slog.Warn("failed to discard unsigned session", "session_id", id, "error", err)
	}
}

// SweepExpired deletes sessions past their expiry.
func (s *TokenService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.SessionsSwept(n)
	return n, nil
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *TokenService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				slog.Error("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}
