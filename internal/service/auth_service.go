package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"auth-service/internal/event"
	"auth-service/internal/metrics"
	"auth-service/internal/model"
	"auth-service/pkg/apierror"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past this length.
	maxPasswordBytes = 72
)

// AuthService runs the register, login, refresh and logout flows.
type AuthService struct {
	users   UserStore
	tokens  *TokenService
	creds   *CredentialService
	bus     event.Bus
	metrics *metrics.Metrics
}

func NewAuthService(users UserStore, tokens *TokenService, creds *CredentialService, bus event.Bus, m *metrics.Metrics) *AuthService {
	return &AuthService{users: users, tokens: tokens, creds: creds, bus: bus, metrics: m}
}

// Register creates a CUSTOMER and opens its first session.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.IssuedSession, error) {
	user, err := newUser(req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		return model.IssuedSession{}, err
	}
	user.Role = model.RoleCustomer

	created, err := createUser(ctx, s.users, s.creds, user, req.Password)
	if err != nil {
		return model.IssuedSession{}, err
	}

	issued, err := s.tokens.Issue(ctx, created)
	if err != nil {
		return model.IssuedSession{}, err
	}

	s.publish(event.TypeUserRegistered, created.ID, created.Role, map[string]any{
		"user_id":    created.ID,
		"session_id": issued.SessionID,
	})
	return issued, nil
}

// Login checks the credentials and opens a new session. An unknown email
// and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.IssuedSession, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, model.ErrNotFound) {
		s.creds.burn(password)
		return model.IssuedSession{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.IssuedSession{}, err
	}

	if !s.creds.Verify(password, user.PasswordDigest) {
		return model.IssuedSession{}, model.ErrInvalidCredentials
	}

	issued, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return model.IssuedSession{}, err
	}

	s.publish(event.TypeUserLoggedIn, user.ID, user.Role, map[string]any{"session_id": issued.SessionID})
	return issued, nil
}

// Self returns the authenticated user's public profile.
func (s *AuthService) Self(ctx context.Context, p model.Principal) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, p.SubjectID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

// Refresh rotates the session named by the refresh principal. The new
// session is created before the old one is deleted, so a failure in between
// leaves an extra session rather than none.
func (s *AuthService) Refresh(ctx context.Context, access model.Principal, refresh model.Principal) (model.IssuedSession, error) {
	if !refresh.HasSession() || access.SubjectID != refresh.SubjectID {
		return model.IssuedSession{}, model.ErrAuthentication
	}

	user, err := s.users.FindByID(ctx, refresh.SubjectID)
	if err != nil {
		return model.IssuedSession{}, err
	}

	issued, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return model.IssuedSession{}, err
	}

	deleted, err := s.tokens.DeleteSession(ctx, refresh.SessionID)
	if err != nil {
		return model.IssuedSession{}, err
	}
	if !deleted {
		// A concurrent refresh consumed the old session first. Undo ours so
		// one refresh token can never mint two live sessions.
		if _, undoErr := s.tokens.DeleteSession(ctx, issued.SessionID); undoErr != nil {
			return model.IssuedSession{}, undoErr
		}
		return model.IssuedSession{}, model.ErrAuthentication
	}

	s.metrics.SessionRotated()
	s.publish(event.TypeSessionRotated, user.ID, user.Role, map[string]any{
		"old_session_id": refresh.SessionID,
		"new_session_id": issued.SessionID,
	})
	return issued, nil
}

// Logout deletes the session. A session that is already gone is fine.
func (s *AuthService) Logout(ctx context.Context, refresh model.Principal) error {
	if !refresh.HasSession() {
		return model.ErrAuthentication
	}

	if _, err := s.tokens.DeleteSession(ctx, refresh.SessionID); err != nil {
		return err
	}

	s.publish(event.TypeUserLoggedOut, refresh.SubjectID, refresh.Role, map[string]any{"session_id": refresh.SessionID})
	return nil
}

// createUser enforces email uniqueness, hashes the password and persists user.
func createUser(ctx context.Context, users UserStore, creds *CredentialService, user model.User, password string) (model.User, error) {
	if _, err := users.FindByEmail(ctx, user.Email); err == nil {
		return model.User{}, model.ErrDuplicateEmail
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, err
	}

	digest, err := creds.Hash(password)
	if err != nil {
		return model.User{}, err
	}
	user.PasswordDigest = digest

	return users.Create(ctx, user)
}

func (s *AuthService) publish(t event.Type, actorID int64, role model.Role, payload map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(t, actorID, role, payload))
}

func newUser(firstName, lastName, email, password string) (model.User, error) {
	user := model.User{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     normalizeEmail(email),
	}

	switch {
	case user.FirstName == "":
		return model.User{}, apierror.BadRequest("first name is required", "firstName")
	case user.LastName == "":
		return model.User{}, apierror.BadRequest("last name is required", "lastName")
	case user.Email == "":
		return model.User{}, apierror.BadRequest("email is required", "email")
	case !validEmail(user.Email):
		return model.User{}, apierror.BadRequest("email is not valid", "email")
	case len(password) < minPasswordLength:
		return model.User{}, apierror.BadRequest("password must be at least 8 characters", "password")
	case len(password) > maxPasswordBytes:
		return model.User{}, apierror.BadRequest("password must be at most 72 bytes", "password")
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
