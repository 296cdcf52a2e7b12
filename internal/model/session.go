package model

import (
	"strconv"
	"time"
)

// SessionTTL is how long a persisted session row stays valid.
const SessionTTL = 365 * 24 * time.Hour

// Session is the persisted record a refresh token's jti points at.
type Session struct {
	ID        int64
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Principal is the verified identity attached to a request.
type Principal struct {
	SubjectID int64
	Role      Role
	// SessionID is zero unless the principal came from a refresh token.
	SessionID int64
}

func (p Principal) Subject() string { return strconv.FormatInt(p.SubjectID, 10) }

func (p Principal) HasSession() bool { return p.SessionID > 0 }

// IssuedSession is what the rotation flow hands back to the transport layer.
type IssuedSession struct {
	User         PublicUser
	SessionID    int64
	AccessToken  string
	RefreshToken string
}
