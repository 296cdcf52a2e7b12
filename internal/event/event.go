package event

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"auth-service/internal/model"
)

type Type string

const (
	TypeUserRegistered Type = "user.registered"
	TypeUserLoggedIn   Type = "user.logged_in"
	TypeUserLoggedOut  Type = "user.logged_out"
	TypeSessionRotated Type = "session.rotated"
	TypeUserCreated    Type = "user.created"
	TypeUserUpdated    Type = "user.updated"
	TypeUserDeleted    Type = "user.deleted"
	TypeTenantCreated  Type = "tenant.created"
)

type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp string         `json:"timestamp"`
	ActorID   string         `json:"actor_id,omitempty"` // Who triggered the event
	ActorRole string         `json:"actor_role,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, actorID int64, role model.Role, payload map[string]any) Event {
	e := Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorRole: string(role),
	}
	if actorID > 0 {
		e.ActorID = strconv.FormatInt(actorID, 10)
	}
	return e
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
