package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"auth-service/internal/event"
	"auth-service/internal/model"
	"auth-service/pkg/apierror"
)

// AuditService persists auth lifecycle events and serves them back.
type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if _, err := parseOptionalAuditTime(query.From); err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'from' datetime format", query.From)
	}
	if _, err := parseOptionalAuditTime(query.To); err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'to' datetime format", query.To)
	}

	return s.store.Query(ctx, query)
}

// Consume records every event published on bus until ctx is cancelled.
func (s *AuditService) Consume(ctx context.Context, bus event.Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := s.store.Log(ctx, entryFromEvent(e)); err != nil {
				slog.Error("failed to record audit entry", "type", e.Type, "error", err)
			}
		}
	}
}

func entryFromEvent(e event.Event) model.AuditEntry {
	entry := model.AuditEntry{
		Action:     string(e.Type),
		OccurredAt: e.Timestamp,
		Actor:      model.AuditActor{UserID: e.ActorID, Role: e.ActorRole},
		Status:     "success",
	}
	if len(e.Payload) > 0 {
		entry.Details = e.Payload
	}
	return entry
}

func parseOptionalAuditTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	if value, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return value.UTC(), nil
}
