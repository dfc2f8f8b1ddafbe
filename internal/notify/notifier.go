// Package notify stores per-user notifications and pushes them over the
// realtime hub.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"threatwatch/internal/common"
	"threatwatch/internal/hub"
	"threatwatch/internal/store"
)

type Notifier struct {
	store store.NotificationStore
	hub   *hub.Hub
}

func New(s store.NotificationStore, h *hub.Hub) *Notifier {
	return &Notifier{store: s, hub: h}
}

// Notify persists a notification for userID and pushes it live. The push is
// best effort: a user without an open connection just reads it later.
func (n *Notifier) Notify(ctx context.Context, userID, title, message, kind string, severity common.Severity) (*store.Notification, error) {
	rec := &store.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		Severity:  severity,
		CreatedAt: time.Now().UTC(),
	}
	if err := n.store.SaveNotification(ctx, rec); err != nil {
		return nil, err
	}
	n.hub.Send(userID, hub.Envelope{Type: hub.TypeNotification, Data: rec})
	return rec, nil
}

// Recent returns the newest notifications for a user.
func (n *Notifier) Recent(ctx context.Context, userID string, limit int) ([]store.Notification, error) {
	return n.store.UserNotifications(ctx, userID, limit)
}
