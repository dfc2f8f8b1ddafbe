// Package store persists threat records and user notifications. The pipeline
// writes through the ThreatStore interface only; implementations are the
// in-memory store and the Badger-backed durable store.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"threatwatch/internal/classify"
	"threatwatch/internal/common"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrCommitmentExists guards the write-once invariant: a record's
	// commitment is never overwritten.
	ErrCommitmentExists = errors.New("commitment already attached")
)

// ThreatRecord is the persisted form of a submitted report.
type ThreatRecord struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	ThreatType       string              `json:"threat_type"`
	Severity         common.Severity     `json:"severity"`
	Indicators       []string            `json:"indicators,omitempty"`
	Location         map[string]any      `json:"location,omitempty"`
	Country          string              `json:"country,omitempty"`
	SubmitterID      string              `json:"user_id"`
	Status           common.ReportStatus `json:"status"`
	Classification   *classify.Result    `json:"classification,omitempty"`
	CommitmentRef    string              `json:"commitment_ref,omitempty"`
	CommitmentSource string              `json:"commitment_source,omitempty"`
	CreatedAt        time.Time           `json:"timestamp"`
}

// Notification is a per-user message persisted alongside the realtime push.
type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Kind      string          `json:"type"`
	Severity  common.Severity `json:"severity"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}

// ThreatStore persists threat records.
type ThreatStore interface {
	SaveThreat(ctx context.Context, rec *ThreatRecord) error
	GetThreat(ctx context.Context, id string) (*ThreatRecord, error)
	// AttachCommitment sets the commitment fields exactly once; a second
	// attach returns ErrCommitmentExists.
	AttachCommitment(ctx context.Context, id, ref, source string) error
}

// NotificationStore persists per-user notifications.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n *Notification) error
	UserNotifications(ctx context.Context, userID string, limit int) ([]Notification, error)
}

// MemoryStore is a mutex-guarded in-memory implementation of both stores.
type MemoryStore struct {
	mu            sync.Mutex
	threats       map[string]*ThreatRecord
	notifications map[string][]Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threats:       make(map[string]*ThreatRecord),
		notifications: make(map[string][]Notification),
	}
}

func (m *MemoryStore) SaveThreat(ctx context.Context, rec *ThreatRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.threats[rec.ID] = &cp
	return nil
}

func (m *MemoryStore) GetThreat(ctx context.Context, id string) (*ThreatRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.threats[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) AttachCommitment(ctx context.Context, id, ref, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.threats[id]
	if !ok {
		return ErrNotFound
	}
	if rec.CommitmentRef != "" {
		return ErrCommitmentExists
	}
	rec.CommitmentRef = ref
	rec.CommitmentSource = source
	return nil
}

func (m *MemoryStore) SaveNotification(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[n.UserID] = append(m.notifications[n.UserID], *n)
	return nil
}

func (m *MemoryStore) UserNotifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]Notification(nil), m.notifications[userID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
