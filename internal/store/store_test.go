package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"threatwatch/internal/common"
)

func testStores(t *testing.T) map[string]interface {
	ThreatStore
	NotificationStore
} {
	t.Helper()
	badgerStore, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { badgerStore.Close() })

	return map[string]interface {
		ThreatStore
		NotificationStore
	}{
		"memory": NewMemoryStore(),
		"badger": badgerStore,
	}
}

func TestSaveAndGetThreat(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := &ThreatRecord{
				ID:          "t1",
				Title:       "beacon",
				ThreatType:  "malware",
				Severity:    common.SeverityHigh,
				SubmitterID: "alice",
				Status:      common.StatusPending,
				CreatedAt:   time.Now().UTC().Truncate(time.Second),
			}
			if err := s.SaveThreat(ctx, rec); err != nil {
				t.Fatalf("save: %v", err)
			}

			got, err := s.GetThreat(ctx, "t1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Title != "beacon" || got.Status != common.StatusPending {
				t.Errorf("unexpected record: %+v", got)
			}

			if _, err := s.GetThreat(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestAttachCommitmentWriteOnce(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.SaveThreat(ctx, &ThreatRecord{ID: "t2"}); err != nil {
				t.Fatalf("save: %v", err)
			}

			if err := s.AttachCommitment(ctx, "t2", "abc", "local_fallback"); err != nil {
				t.Fatalf("first attach: %v", err)
			}
			err := s.AttachCommitment(ctx, "t2", "other", "ledger")
			if !errors.Is(err, ErrCommitmentExists) {
				t.Errorf("expected ErrCommitmentExists, got %v", err)
			}

			got, _ := s.GetThreat(ctx, "t2")
			if got.CommitmentRef != "abc" || got.CommitmentSource != "local_fallback" {
				t.Errorf("commitment must not be overwritten: %+v", got)
			}

			if err := s.AttachCommitment(ctx, "missing", "x", "ledger"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestNotifications(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().UTC().Truncate(time.Second)
			for i, id := range []string{"n1", "n2", "n3"} {
				n := &Notification{
					ID:        id,
					UserID:    "bob",
					Title:     "threat alert",
					Kind:      "info",
					Severity:  common.SeverityMedium,
					CreatedAt: base.Add(time.Duration(i) * time.Minute),
				}
				if err := s.SaveNotification(ctx, n); err != nil {
					t.Fatalf("save notification: %v", err)
				}
			}

			list, err := s.UserNotifications(ctx, "bob", 2)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("expected limit 2, got %d", len(list))
			}
			if list[0].ID != "n3" {
				t.Errorf("expected newest first, got %s", list[0].ID)
			}

			empty, err := s.UserNotifications(ctx, "nobody", 10)
			if err != nil || len(empty) != 0 {
				t.Errorf("expected empty list, got %v %v", empty, err)
			}
		})
	}
}
