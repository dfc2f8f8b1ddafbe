package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore is the durable implementation backed by an embedded Badger
// database. Keys are namespaced: threat:<id> and notif:<user>:<id>.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the database at dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Close() error { return b.db.Close() }

func threatKey(id string) []byte { return []byte("threat:" + id) }

func notifKey(userID, id string) []byte { return []byte("notif:" + userID + ":" + id) }

func (b *BadgerStore) SaveThreat(ctx context.Context, rec *ThreatRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode threat %s: %w", rec.ID, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(threatKey(rec.ID), val)
	})
}

func (b *BadgerStore) GetThreat(ctx context.Context, id string) (*ThreatRecord, error) {
	var rec ThreatRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(threatKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get threat %s: %w", id, err)
	}
	return &rec, nil
}

func (b *BadgerStore) AttachCommitment(ctx context.Context, id, ref, source string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(threatKey(id))
		if err != nil {
			return err
		}
		var rec ThreatRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		if rec.CommitmentRef != "" {
			return ErrCommitmentExists
		}
		rec.CommitmentRef = ref
		rec.CommitmentSource = source
		val, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return txn.Set(threatKey(id), val)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

func (b *BadgerStore) SaveNotification(ctx context.Context, n *Notification) error {
	val, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", n.ID, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(notifKey(n.UserID, n.ID), val)
	})
}

func (b *BadgerStore) UserNotifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	var list []Notification
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("notif:" + userID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var n Notification
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			}); err != nil {
				return err
			}
			list = append(list, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
