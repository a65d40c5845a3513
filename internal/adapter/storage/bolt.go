package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/niksmo/kiksniks/internal/core/port"
	bolt "go.etcd.io/bbolt"
)

var (
	_ port.SessionStorage = (*Bolt)(nil)
	_ port.SessionPurger  = (*Bolt)(nil)
)

var sessionsBucket = []byte("session_storage")

// timestamp prefix of every stored value
const stampLen = 8

// Bolt keeps session documents in an embedded bbolt file: one nested
// bucket per session.
type Bolt struct {
	db  *bolt.DB
	now func() time.Time
}

func NewBolt(path string) (*Bolt, error) {
	const op = "NewBolt"

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slog.Info("bolt storage is open", "op", op, "path", path)
	return &Bolt{db: db, now: time.Now}, nil
}

func (b *Bolt) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	const op = "Bolt.Get"

	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		sb := tx.Bucket(sessionsBucket).Bucket([]byte(sessionID))
		if sb == nil {
			return ErrNotFound
		}
		raw := sb.Get([]byte(key))
		if len(raw) < stampLen {
			return ErrNotFound
		}
		value = slices.Clone(raw[stampLen:])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

func (b *Bolt) Put(_ context.Context, sessionID, key string, value []byte) error {
	const op = "Bolt.Put"

	raw := make([]byte, stampLen, stampLen+len(value))
	binary.BigEndian.PutUint64(raw, uint64(b.now().UnixNano()))
	raw = append(raw, value...)

	err := b.db.Update(func(tx *bolt.Tx) error {
		sb, err := tx.Bucket(sessionsBucket).CreateBucketIfNotExists([]byte(sessionID))
		if err != nil {
			return err
		}
		return sb.Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (b *Bolt) Delete(_ context.Context, sessionID, key string) error {
	const op = "Bolt.Delete"

	err := b.db.Update(func(tx *bolt.Tx) error {
		sb := tx.Bucket(sessionsBucket).Bucket([]byte(sessionID))
		if sb == nil {
			return nil
		}
		return sb.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (b *Bolt) PurgeSessions(_ context.Context, before time.Time) (int, error) {
	const op = "Bolt.PurgeSessions"

	limit := uint64(before.UnixNano())
	n := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(sessionsBucket)

		var sessions [][]byte
		if err := root.ForEach(func(k, v []byte) error {
			if v == nil {
				sessions = append(sessions, slices.Clone(k))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, sid := range sessions {
			sb := root.Bucket(sid)
			var stale [][]byte
			if err := sb.ForEach(func(k, v []byte) error {
				if len(v) < stampLen || binary.BigEndian.Uint64(v) < limit {
					stale = append(stale, slices.Clone(k))
				}
				return nil
			}); err != nil {
				return err
			}
			for _, k := range stale {
				if err := sb.Delete(k); err != nil {
					return err
				}
				n++
			}
			if k, _ := sb.Cursor().First(); k == nil {
				if err := root.DeleteBucket(sid); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (b *Bolt) Close() {
	const op = "Bolt.Close"
	log := slog.With("op", op)

	if err := b.db.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("bolt storage is closed")
}
