// Package session keeps per-browser state in Badger and binds it to a
// sealed cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/dgraph-io/badger/v4"
)

const sessionPrefix = "session:"

// ErrNotFound is returned when no live session has the requested id.
var ErrNotFound = errors.New("session not found")

// Store persists WebSessions in Badger. Entries carry a TTL matching the
// session's expiry so Badger drops them on its own.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) a session store in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	return open(opts, logger)
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Session store opened", "path", opts.Dir, "in_memory", opts.InMemory)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the session with the given id.
func (s *Store) Get(_ context.Context, id string) (*domain.WebSession, error) {
	var sess domain.WebSession
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.IsExpired(time.Now()) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Save writes the session, replacing any previous version.
func (s *Store) Save(ctx context.Context, sess *domain.WebSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	entry := badger.NewEntry([]byte(sessionPrefix+sess.ID), data)
	if !sess.ExpiresAt.IsZero() {
		ttl := time.Until(sess.ExpiresAt)
		if ttl <= 0 {
			return s.Delete(ctx, sess.ID)
		}
		entry = entry.WithTTL(ttl)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionPrefix + id))
	})
}

// RunGC reclaims value-log space until ctx is cancelled.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				// RunValueLogGC returns an error once there is nothing left to rewrite.
				if err := s.db.RunValueLogGC(0.5); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
						s.logger.Warn("session store GC failed", "error", err)
					}
					break
				}
			}
		}
	}
}
