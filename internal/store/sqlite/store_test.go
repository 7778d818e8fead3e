package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedCategory(t *testing.T, s *Store, name, slug string) *domain.Category {
	t.Helper()
	c := &domain.Category{Name: name, Slug: slug, Description: name + " books", IconURL: "/static/" + slug + ".png"}
	if err := s.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func seedUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{Name: "Test User", Email: email}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	for _, table := range []string{"users", "categories", "books", "authors"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	defer s2.Close()
}

func TestCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	py := seedCategory(t, s, "Python", "python")
	seedCategory(t, s, "Go", "go")

	if py.ID == 0 {
		t.Fatal("expected category id to be set")
	}

	all, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Go" || all[1].Name != "Python" {
		t.Fatalf("unexpected categories: %+v", all)
	}

	got, err := s.GetCategoryBySlug(ctx, "python")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if got.ID != py.ID || got.Description != "Python books" || got.IconURL != "/static/python.png" {
		t.Errorf("unexpected category: %+v", got)
	}

	if _, err := s.GetCategoryByName(ctx, "Go"); err != nil {
		t.Errorf("get by name: %v", err)
	}
	if _, err := s.GetCategory(ctx, py.ID); err != nil {
		t.Errorf("get by id: %v", err)
	}

	_, err = s.GetCategoryBySlug(ctx, "cobol")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	dup := &domain.Category{Name: "Python", Slug: "python-2"}
	if err := s.CreateCategory(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for duplicate name, got %v", err)
	}
}
