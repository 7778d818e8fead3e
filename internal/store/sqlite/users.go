package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/store"
)

const userColumns = `id, name, email, picture`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u       domain.User
		picture sql.NullString
	)
	if err := scanner.Scan(&u.ID, &u.Name, &u.Email, &picture); err != nil {
		return nil, err
	}
	u.Picture = picture.String
	return &u, nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// CreateUser inserts the user and sets its id. A second user with the same
// email (in any case) is rejected with store.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, email, email_lower, picture, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(email_lower) DO NOTHING`,
		user.Name,
		user.Email,
		strings.ToLower(strings.TrimSpace(user.Email)),
		nullString(user.Picture),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", mapConstraintError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
