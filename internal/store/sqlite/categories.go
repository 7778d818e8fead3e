package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/store"
)

const categoryColumns = `id, name, icon_url, description, slug`

func scanCategory(scanner interface{ Scan(dest ...any) error }) (*domain.Category, error) {
	var (
		c           domain.Category
		iconURL     sql.NullString
		description sql.NullString
	)
	if err := scanner.Scan(&c.ID, &c.Name, &iconURL, &description, &c.Slug); err != nil {
		return nil, err
	}
	c.IconURL = iconURL.String
	c.Description = description.String
	return &c, nil
}

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory retrieves a category by id.
func (s *Store) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.getCategory(ctx, `id = ?`, id)
}

// GetCategoryBySlug retrieves a category by its URL slug.
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return s.getCategory(ctx, `slug = ?`, slug)
}

// GetCategoryByName retrieves a category by its exact name.
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	return s.getCategory(ctx, `name = ?`, name)
}

func (s *Store) getCategory(ctx context.Context, where string, arg any) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE `+where, arg)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// CreateCategory inserts a category. Duplicate names or slugs return
// store.ErrAlreadyExists.
func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, icon_url, description, slug)
		VALUES (?, ?, ?, ?)`,
		c.Name, nullString(c.IconURL), nullString(c.Description), c.Slug,
	)
	if err != nil {
		return mapConstraintError(err)
	}
	c.ID, err = res.LastInsertId()
	return err
}
