package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/slug"
	"github.com/awbooks/awbooks-server/internal/store"
)

const bookColumns = `b.id, b.title, b.summary, b.publish_year, b.link, b.cover_url, b.isbn,
	b.category_id, b.user_id, b.slug`

// detailColumns must match the scan order in scanBookDetail.
const detailColumns = bookColumns + `,
	a.id, a.first_name, a.last_name,
	c.id, c.name, c.icon_url, c.description, c.slug`

const detailFrom = `FROM books b
	JOIN categories c ON c.id = b.category_id
	LEFT JOIN authors a ON a.book_id = b.id`

// bookScanTargets returns scan destinations for bookColumns and a func that
// copies the nullable values into b once Scan has run.
func bookScanTargets(b *domain.Book) ([]any, func()) {
	var summary, year, link, cover, isbn sql.NullString
	var userID sql.NullInt64
	dest := []any{&b.ID, &b.Title, &summary, &year, &link, &cover, &isbn, &b.CategoryID, &userID, &b.Slug}
	return dest, func() {
		b.Summary = summary.String
		b.PublishYear = year.String
		b.Link = link.String
		b.CoverURL = cover.String
		b.ISBN = isbn.String
		b.UserID = userID.Int64
	}
}

func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book
	dest, finish := bookScanTargets(&b)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	finish()
	return &b, nil
}

func scanBookDetail(scanner interface{ Scan(dest ...any) error }) (*domain.BookDetail, error) {
	var d domain.BookDetail
	dest, finish := bookScanTargets(&d.Book)

	var (
		authorID          sql.NullInt64
		first, last       sql.NullString
		iconURL, catDescr sql.NullString
	)
	dest = append(dest,
		&authorID, &first, &last,
		&d.Category.ID, &d.Category.Name, &iconURL, &catDescr, &d.Category.Slug,
	)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	finish()

	d.Author = domain.Author{
		ID:        authorID.Int64,
		BookID:    d.Book.ID,
		FirstName: first.String,
		LastName:  last.String,
	}
	d.Category.IconURL = iconURL.String
	d.Category.Description = catDescr.String
	return &d, nil
}

// GetBookBySlug retrieves a book by its slug.
func (s *Store) GetBookBySlug(ctx context.Context, bookSlug string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.slug = ?`, bookSlug)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book %q: %w", bookSlug, err)
	}
	return b, nil
}

// GetBookDetail retrieves a book with its author and category.
func (s *Store) GetBookDetail(ctx context.Context, bookSlug string) (*domain.BookDetail, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+detailColumns+` `+detailFrom+` WHERE b.slug = ?`, bookSlug)
	d, err := scanBookDetail(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book detail %q: %w", bookSlug, err)
	}
	return d, nil
}

// ListBookDetails returns the books of a category ordered by title.
func (s *Store) ListBookDetails(ctx context.Context, categoryID int64) ([]domain.BookDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+detailColumns+` `+detailFrom+` WHERE b.category_id = ? ORDER BY b.title COLLATE NOCASE, b.id`,
		categoryID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []domain.BookDetail
	for rows.Next() {
		d, err := scanBookDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// CreateBookWithAuthor inserts the book and its author in one transaction
// and sets their ids. book.Slug is the preferred slug (derived from the
// title when empty); a numeric suffix is added if another book has it.
func (s *Store) CreateBookWithAuthor(ctx context.Context, book *domain.Book, author *domain.Author) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	base := book.Slug
	if base == "" {
		base = slug.Make(book.Title)
	}
	bookSlug, err := uniqueBookSlug(ctx, tx, base, 0)
	if err != nil {
		return err
	}

	now := formatTime(time.Now())
	res, err := tx.ExecContext(ctx, `
		INSERT INTO books (
			title, summary, publish_year, link, cover_url, isbn,
			category_id, user_id, slug, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.Title,
		nullString(book.Summary),
		nullString(book.PublishYear),
		nullString(book.Link),
		nullString(book.CoverURL),
		nullString(book.ISBN),
		book.CategoryID,
		nullInt64(book.UserID),
		bookSlug,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", mapConstraintError(err))
	}
	bookID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO authors (book_id, first_name, last_name) VALUES (?, ?, ?)`,
		bookID, author.FirstName, author.LastName)
	if err != nil {
		return fmt.Errorf("insert author: %w", mapConstraintError(err))
	}
	authorID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	book.ID = bookID
	book.Slug = bookSlug
	author.ID = authorID
	author.BookID = bookID
	return nil
}

// UpdateBookWithAuthor applies the non-nil fields of changes to the book and
// its author in one transaction and returns the updated book. Owner and id
// are never touched.
func (s *Store) UpdateBookWithAuthor(ctx context.Context, bookID int64, changes store.BookChanges) (*domain.Book, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := getBookTx(ctx, tx, bookID); err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	setString := func(column string, v *string) {
		if v != nil {
			set(column, nullString(*v))
		}
	}

	if changes.Title != nil {
		set("title", *changes.Title)
	}
	setString("summary", changes.Summary)
	setString("publish_year", changes.PublishYear)
	setString("link", changes.Link)
	setString("cover_url", changes.CoverURL)
	setString("isbn", changes.ISBN)
	if changes.CategoryID != nil {
		set("category_id", *changes.CategoryID)
	}
	if changes.Slug != nil {
		bookSlug, err := uniqueBookSlug(ctx, tx, *changes.Slug, bookID)
		if err != nil {
			return nil, err
		}
		set("slug", bookSlug)
	}

	if len(sets) > 0 {
		set("updated_at", formatTime(time.Now()))
		args = append(args, bookID)
		query := `UPDATE books SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("update book: %w", mapConstraintError(err))
		}
	}

	if changes.TouchesAuthor() {
		if err := updateAuthorTx(ctx, tx, bookID, changes.AuthorFirstName, changes.AuthorLastName); err != nil {
			return nil, err
		}
	}

	updated, err := getBookTx(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBookWithAuthor removes the author and then the book in one
// transaction.
func (s *Store) DeleteBookWithAuthor(ctx context.Context, bookID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM authors WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("delete author: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, bookID)
	if err != nil {
		return fmt.Errorf("delete book: %w", mapConstraintError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return tx.Commit()
}

func getBookTx(ctx context.Context, tx *sql.Tx, bookID int64) (*domain.Book, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.id = ?`, bookID)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", bookID, err)
	}
	return b, nil
}

func updateAuthorTx(ctx context.Context, tx *sql.Tx, bookID int64, first, last *string) error {
	var (
		sets []string
		args []any
	)
	if first != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *first)
	}
	if last != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *last)
	}
	args = append(args, bookID)

	res, err := tx.ExecContext(ctx, `UPDATE authors SET `+strings.Join(sets, ", ")+` WHERE book_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update author: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Books always get an author on create; repair if one went missing.
	var f, l string
	if first != nil {
		f = *first
	}
	if last != nil {
		l = *last
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO authors (book_id, first_name, last_name) VALUES (?, ?, ?)`, bookID, f, l); err != nil {
		return fmt.Errorf("insert author: %w", mapConstraintError(err))
	}
	return nil
}

// uniqueBookSlug picks base or base-N, ignoring the book being edited.
func uniqueBookSlug(ctx context.Context, tx *sql.Tx, base string, selfID int64) (string, error) {
	return slug.Unique(base, func(candidate string) (bool, error) {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM books WHERE slug = ? AND id != ?`, candidate, selfID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("check slug: %w", err)
		}
		return true, nil
	})
}
