// Package store defines the record store for users, categories, books and authors.
package store

import (
	"context"

	"github.com/awbooks/awbooks-server/internal/domain"
)

// Store is the persistence interface the catalog and identity services use.
//
// Book and Author are only ever written together: every method that creates,
// changes or removes a book does the same to its author inside one
// transaction.
type Store interface {
	Close() error
	Ping(ctx context.Context) error

	// Users
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// CreateUser returns ErrAlreadyExists when the email is taken, so two
	// racing first logins can never produce two users.
	CreateUser(ctx context.Context, user *domain.User) error

	// Categories
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error

	// Books
	GetBookBySlug(ctx context.Context, slug string) (*domain.Book, error)
	GetBookDetail(ctx context.Context, slug string) (*domain.BookDetail, error)
	ListBookDetails(ctx context.Context, categoryID int64) ([]domain.BookDetail, error)
	CreateBookWithAuthor(ctx context.Context, book *domain.Book, author *domain.Author) error
	UpdateBookWithAuthor(ctx context.Context, bookID int64, changes BookChanges) (*domain.Book, error)
	DeleteBookWithAuthor(ctx context.Context, bookID int64) error
}

// BookChanges lists the fields an edit touches. Nil fields are left alone.
type BookChanges struct {
	Title       *string
	Summary     *string
	PublishYear *string
	Link        *string
	CoverURL    *string
	ISBN        *string
	CategoryID  *int64
	// Slug is the preferred slug for a new title; the store appends a
	// numeric suffix when another book already uses it.
	Slug *string

	AuthorFirstName *string
	AuthorLastName  *string
}

// IsEmpty reports whether the change set touches nothing.
func (c BookChanges) IsEmpty() bool {
	return c.Title == nil && c.Summary == nil && c.PublishYear == nil &&
		c.Link == nil && c.CoverURL == nil && c.ISBN == nil &&
		c.CategoryID == nil && c.Slug == nil &&
		c.AuthorFirstName == nil && c.AuthorLastName == nil
}

// TouchesAuthor reports whether the author row needs an update.
func (c BookChanges) TouchesAuthor() bool {
	return c.AuthorFirstName != nil || c.AuthorLastName != nil
}
