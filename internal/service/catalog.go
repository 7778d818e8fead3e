// Package service implements the catalog and identity-linking operations.
// Every operation takes the caller's session explicitly.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/awbooks/awbooks-server/internal/auth"
	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/errors"
	"github.com/awbooks/awbooks-server/internal/slug"
	"github.com/awbooks/awbooks-server/internal/store"
	"github.com/awbooks/awbooks-server/internal/validation"
)

const (
	msgCategoryNotFound = "we could not find that category"
	msgBookNotFound     = "we could not find that book"
)

// CatalogService orchestrates browsing and book maintenance.
type CatalogService struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(st store.Store, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		store:     st,
		logger:    logger,
		validator: validation.New(),
	}
}

// CreateBookRequest is the new-book form.
type CreateBookRequest struct {
	Title           string `form:"title" validate:"required,max=200"`
	Category        string `form:"category" validate:"required,max=80"`
	Year            string `form:"year" validate:"omitempty,len=4,numeric"`
	Link            string `form:"link" validate:"omitempty,url,max=500"`
	CoverURL        string `form:"coverUrl" validate:"omitempty,url,max=500"`
	Summary         string `form:"summary" validate:"max=5000"`
	ISBN            string `form:"isbn" validate:"max=32"`
	AuthorFirstName string `form:"authorFName" validate:"max=100"`
	AuthorLastName  string `form:"authorLName" validate:"max=100"`
}

// EditBookRequest is the edit form. The page resubmits every field; only the
// values that differ from the stored book are written, so an emptied field
// clears it.
type EditBookRequest struct {
	Title           string `form:"title" validate:"required,max=200"`
	Category        string `form:"category" validate:"required,max=80"`
	Year            string `form:"year" validate:"omitempty,len=4,numeric"`
	Link            string `form:"link" validate:"omitempty,url,max=500"`
	CoverURL        string `form:"coverUrl" validate:"omitempty,url,max=500"`
	Summary         string `form:"summary" validate:"max=5000"`
	ISBN            string `form:"isbn" validate:"max=32"`
	AuthorFirstName string `form:"authorFName" validate:"max=100"`
	AuthorLastName  string `form:"authorLName" validate:"max=100"`
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	return cats, storeError(err, errors.NotFound(msgCategoryNotFound))
}

// CategoryBooks returns a category and its books.
func (s *CatalogService) CategoryBooks(ctx context.Context, categorySlug string) (*domain.Category, []domain.BookDetail, error) {
	cat, err := s.store.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, nil, storeError(err, errors.NotFoundf("no category is filed under %q", categorySlug))
	}
	books, err := s.store.ListBookDetails(ctx, cat.ID)
	if err != nil {
		return nil, nil, storeError(err, errors.NotFound(msgCategoryNotFound))
	}
	return cat, books, nil
}

// CategoryDocument returns the JSON listing of a category.
func (s *CatalogService) CategoryDocument(ctx context.Context, categorySlug string) (domain.CategoryDocument, error) {
	_, books, err := s.CategoryBooks(ctx, categorySlug)
	if err != nil {
		return domain.CategoryDocument{}, err
	}
	return domain.NewCategoryDocument(books), nil
}

// Book returns a book with its author and category.
func (s *CatalogService) Book(ctx context.Context, titleSlug string) (*domain.BookDetail, error) {
	d, err := s.store.GetBookDetail(ctx, titleSlug)
	if err != nil {
		return nil, storeError(err, errors.NotFoundf("no book is filed under %q", titleSlug))
	}
	return d, nil
}

// BookDocument returns the JSON document of a book.
func (s *CatalogService) BookDocument(ctx context.Context, titleSlug string) (domain.BookDocument, error) {
	d, err := s.Book(ctx, titleSlug)
	if err != nil {
		return domain.BookDocument{}, err
	}
	return d.Document(), nil
}

// PrepareCreate checks the caller may add books and returns the category
// choices for the form.
func (s *CatalogService) PrepareCreate(ctx context.Context, sess *domain.WebSession) ([]*domain.Category, error) {
	if err := auth.RequireActive(sess); err != nil {
		return nil, err
	}
	return s.ListCategories(ctx)
}

// CreateBook files a new book and its author under the named category,
// owned by the session's user.
func (s *CatalogService) CreateBook(ctx context.Context, sess *domain.WebSession, req CreateBookRequest) (*domain.BookDetail, error) {
	if err := auth.RequireActive(sess); err != nil {
		return nil, err
	}
	req = trimCreate(req)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	cat, err := s.categoryByName(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	book := &domain.Book{
		Title:       req.Title,
		Summary:     req.Summary,
		PublishYear: req.Year,
		Link:        req.Link,
		CoverURL:    req.CoverURL,
		ISBN:        req.ISBN,
		CategoryID:  cat.ID,
		UserID:      sess.UserID,
		Slug:        slug.Make(req.Title),
	}
	author := &domain.Author{FirstName: req.AuthorFirstName, LastName: req.AuthorLastName}

	if err := s.store.CreateBookWithAuthor(ctx, book, author); err != nil {
		return nil, storeError(err, errors.NotFound(msgCategoryNotFound))
	}

	s.logger.Info("book created", "book_id", book.ID, "slug", book.Slug, "user_id", sess.UserID)
	return &domain.BookDetail{Book: *book, Author: *author, Category: *cat}, nil
}

// PrepareEdit loads a book for its edit form after checking ownership.
func (s *CatalogService) PrepareEdit(ctx context.Context, sess *domain.WebSession, titleSlug string) (*domain.BookDetail, []*domain.Category, error) {
	d, err := s.ownedBook(ctx, sess, titleSlug)
	if err != nil {
		return nil, nil, err
	}
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, nil, err
	}
	return d, cats, nil
}

// EditBook writes the fields of req that differ from the stored book. The
// returned detail carries the book's current category and slug.
func (s *CatalogService) EditBook(ctx context.Context, sess *domain.WebSession, titleSlug string, req EditBookRequest) (*domain.BookDetail, error) {
	d, err := s.ownedBook(ctx, sess, titleSlug)
	if err != nil {
		return nil, err
	}
	req = trimEdit(req)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	changes := store.BookChanges{
		Summary:         changed(d.Book.Summary, req.Summary),
		PublishYear:     changed(d.Book.PublishYear, req.Year),
		Link:            changed(d.Book.Link, req.Link),
		CoverURL:        changed(d.Book.CoverURL, req.CoverURL),
		ISBN:            changed(d.Book.ISBN, req.ISBN),
		AuthorFirstName: changed(d.Author.FirstName, req.AuthorFirstName),
		AuthorLastName:  changed(d.Author.LastName, req.AuthorLastName),
	}
	if req.Title != d.Book.Title {
		changes.Title = &req.Title
		base := slug.Make(req.Title)
		changes.Slug = &base
	}
	if req.Category != d.Category.Name {
		cat, err := s.categoryByName(ctx, req.Category)
		if err != nil {
			return nil, err
		}
		if cat.ID != d.Book.CategoryID {
			changes.CategoryID = &cat.ID
		}
	}

	if changes.IsEmpty() {
		return d, nil
	}

	updated, err := s.store.UpdateBookWithAuthor(ctx, d.Book.ID, changes)
	if err != nil {
		return nil, storeError(err, errors.NotFound(msgBookNotFound))
	}

	s.logger.Info("book edited", "book_id", updated.ID, "slug", updated.Slug, "user_id", sess.UserID)
	return s.Book(ctx, updated.Slug)
}

// PrepareDelete loads a book for the delete confirmation after checking
// ownership. Nothing is changed.
func (s *CatalogService) PrepareDelete(ctx context.Context, sess *domain.WebSession, titleSlug string) (*domain.BookDetail, error) {
	return s.ownedBook(ctx, sess, titleSlug)
}

// DeleteBook removes a book and its author.
func (s *CatalogService) DeleteBook(ctx context.Context, sess *domain.WebSession, titleSlug string) (*domain.BookDetail, error) {
	d, err := s.ownedBook(ctx, sess, titleSlug)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteBookWithAuthor(ctx, d.Book.ID); err != nil {
		return nil, storeError(err, errors.NotFound(msgBookNotFound))
	}

	s.logger.Info("book deleted", "book_id", d.Book.ID, "slug", d.Book.Slug, "user_id", sess.UserID)
	return d, nil
}

// ownedBook requires a logged-in session, then the book, then ownership.
func (s *CatalogService) ownedBook(ctx context.Context, sess *domain.WebSession, titleSlug string) (*domain.BookDetail, error) {
	if err := auth.RequireActive(sess); err != nil {
		return nil, err
	}
	d, err := s.Book(ctx, titleSlug)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwner(sess, &d.Book); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *CatalogService) categoryByName(ctx context.Context, name string) (*domain.Category, error) {
	cat, err := s.store.GetCategoryByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.ValidationWithDetails("unknown category "+name,
			validation.FieldErrors{"category": "must be one of the listed categories"})
	}
	if err != nil {
		return nil, storeError(err, errors.NotFound(msgCategoryNotFound))
	}
	return cat, nil
}

// changed returns &submitted when it differs from stored, nil otherwise.
func changed(stored, submitted string) *string {
	if submitted == stored {
		return nil
	}
	return &submitted
}

func trimCreate(r CreateBookRequest) CreateBookRequest {
	return CreateBookRequest(trimEdit(EditBookRequest(r)))
}

func trimEdit(r EditBookRequest) EditBookRequest {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.TrimSpace(r.Category)
	r.Year = strings.TrimSpace(r.Year)
	r.Link = strings.TrimSpace(r.Link)
	r.CoverURL = strings.TrimSpace(r.CoverURL)
	r.Summary = strings.TrimSpace(r.Summary)
	r.ISBN = strings.TrimSpace(r.ISBN)
	r.AuthorFirstName = strings.TrimSpace(r.AuthorFirstName)
	r.AuthorLastName = strings.TrimSpace(r.AuthorLastName)
	return r
}
