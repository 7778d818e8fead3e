package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/errors"
)

func TestSeedCategories_Idempotent(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	n, err := SeedCategories(ctx, env.store, DefaultCategories)
	require.NoError(t, err)
	assert.Zero(t, n, "already seeded by setup")

	cats, err := env.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(DefaultCategories))
}

func TestCreateBook_RequiresLogin(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	for _, sess := range []*domain.WebSession{nil, {ID: "anon"}} {
		_, err := env.catalog.CreateBook(ctx, sess, CreateBookRequest{Title: "Deep Work", Category: "Python"})
		assert.ErrorIs(t, err, errors.ErrUnauthorized)

		_, err = env.catalog.PrepareCreate(ctx, sess)
		assert.ErrorIs(t, err, errors.ErrUnauthorized)
	}

	_, books, err := env.catalog.CategoryBooks(ctx, "python")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestCreateBook(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	sess := env.login(t, "ada-token")

	d := env.createBook(t, sess, "Deep Work", "Python")
	assert.Equal(t, "deep-work", d.Book.Slug)
	assert.Equal(t, sess.UserID, d.Book.UserID)
	assert.Equal(t, "Python", d.Category.Name)
	assert.Equal(t, "Cal Newport", d.Author.FullName())

	again := env.createBook(t, sess, "Deep Work", "Go")
	assert.Equal(t, "deep-work-2", again.Book.Slug)

	doc, err := env.catalog.BookDocument(ctx, "deep-work")
	require.NoError(t, err)
	assert.Equal(t, "Deep Work", doc.Book.Title)
	assert.Equal(t, "Newport", doc.Author.LastName)
	assert.Equal(t, "Python", doc.Category.Name)
}

func TestCreateBook_Validation(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	sess := env.login(t, "ada-token")

	tests := []struct {
		name string
		req  CreateBookRequest
	}{
		{"missing title", CreateBookRequest{Category: "Python"}},
		{"blank title", CreateBookRequest{Title: "   ", Category: "Python"}},
		{"unknown category", CreateBookRequest{Title: "Deep Work", Category: "Cooking"}},
		{"bad year", CreateBookRequest{Title: "Deep Work", Category: "Python", Year: "20x6"}},
		{"bad link", CreateBookRequest{Title: "Deep Work", Category: "Python", Link: "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.catalog.CreateBook(ctx, sess, tt.req)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}

	_, books, err := env.catalog.CategoryBooks(ctx, "python")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestEditBook_WritesOnlyChangedFields(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	sess := env.login(t, "ada-token")
	before := env.createBook(t, sess, "Deep Work", "Python")
	catalog, rec := env.recordingCatalog()

	form := editForm(before)
	form.Summary = "Updated summary"
	after, err := catalog.EditBook(ctx, sess, "deep-work", form)
	require.NoError(t, err)

	require.Len(t, rec.updates, 1)
	changes := rec.updates[0]
	require.NotNil(t, changes.Summary)
	assert.Equal(t, "Updated summary", *changes.Summary)
	assert.Nil(t, changes.Title)
	assert.Nil(t, changes.Slug)
	assert.Nil(t, changes.CategoryID)
	assert.Nil(t, changes.PublishYear)
	assert.Nil(t, changes.Link)
	assert.Nil(t, changes.CoverURL)
	assert.Nil(t, changes.ISBN)
	assert.False(t, changes.TouchesAuthor())

	assert.Equal(t, "Updated summary", after.Book.Summary)
	assert.Equal(t, before.Book.Slug, after.Book.Slug)
	assert.Equal(t, before.Book.ISBN, after.Book.ISBN)
	assert.Equal(t, before.Author.FirstName, after.Author.FirstName)

	// Resubmitting the form untouched writes nothing.
	_, err = catalog.EditBook(ctx, sess, "deep-work", editForm(after))
	require.NoError(t, err)
	assert.Len(t, rec.updates, 1)
}

func TestEditBook_ClearsFields(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	sess := env.login(t, "ada-token")
	before := env.createBook(t, sess, "Deep Work", "Python")

	form := editForm(before)
	form.Summary = ""
	form.ISBN = "  "
	form.Year = ""
	form.AuthorFirstName = ""
	after, err := env.catalog.EditBook(ctx, sess, "deep-work", form)
	require.NoError(t, err)

	assert.Empty(t, after.Book.Summary)
	assert.Empty(t, after.Book.ISBN)
	assert.Empty(t, after.Book.PublishYear)
	assert.Empty(t, after.Author.FirstName)
	assert.Equal(t, "Newport", after.Author.LastName)
	assert.Equal(t, "Deep Work", after.Book.Title)

	stored, err := env.catalog.Book(ctx, "deep-work")
	require.NoError(t, err)
	assert.Equal(t, *after, *stored)
}

func TestEditBook_TitleAndCategoryRequired(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	sess := env.login(t, "ada-token")
	before := env.createBook(t, sess, "Deep Work", "Python")

	for _, blank := range []func(*EditBookRequest){
		func(r *EditBookRequest) { r.Title = "" },
		func(r *EditBookRequest) { r.Category = " " },
	} {
		form := editForm(before)
		blank(&form)
		_, err := env.catalog.EditBook(ctx, sess, "deep-work", form)
		assert.ErrorIs(t, err, errors.ErrValidation)
	}
}

func TestEditBook_TitleAndCategory(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	sess := env.login(t, "ada-token")
	before := env.createBook(t, sess, "Deep Work", "Python")

	form := editForm(before)
	form.Title = "Deep Work (Revised)"
	form.Category = "Go"
	form.AuthorLastName = "Newport-Smith"
	after, err := env.catalog.EditBook(ctx, sess, "deep-work", form)
	require.NoError(t, err)

	assert.Equal(t, "deep-work-revised", after.Book.Slug)
	assert.Equal(t, "Go", after.Category.Name)
	assert.Equal(t, "Cal", after.Author.FirstName)
	assert.Equal(t, "Newport-Smith", after.Author.LastName)
	assert.Equal(t, before.Book.Summary, after.Book.Summary)

	_, err = env.catalog.Book(ctx, "deep-work")
	assert.ErrorIs(t, err, errors.ErrNotFound, "old slug is gone")

	form = editForm(after)
	form.Category = "Cooking"
	_, err = env.catalog.EditBook(ctx, sess, after.Book.Slug, form)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestEditAndDelete_Authorization(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	owner := env.login(t, "ada-token")
	other := env.login(t, "grace-token")
	anon := &domain.WebSession{ID: "anon"}
	env.createBook(t, owner, "Deep Work", "Python")

	before, err := env.catalog.Book(ctx, "deep-work")
	require.NoError(t, err)
	hostile := editForm(before)
	hostile.Title = "Shallow Work"
	hostile.Summary = ""

	_, err = env.catalog.EditBook(ctx, other, "deep-work", hostile)
	assert.ErrorIs(t, err, errors.ErrForbidden)
	_, err = env.catalog.DeleteBook(ctx, other, "deep-work")
	assert.ErrorIs(t, err, errors.ErrForbidden)
	_, _, err = env.catalog.PrepareEdit(ctx, other, "deep-work")
	assert.ErrorIs(t, err, errors.ErrForbidden)
	_, err = env.catalog.PrepareDelete(ctx, other, "deep-work")
	assert.ErrorIs(t, err, errors.ErrForbidden)

	_, err = env.catalog.EditBook(ctx, anon, "deep-work", hostile)
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
	_, err = env.catalog.DeleteBook(ctx, anon, "deep-work")
	assert.ErrorIs(t, err, errors.ErrUnauthorized)

	// Login is checked before the book is looked up.
	_, err = env.catalog.DeleteBook(ctx, anon, "no-such-book")
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
	_, err = env.catalog.DeleteBook(ctx, other, "no-such-book")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	after, err := env.catalog.Book(ctx, "deep-work")
	require.NoError(t, err)
	assert.Equal(t, *before, *after)
}

func TestDeleteBook(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	sess := env.login(t, "ada-token")
	env.createBook(t, sess, "Deep Work", "Python")

	d, err := env.catalog.PrepareDelete(ctx, sess, "deep-work")
	require.NoError(t, err)
	assert.Equal(t, "Deep Work", d.Book.Title)

	_, err = env.catalog.Book(ctx, "deep-work")
	require.NoError(t, err, "confirmation does not delete")

	deleted, err := env.catalog.DeleteBook(ctx, sess, "deep-work")
	require.NoError(t, err)
	assert.Equal(t, "Python", deleted.Category.Name)

	_, err = env.catalog.Book(ctx, "deep-work")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = env.catalog.DeleteBook(ctx, sess, "deep-work")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCategoryDocument(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	doc, err := env.catalog.CategoryDocument(ctx, "python")
	require.NoError(t, err)
	assert.NotNil(t, doc.Books)
	assert.Empty(t, doc.Books)

	sess := env.login(t, "ada-token")
	env.createBook(t, sess, "Deep Work", "Python")
	env.createBook(t, sess, "Fluent Python", "Python")
	env.createBook(t, sess, "Learning Go", "Go")

	doc, err = env.catalog.CategoryDocument(ctx, "python")
	require.NoError(t, err)
	assert.Len(t, doc.Books, 2)

	_, err = env.catalog.CategoryDocument(ctx, "cooking")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.ErrorContains(t, err, `"cooking"`)

	_, err = env.catalog.BookDocument(ctx, "no-such-book")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.ErrorContains(t, err, `"no-such-book"`, "message names the missing slug")
}
