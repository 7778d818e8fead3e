package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/store"
)

func ptr[T any](v T) *T { return &v }

func createBook(t *testing.T, s *Store, title string, categoryID, userID int64) (*domain.Book, *domain.Author) {
	t.Helper()
	b := &domain.Book{
		Title:       title,
		Summary:     "A summary of " + title,
		PublishYear: "2016",
		Link:        "https://example.com/book",
		CoverURL:    "https://example.com/cover.jpg",
		ISBN:        "978-1455586691",
		CategoryID:  categoryID,
		UserID:      userID,
	}
	a := &domain.Author{FirstName: "Cal", LastName: "Newport"}
	if err := s.CreateBookWithAuthor(context.Background(), b, a); err != nil {
		t.Fatalf("create book %q: %v", title, err)
	}
	return b, a
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestCreateBookWithAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	py := seedCategory(t, s, "Python", "python")
	u := seedUser(t, s, "ada@example.com")

	b, a := createBook(t, s, "Deep Work", py.ID, u.ID)

	if b.ID == 0 || a.ID == 0 || a.BookID != b.ID {
		t.Fatalf("ids not assigned: book=%+v author=%+v", b, a)
	}
	if b.Slug != "deep-work" {
		t.Errorf("expected slug deep-work, got %q", b.Slug)
	}

	d, err := s.GetBookDetail(ctx, "deep-work")
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if d.Book.CategoryID != py.ID || d.Category.Name != "Python" {
		t.Errorf("book not filed under its category: %+v", d)
	}
	if d.Book.UserID != u.ID {
		t.Errorf("owner = %d, want %d", d.Book.UserID, u.ID)
	}
	if d.Author.FirstName != "Cal" || d.Author.LastName != "Newport" || d.Author.BookID != b.ID {
		t.Errorf("unexpected author: %+v", d.Author)
	}
	if d.Book.PublishYear != "2016" || d.Book.ISBN != "978-1455586691" {
		t.Errorf("unexpected book fields: %+v", d.Book)
	}
}

func TestCreateBookWithAuthor_SlugCollision(t *testing.T) {
	s := newTestStore(t)
	py := seedCategory(t, s, "Python", "python")
	u := seedUser(t, s, "ada@example.com")

	first, _ := createBook(t, s, "Deep Work", py.ID, u.ID)
	second, _ := createBook(t, s, "Deep  Work!", py.ID, u.ID)
	reserved, _ := createBook(t, s, "JSON", py.ID, u.ID)

	if first.Slug != "deep-work" || second.Slug != "deep-work-2" {
		t.Errorf("slugs = %q, %q", first.Slug, second.Slug)
	}
	if reserved.Slug != "json-2" {
		t.Errorf("reserved slug = %q, want json-2", reserved.Slug)
	}
}

func TestCreateBookWithAuthor_UnknownCategoryRollsBack(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "ada@example.com")

	b := &domain.Book{Title: "Orphan", CategoryID: 999, UserID: u.ID}
	err := s.CreateBookWithAuthor(context.Background(), b, &domain.Author{FirstName: "A", LastName: "B"})
	if !errors.Is(err, store.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	if n := countRows(t, s, "books"); n != 0 {
		t.Errorf("books = %d, want 0", n)
	}
	if n := countRows(t, s, "authors"); n != 0 {
		t.Errorf("authors = %d, want 0", n)
	}
}

func TestCreateBookWithAuthor_BadYearRollsBack(t *testing.T) {
	s := newTestStore(t)
	py := seedCategory(t, s, "Python", "python")

	b := &domain.Book{Title: "Bad Year", PublishYear: "16", CategoryID: py.ID}
	err := s.CreateBookWithAuthor(context.Background(), b, &domain.Author{})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if n := countRows(t, s, "authors"); n != 0 {
		t.Errorf("authors = %d, want 0", n)
	}
}

func TestListBookDetails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	py := seedCategory(t, s, "Python", "python")
	goCat := seedCategory(t, s, "Go", "go")
	u := seedUser(t, s, "ada@example.com")

	createBook(t, s, "Fluent Python", py.ID, u.ID)
	createBook(t, s, "Automate the Boring Stuff", py.ID, u.ID)
	createBook(t, s, "The Go Programming Language", goCat.ID, u.ID)

	books, err := s.ListBookDetails(ctx, py.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 python books, got %d", len(books))
	}
	if books[0].Book.Title != "Automate the Boring Stuff" || books[1].Book.Title != "Fluent Python" {
		t.Errorf("unexpected order: %q, %q", books[0].Book.Title, books[1].Book.Title)
	}
	for _, d := range books {
		if d.Category.ID != py.ID || d.Author.LastName != "Newport" {
			t.Errorf("unexpected detail: %+v", d)
		}
	}

	empty := seedCategory(t, s, "Rust", "rust")
	none, err := s.ListBookDetails(ctx, empty.ID)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no books, got %d", len(none))
	}
}

func TestUpdateBookWithAuthor_OnlySuppliedFieldsChange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	py := seedCategory(t, s, "Python", "python")
	u := seedUser(t, s, "ada@example.com")
	b, _ := createBook(t, s, "Deep Work", py.ID, u.ID)

	before, err := s.GetBookDetail(ctx, b.Slug)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := s.UpdateBookWithAuthor(ctx, b.ID, store.BookChanges{Summary: ptr("Rules for focused success.")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	after, err := s.GetBookDetail(ctx, b.Slug)
	if err != nil {
		t.Fatal(err)
	}

	want := *before
	want.Book.Summary = "Rules for focused success."
	if !reflect.DeepEqual(*after, want) {
		t.Errorf("unexpected change:\n got  %+v\n want %+v", *after, want)
	}
	if updated.Summary != "Rules for focused success." || updated.Slug != "deep-work" {
		t.Errorf("unexpected returned book: %+v", updated)
	}
}

func TestUpdateBookWithAuthor_TitleCategoryAndAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	py := seedCategory(t, s, "Python", "python")
	goCat := seedCategory(t, s, "Go", "go")
	u := seedUser(t, s, "ada@example.com")
	b, _ := createBook(t, s, "Deep Work", py.ID, u.ID)
	createBook(t, s, "Digital Minimalism", py.ID, u.ID)

	updated, err := s.UpdateBookWithAuthor(ctx, b.ID, store.BookChanges{
		Title:          ptr("Digital Minimalism"),
		Slug:           ptr("digital-minimalism"),
		CategoryID:     ptr(goCat.ID),
		AuthorLastName: ptr("Newport Jr."),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Slug != "digital-minimalism-2" {
		t.Errorf("slug = %q, want digital-minimalism-2", updated.Slug)
	}
	if updated.UserID != u.ID {
		t.Errorf("owner changed to %d", updated.UserID)
	}

	d, err := s.GetBookDetail(ctx, updated.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if d.Category.Slug != "go" || d.Author.FirstName != "Cal" || d.Author.LastName != "Newport Jr." {
		t.Errorf("unexpected detail: %+v", d)
	}

	// Re-saving the same title keeps the slug rather than colliding with itself.
	again, err := s.UpdateBookWithAuthor(ctx, b.ID, store.BookChanges{Slug: ptr("digital-minimalism-2")})
	if err != nil {
		t.Fatal(err)
	}
	if again.Slug != "digital-minimalism-2" {
		t.Errorf("slug changed on no-op edit: %q", again.Slug)
	}
}

func TestUpdateBookWithAuthor_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdateBookWithAuthor(context.Background(), 404, store.BookChanges{Title: ptr("x")})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBookWithAuthor_UnknownCategoryRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	py := seedCategory(t, s, "Python", "python")
	b, _ := createBook(t, s, "Deep Work", py.ID, 0)

	_, err := s.UpdateBookWithAuthor(ctx, b.ID, store.BookChanges{
		CategoryID:      ptr(int64(999)),
		AuthorFirstName: ptr("Changed"),
	})
	if !errors.Is(err, store.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}

	d, err := s.GetBookDetail(ctx, b.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if d.Category.ID != py.ID || d.Author.FirstName != "Cal" {
		t.Errorf("partial update leaked: %+v", d)
	}
}

func TestDeleteBookWithAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	py := seedCategory(t, s, "Python", "python")
	u := seedUser(t, s, "ada@example.com")
	b, _ := createBook(t, s, "Deep Work", py.ID, u.ID)
	keep, _ := createBook(t, s, "Fluent Python", py.ID, u.ID)

	if err := s.DeleteBookWithAuthor(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := s.GetBookBySlug(ctx, "deep-work"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("book still present: %v", err)
	}

	var orphans int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM authors WHERE book_id = ?`, b.ID).Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Errorf("author of deleted book survived")
	}
	if n := countRows(t, s, "authors"); n != 1 {
		t.Errorf("authors = %d, want 1", n)
	}
	if _, err := s.GetBookBySlug(ctx, keep.Slug); err != nil {
		t.Errorf("other book affected: %v", err)
	}

	if err := s.DeleteBookWithAuthor(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
