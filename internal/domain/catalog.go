// Package domain holds the catalog entities: users, categories, books and
// their authors, plus the browser session that ties a visitor to a user.
package domain

// User is a contributor, created on first login and never modified.
type User struct {
	ID      int64
	Name    string
	Email   string
	Picture string
}

// Category groups books. Categories are seeded, not user-created.
type Category struct {
	ID          int64
	Name        string
	IconURL     string
	Description string
	Slug        string
}

// Book is owned by the user who created it. UserID never changes.
type Book struct {
	ID          int64
	Title       string
	Summary     string
	PublishYear string
	Link        string
	CoverURL    string
	ISBN        string
	CategoryID  int64
	UserID      int64
	Slug        string
}

// Author is the single author record of a book; it lives and dies with it.
type Author struct {
	ID        int64
	BookID    int64
	FirstName string
	LastName  string
}

// FullName joins first and last name.
func (a Author) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}

// BookDetail is a book with its author and category.
type BookDetail struct {
	Book     Book
	Author   Author
	Category Category
}

// BookJSON is the public JSON form of a book.
type BookJSON struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	PublishYear string `json:"publish_year"`
	Link        string `json:"link"`
	CoverURL    string `json:"cover_url"`
	ISBN        string `json:"isbn"`
}

// AuthorJSON is the public JSON form of an author.
type AuthorJSON struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CategoryJSON is the public JSON form of a category.
type CategoryJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BookDocument is the JSON document for a single book.
type BookDocument struct {
	Book     BookJSON     `json:"Book"`
	Author   AuthorJSON   `json:"Author"`
	Category CategoryJSON `json:"Category"`
}

// CategoryDocument is the JSON document listing a category's books.
type CategoryDocument struct {
	Books []BookDocument `json:"Books"`
}

// Serialize returns the public form of the book.
func (b Book) Serialize() BookJSON {
	return BookJSON{
		Title:       b.Title,
		Summary:     b.Summary,
		PublishYear: b.PublishYear,
		Link:        b.Link,
		CoverURL:    b.CoverURL,
		ISBN:        b.ISBN,
	}
}

// Serialize returns the public form of the author.
func (a Author) Serialize() AuthorJSON {
	return AuthorJSON{FirstName: a.FirstName, LastName: a.LastName}
}

// Serialize returns the public form of the category.
func (c Category) Serialize() CategoryJSON {
	return CategoryJSON{Name: c.Name, Description: c.Description}
}

// Document returns the single-book JSON document.
func (d BookDetail) Document() BookDocument {
	return BookDocument{
		Book:     d.Book.Serialize(),
		Author:   d.Author.Serialize(),
		Category: d.Category.Serialize(),
	}
}

// NewCategoryDocument builds the listing document. An empty category
// yields an empty (non-nil) list.
func NewCategoryDocument(details []BookDetail) CategoryDocument {
	doc := CategoryDocument{Books: make([]BookDocument, 0, len(details))}
	for _, d := range details {
		doc.Books = append(doc.Books, d.Document())
	}
	return doc
}
