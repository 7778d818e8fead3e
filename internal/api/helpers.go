package api

import (
	"encoding/json"
	"net/http"

	"github.com/awbooks/awbooks-server/internal/domain"
	domainerrors "github.com/awbooks/awbooks-server/internal/errors"
	"github.com/awbooks/awbooks-server/internal/service"
	"github.com/awbooks/awbooks-server/internal/session"
	"github.com/awbooks/awbooks-server/internal/validation"
	"github.com/awbooks/awbooks-server/internal/view"
)

// maxFormBytes bounds book form bodies.
const maxFormBytes = 64 << 10

// bookFormFields are the form inputs shared by the new and edit pages.
var bookFormFields = []string{"title", "category", "year", "link", "coverUrl", "summary", "isbn", "authorFName", "authorLName"}

func sessionOf(r *http.Request) *domain.WebSession {
	return session.FromContext(r.Context())
}

// page starts the data for a rendered page and takes the pending flashes.
func (s *Server) page(r *http.Request) *view.Page {
	sess := sessionOf(r)
	p := &view.Page{Session: sess}
	if sess != nil {
		p.Flashes = sess.TakeFlashes()
	}
	return p
}

// render writes a page. A session whose flashes were just shown is saved
// first so they are not shown again.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p *view.Page) {
	if len(p.Flashes) > 0 && p.Session != nil {
		if err := s.sessions.Save(r.Context(), w, p.Session); err != nil {
			s.logger.Error("failed to save session", "error", err)
		}
	}
	s.views.Render(w, status, name, p)
}

// redirect saves the session and sends a 303 to target.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if sess := sessionOf(r); sess != nil {
		if err := s.sessions.Save(r.Context(), w, sess); err != nil {
			s.fail(w, r, domainerrors.Wrap(err, domainerrors.CodeInternal, "could not save session"))
			return
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// parseBookForm reads the book form. It returns the raw values as well so a
// rejected form can be shown again as submitted.
func parseBookForm(w http.ResponseWriter, r *http.Request) (service.EditBookRequest, map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return service.EditBookRequest{}, nil, domainerrors.Validation("the form could not be read")
	}

	values := make(map[string]string, len(bookFormFields))
	for _, f := range bookFormFields {
		values[f] = r.PostForm.Get(f)
	}

	return service.EditBookRequest{
		Title:           values["title"],
		Category:        values["category"],
		Year:            values["year"],
		Link:            values["link"],
		CoverURL:        values["coverUrl"],
		Summary:         values["summary"],
		ISBN:            values["isbn"],
		AuthorFirstName: values["authorFName"],
		AuthorLastName:  values["authorLName"],
	}, values, nil
}

// formFromBook pre-populates the edit form.
func formFromBook(d *domain.BookDetail) map[string]string {
	return map[string]string{
		"title":       d.Book.Title,
		"category":    d.Category.Name,
		"year":        d.Book.PublishYear,
		"link":        d.Book.Link,
		"coverUrl":    d.Book.CoverURL,
		"summary":     d.Book.Summary,
		"isbn":        d.Book.ISBN,
		"authorFName": d.Author.FirstName,
		"authorLName": d.Author.LastName,
	}
}

// fieldErrors extracts per-field validation messages, if err carries any.
func fieldErrors(err error) (validation.FieldErrors, bool) {
	var e *domainerrors.Error
	if !domainerrors.As(err, &e) || e.Code != domainerrors.CodeValidation {
		return nil, false
	}
	fe, _ := e.Details.(validation.FieldErrors)
	return fe, true
}

// writeJSONError writes err as an APIError body outside of huma.
func writeJSONError(w http.ResponseWriter, err *domainerrors.Error) {
	body := newAPIError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.status)
	_ = json.NewEncoder(w).Encode(body)
}
