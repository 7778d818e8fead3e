package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/awbooks/awbooks-server/internal/auth"
	"github.com/awbooks/awbooks-server/internal/service"
	"github.com/awbooks/awbooks-server/internal/view"
)

// handleHome lists every category.
// GET /
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	cats, err := s.services.Catalog.ListCategories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p := s.page(r)
	p.Categories = cats
	s.render(w, r, http.StatusOK, view.PageHome, p)
}

// handleCategory lists the books of one category.
// GET /tech/{categorySlug}
func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	cat, books, err := s.services.Catalog.CategoryBooks(r.Context(), chi.URLParam(r, "categorySlug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p := s.page(r)
	p.Category = cat
	p.Books = books
	s.render(w, r, http.StatusOK, view.PageCategory, p)
}

// handleBook shows one book. The category segment is not used for lookup.
// GET /tech/{categorySlug}/{titleSlug}
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	d, err := s.services.Catalog.Book(r.Context(), chi.URLParam(r, "titleSlug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p := s.page(r)
	p.Book = d
	p.Owns = auth.RequireOwner(p.Session, &d.Book) == nil
	s.render(w, r, http.StatusOK, view.PageBook, p)
}

// handleNewForm shows the creation form.
// GET /new
func (s *Server) handleNewForm(w http.ResponseWriter, r *http.Request) {
	cats, err := s.services.Catalog.PrepareCreate(r.Context(), sessionOf(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p := s.page(r)
	p.Categories = cats
	p.Form = map[string]string{"category": r.URL.Query().Get("category")}
	s.render(w, r, http.StatusOK, view.PageNew, p)
}

// handleCreate files a new book owned by the session user.
// POST /new
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionOf(r)

	req, values, err := parseBookForm(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	d, err := s.services.Catalog.CreateBook(ctx, sess, service.CreateBookRequest(req))
	if err != nil {
		if fe, ok := fieldErrors(err); ok {
			cats, catErr := s.services.Catalog.ListCategories(ctx)
			if catErr != nil {
				s.fail(w, r, catErr)
				return
			}
			p := s.page(r)
			p.Categories = cats
			p.Form = values
			p.FieldErrors = fe
			s.render(w, r, http.StatusBadRequest, view.PageNew, p)
			return
		}
		s.fail(w, r, err)
		return
	}

	sess.Flash("New book created!")
	s.redirect(w, r, view.CategoryURL(d.Category.Slug))
}

// handleEditForm shows the edit form filled with the stored values.
// GET /tech/{categorySlug}/{titleSlug}/edit
func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	d, cats, err := s.services.Catalog.PrepareEdit(r.Context(), sessionOf(r), chi.URLParam(r, "titleSlug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p := s.page(r)
	p.Book = d
	p.Categories = cats
	p.Form = formFromBook(d)
	s.render(w, r, http.StatusOK, view.PageEdit, p)
}

// handleEdit applies the submitted changes and redirects to the book under
// its current category.
// POST /tech/{categorySlug}/{titleSlug}/edit
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionOf(r)
	titleSlug := chi.URLParam(r, "titleSlug")

	req, values, err := parseBookForm(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	d, err := s.services.Catalog.EditBook(ctx, sess, titleSlug, req)
	if err != nil {
		if fe, ok := fieldErrors(err); ok {
			current, cats, prepErr := s.services.Catalog.PrepareEdit(ctx, sess, titleSlug)
			if prepErr != nil {
				s.fail(w, r, prepErr)
				return
			}
			p := s.page(r)
			p.Book = current
			p.Categories = cats
			p.Form = values
			p.FieldErrors = fe
			s.render(w, r, http.StatusBadRequest, view.PageEdit, p)
			return
		}
		s.fail(w, r, err)
		return
	}

	sess.Flash("Book updated!")
	s.redirect(w, r, view.BookURL(d.Category.Slug, d.Book.Slug))
}

// handleDeleteConfirm asks before deleting. It never changes anything.
// GET /tech/{categorySlug}/{titleSlug}/delete
func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	d, err := s.services.Catalog.PrepareDelete(r.Context(), sessionOf(r), chi.URLParam(r, "titleSlug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p := s.page(r)
	p.Book = d
	s.render(w, r, http.StatusOK, view.PageDelete, p)
}

// handleDelete removes the book and its author.
// POST /tech/{categorySlug}/{titleSlug}/delete
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)
	d, err := s.services.Catalog.DeleteBook(r.Context(), sess, chi.URLParam(r, "titleSlug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sess.Flash("Book deleted!")
	s.redirect(w, r, view.CategoryURL(d.Category.Slug))
}
