package api

import (
	"io"
	"net/http"
	"strings"

	domainerrors "github.com/awbooks/awbooks-server/internal/errors"
	"github.com/awbooks/awbooks-server/internal/view"
)

// maxTokenBytes bounds the ID token body of /gconnect.
const maxTokenBytes = 16 << 10

// handleLogin issues a fresh anti-forgery state and shows the login page.
// GET /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)
	state, err := s.services.Identity.BeginLogin(sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p := s.page(r)
	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		s.fail(w, r, domainerrors.Wrap(err, domainerrors.CodeInternal, "could not save session"))
		return
	}

	p.State = state
	p.ClientID = s.opts.GoogleClientID
	s.views.Render(w, http.StatusOK, view.PageLogin, p)
}

// handleConnect links the identity token in the body to a local user.
// POST /gconnect?state=...
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBytes))
	if err != nil {
		s.fail(w, r, domainerrors.Validation("could not read the identity token"))
		return
	}
	token := strings.TrimSpace(string(body))

	user, err := s.services.Identity.Connect(r.Context(), sess, r.URL.Query().Get("state"), token)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.sessions.Rotate(r.Context(), sess); err != nil {
		s.fail(w, r, domainerrors.Wrap(err, domainerrors.CodeInternal, "could not rotate session"))
		return
	}

	name := sess.Username
	if name == "" {
		name = user.Email
	}
	sess.Flash("You are now logged in as " + name)
	s.redirect(w, r, "/")
}

// handleDisconnect clears the login from the session.
// GET /disconnect
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)
	if s.services.Identity.Disconnect(sess) {
		sess.Flash("Successfully logged out.")
	} else {
		sess.Flash("You were not logged in.")
	}
	s.redirect(w, r, "/")
}
