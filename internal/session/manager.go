package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/awbooks/awbooks-server/internal/auth"
	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/id"
)

// Backend is where session contents live.
type Backend interface {
	Get(ctx context.Context, id string) (*domain.WebSession, error)
	Save(ctx context.Context, sess *domain.WebSession) error
	Delete(ctx context.Context, id string) error
}

// Options configures the session cookie.
type Options struct {
	CookieName string
	Duration   time.Duration
	Secure     bool
}

// Manager loads the session named by a request's cookie and writes it back.
type Manager struct {
	backend Backend
	sealer  *auth.CookieSealer
	opts    Options
	logger  *slog.Logger
}

// NewManager creates a session manager.
func NewManager(backend Backend, sealer *auth.CookieSealer, opts Options, logger *slog.Logger) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "awbooks_session"
	}
	if opts.Duration <= 0 {
		opts.Duration = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{backend: backend, sealer: sealer, opts: opts, logger: logger}
}

// Load returns the request's session, or a fresh unsaved one when the
// cookie is missing, forged, expired or points at a dropped session.
func (m *Manager) Load(r *http.Request) (*domain.WebSession, error) {
	if c, err := r.Cookie(m.opts.CookieName); err == nil {
		sid, err := m.sealer.Open(c.Value)
		if err == nil {
			sess, err := m.backend.Get(r.Context(), sid)
			if err == nil {
				return sess, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		} else {
			m.logger.Debug("discarding session cookie", "error", err)
		}
	}
	return m.New()
}

// New creates an empty session that is not yet persisted.
func (m *Manager) New() (*domain.WebSession, error) {
	sid, err := id.Generate("sess")
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &domain.WebSession{
		ID:        sid,
		CreatedAt: now,
		ExpiresAt: now.Add(m.opts.Duration),
	}, nil
}

// Save persists the session, extends its lifetime and sets the cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *domain.WebSession) error {
	sess.ExpiresAt = time.Now().Add(m.opts.Duration)
	if err := m.backend.Save(ctx, sess); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    m.sealer.Seal(sess.ID, sess.ExpiresAt),
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.opts.Duration.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Rotate moves sess to a fresh id and drops the record under the old one.
// Call it when the session gains a login so a cookie planted before login
// does not end up authenticated. The caller saves sess afterwards.
func (m *Manager) Rotate(ctx context.Context, sess *domain.WebSession) error {
	sid, err := id.Generate("sess")
	if err != nil {
		return err
	}
	old := sess.ID
	sess.ID = sid
	if err := m.backend.Delete(ctx, old); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

type contextKey struct{}

// Middleware loads the session for every request and stores it in the
// request context for the handlers. Handlers that change it call Save.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Load(r)
		if err != nil {
			m.logger.Error("failed to load session", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess *domain.WebSession) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored by Middleware, or nil.
func FromContext(ctx context.Context) *domain.WebSession {
	sess, _ := ctx.Value(contextKey{}).(*domain.WebSession)
	return sess
}
