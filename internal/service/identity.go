package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"unicode/utf8"

	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/errors"
	"github.com/awbooks/awbooks-server/internal/id"
	"github.com/awbooks/awbooks-server/internal/identity"
	"github.com/awbooks/awbooks-server/internal/store"
)

// maxUserName matches the users.name column limit.
const maxUserName = 64

// IdentityService links identity-provider logins to local users.
type IdentityService struct {
	store    store.Store
	verifier identity.Verifier
	logger   *slog.Logger
}

// NewIdentityService creates the identity linker.
func NewIdentityService(st store.Store, verifier identity.Verifier, logger *slog.Logger) *IdentityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{store: st, verifier: verifier, logger: logger}
}

// BeginLogin stores a fresh anti-forgery state in the session and returns it.
func (s *IdentityService) BeginLogin(sess *domain.WebSession) (string, error) {
	state, err := id.State()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "could not start login")
	}
	sess.State = state
	return state, nil
}

// Connect completes a login:
//  1. state must equal the session's pending state, else InvalidSession
//     and nothing else happens;
//  2. the token is verified once with the provider;
//  3. the claims are copied into the session;
//  4. the user with the claimed email is found or created;
//  5. the session is stamped with the user id.
func (s *IdentityService) Connect(ctx context.Context, sess *domain.WebSession, state, idToken string) (*domain.User, error) {
	if sess == nil || sess.State == "" || subtle.ConstantTimeCompare([]byte(state), []byte(sess.State)) != 1 {
		return nil, errors.InvalidSession("invalid state parameter")
	}

	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		var domainErr *errors.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CodeUnavailable, "identity verification failed")
	}

	sess.Username = claims.Name
	sess.Email = claims.Email
	sess.Picture = claims.Picture
	sess.ExternalID = claims.Subject

	user, err := s.linkUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	sess.UserID = user.ID
	sess.State = ""

	s.logger.Info("user logged in", "user_id", user.ID, "external_id", claims.Subject)
	return user, nil
}

// Disconnect clears every authentication field of the session. It reports
// whether the session had been logged in.
func (s *IdentityService) Disconnect(sess *domain.WebSession) bool {
	if sess == nil {
		return false
	}
	wasActive := sess.IsActive()
	if wasActive {
		s.logger.Info("user logged out", "user_id", sess.UserID)
	}
	sess.ClearIdentity()
	return wasActive
}

// linkUser returns the user for the claimed email, creating it on first
// login. A concurrent first login for the same email loses the insert race
// and picks up the winner's row.
func (s *IdentityService) linkUser(ctx context.Context, claims *identity.Claims) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, claims.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeError(err, errors.NotFound("user lookup failed"))
	}

	user = &domain.User{
		Name:    truncateRunes(claims.Name, maxUserName),
		Email:   claims.Email,
		Picture: claims.Picture,
	}
	err = s.store.CreateUser(ctx, user)
	if errors.Is(err, store.ErrAlreadyExists) {
		user, err = s.store.GetUserByEmail(ctx, claims.Email)
	}
	if err != nil {
		return nil, storeError(err, errors.NotFound("user lookup failed"))
	}

	s.logger.Info("user created", "user_id", user.ID)
	return user, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
