package auth

import (
	"github.com/awbooks/awbooks-server/internal/domain"
	"github.com/awbooks/awbooks-server/internal/errors"
)

// RequireActive fails with Unauthorized unless the session is logged in.
func RequireActive(sess *domain.WebSession) error {
	if !sess.IsActive() {
		return errors.Unauthorized("you must be logged in to do that")
	}
	return nil
}

// RequireOwner fails unless the session is logged in as the book's owner.
// An anonymous caller gets Unauthorized, a different user Forbidden.
func RequireOwner(sess *domain.WebSession, book *domain.Book) error {
	if err := RequireActive(sess); err != nil {
		return err
	}
	if book == nil || book.UserID != sess.UserID {
		return errors.Forbidden("only the contributor of this book can change it")
	}
	return nil
}
