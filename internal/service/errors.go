package service

import (
	"github.com/awbooks/awbooks-server/internal/errors"
	"github.com/awbooks/awbooks-server/internal/store"
)

// storeError maps a persistence failure onto the domain taxonomy.
// notFound is returned when the record is missing.
func storeError(err error, notFound *errors.Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound
	case errors.Is(err, store.ErrInvalidReference), errors.Is(err, store.ErrInvalidInput):
		return errors.Wrap(err, errors.CodeValidation, "the submitted values were rejected")
	}

	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return errors.Wrap(err, errors.CodeInternal, "store failure")
}
