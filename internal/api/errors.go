package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/awbooks/awbooks-server/internal/errors"
	"github.com/awbooks/awbooks-server/internal/view"
)

// APIError is the JSON error body. It implements huma.StatusError.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return newAPIError(domainErr)
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

func newAPIError(e *domainerrors.Error) *APIError {
	msg := e.Message
	if e.Code == domainerrors.CodeInternal {
		msg = "internal error"
	}
	return &APIError{
		status:  e.HTTPStatus(),
		Code:    string(e.Code),
		Message: msg,
		Details: e.Details,
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusBadGateway:
		return string(domainerrors.CodeUnavailable)
	default:
		return string(domainerrors.CodeInternal)
	}
}

// fail renders the error page for err. Internal failures are logged with
// their cause since the page never shows it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if domainerrors.CodeOf(err) == domainerrors.CodeInternal {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "code", domainerrors.CodeOf(err), "error", err)
	}
	s.views.RenderError(w, &view.Page{Session: sessionOf(r)}, err)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if isJSONPath(r.URL.Path) {
		writeJSONError(w, domainerrors.NotFound("no such resource"))
		return
	}
	s.fail(w, r, domainerrors.NotFound("we could not find that page"))
}
