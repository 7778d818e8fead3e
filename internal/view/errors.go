package view

import (
	"github.com/awbooks/awbooks-server/internal/errors"
)

// ErrorView is what the error page shows.
type ErrorView struct {
	Code    string
	Status  int
	Header  string
	Message string
}

var headers = map[errors.Code]string{
	errors.CodeNotFound:       "Not Found",
	errors.CodeUnauthorized:   "Login Required",
	errors.CodeForbidden:      "Not Your Book",
	errors.CodeInvalidSession: "Invalid Session",
	errors.CodeInvalidIssuer:  "Invalid Issuer",
	errors.CodeValidation:     "Invalid Input",
	errors.CodeUnavailable:    "Login Unavailable",
	errors.CodeInternal:       "Something Went Wrong",
}

var defaultMessages = map[errors.Code]string{
	errors.CodeUnauthorized:   "You need to log in to do that.",
	errors.CodeForbidden:      "Only the person who added this book can change it.",
	errors.CodeInvalidSession: "Your login session did not match. Please try again.",
	errors.CodeInvalidIssuer:  "The identity provider did not accept your login.",
	errors.CodeUnavailable:    "We could not reach the identity provider. Please try again later.",
	errors.CodeInternal:       "Something went wrong on our side.",
}

// ErrorFor maps err onto a page. Only the code decides the status and
// header; internal messages are never shown.
func ErrorFor(err error) ErrorView {
	code := errors.CodeOf(err)
	ev := ErrorView{
		Code:    string(code),
		Status:  code.HTTPStatus(),
		Header:  headers[code],
		Message: defaultMessages[code],
	}

	var e *errors.Error
	switch code {
	case errors.CodeNotFound, errors.CodeValidation:
		if errors.As(err, &e) {
			ev.Message = e.Message
		}
	}
	if ev.Header == "" {
		ev.Header = headers[errors.CodeInternal]
	}
	return ev
}
