package core

import "net/http"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// APIError is a non-2xx response from the backend. Message carries the
// server-provided error verbatim when the response had one.
type APIError struct {
	StatusCode int
	Message    string
}

func NewAPIError(code int, msg string) *APIError {
	return &APIError{StatusCode: code, Message: msg}
}

func (err *APIError) Error() string {
	if err.Message != "" {
		return err.Message
	}
	return http.StatusText(err.StatusCode)
}
