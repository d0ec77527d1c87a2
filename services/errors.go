package services

import (
	"errors"
)

var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrExtractionFailed = errors.New("extraction failed")
	ErrFormatNotFound   = errors.New("format not found")
	ErrUpstream         = errors.New("upstream streaming failure")
)

// RequestError is a failure that is reported to the client as {"error": Message}.
type RequestError struct {
	Kind    error
	Message string
	Err     error
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newRequestError(kind error, message string, cause error) *RequestError {
	return &RequestError{Kind: kind, Message: message, Err: cause}
}

// MissingParameter reports a required request field that is absent or unusable.
func MissingParameter(message string) *RequestError {
	return newRequestError(ErrMissingParameter, message, nil)
}
