package openrouter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
)

// Sentinel errors for the API failures callers handle specifically.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	return e.err
}

// Is matches the sentinel errors by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

func wrapErr(op string, err error) error {
	ae := &openai.Error{}
	if errors.As(err, &ae) {
		return &APIError{
			Op:         op,
			StatusCode: ae.StatusCode,
			Message:    ae.Message,
			err:        err,
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
