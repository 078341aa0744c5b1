package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openrouter-inspector/openrouter-inspector/internal/catalog"
	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
)

// newUserErrorf is a user-facing error.
// this function is mostly to avoid linters complain about errors starting with a capitalized letter.
func newUserErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// inspectorError is a wrapper around an error that adds additional context.
type inspectorError struct {
	err    error
	reason string
}

func (m inspectorError) Error() string {
	return m.err.Error()
}

func (m inspectorError) Reason() string {
	return m.reason
}

func (m inspectorError) Unwrap() error {
	return m.err
}

// exitError ends the program with a status and no message.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var errMissingAPIKey = errors.New("missing api key")

// explainError turns API and lookup failures into user-facing errors.
func explainError(err error) error {
	if err == nil {
		return nil
	}
	var (
		ierr inspectorError
		ferr flagParseError
		xerr exitError
	)
	if errors.As(err, &ierr) || errors.As(err, &ferr) || errors.As(err, &xerr) {
		return err
	}
	// flag groups are validated after parsing, so SetFlagErrorFunc never sees them.
	if strings.HasPrefix(err.Error(), "if any flags in the group") {
		return newFlagParseError(err)
	}

	var (
		nf *catalog.NotFoundError
		no *catalog.NoOffersError
		am *catalog.AmbiguousError
		ae *openrouter.APIError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &no), errors.As(err, &am):
		return inspectorError{err: err, reason: "Could not resolve the model."}
	case errors.Is(err, errMissingAPIKey):
		return inspectorError{
			err:    newUserErrorf("OPENROUTER_API_KEY is required. Set it in your environment and try again."),
			reason: "Missing API key.",
		}
	case errors.Is(err, openrouter.ErrUnauthorized):
		return inspectorError{err: err, reason: "Invalid OpenRouter API key."}
	case errors.Is(err, openrouter.ErrRateLimited):
		return inspectorError{err: err, reason: "You’ve hit the OpenRouter API rate limit."}
	case errors.Is(err, openrouter.ErrNotFound):
		return inspectorError{err: err, reason: "Not found on OpenRouter."}
	case errors.As(err, &ae):
		return inspectorError{err: err, reason: "OpenRouter API request error."}
	default:
		return inspectorError{err: err, reason: "There was a problem with the OpenRouter API request."}
	}
}
