package model

import (
	"errors"
	"fmt"
)

var ErrDisallowed = errors.New("disallowed by robots.txt")

// FetchError reports a request that failed after all retry attempts.
// StatusCode is zero when no HTTP response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseStructureError reports that a page lacks the element a parser expects.
type ParseStructureError struct {
	URL      string
	Selector string
}

func (e *ParseStructureError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("no element matching %q", e.Selector)
	}
	return fmt.Sprintf("page %s has no element matching %q", e.URL, e.Selector)
}

// InputMissingError reports a missing or malformed URL map file.
type InputMissingError struct {
	Path string
	Err  error
}

func (e *InputMissingError) Error() string {
	return fmt.Sprintf("url map %s is missing or invalid (%v); run `crawler collect` first", e.Path, e.Err)
}

func (e *InputMissingError) Unwrap() error { return e.Err }

// ValueNormalizationWarning records a nutrient cell without a numeric token.
// The field is stored as 0.
type ValueNormalizationWarning struct {
	URL   string
	Field Nutrient
	Raw   string
}

func (w ValueNormalizationWarning) Error() string {
	return fmt.Sprintf("%s: value %q for %s is not numeric, using 0", w.URL, w.Raw, w.Field)
}
