package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSourceUnavailable         = errors.New("source unavailable")
	ErrSchemaMismatch            = errors.New("schema mismatch")
	ErrInvalidLabel              = errors.New("invalid sentiment label")
	ErrClassificationUnavailable = errors.New("classification unavailable")
)

// SourceError reports a failed read from a named external source. It matches
// ErrSourceUnavailable and its cause under errors.Is.
type SourceError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *SourceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s unavailable (status %d): %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSourceUnavailable}
	}
	return []error{ErrSourceUnavailable, e.Err}
}

// Unavailable wraps err as a SourceError for source.
func Unavailable(source string, statusCode int, err error) error {
	return &SourceError{Source: source, StatusCode: statusCode, Err: err}
}
