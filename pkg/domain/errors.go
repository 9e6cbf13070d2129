package domain

import (
	"errors"
	"fmt"
)

// DataUnavailableError reports a required input table that could not be
// loaded. Callers degrade only the affected analysis category; the error is
// fatal only when no tables are loadable at all.
type DataUnavailableError struct {
	Table TableName
	Err   error
}

func (e DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("table %s unavailable: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("table %s unavailable", e.Table)
}

func (e DataUnavailableError) Unwrap() error { return e.Err }

// IsDataUnavailable reports whether err wraps a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var due DataUnavailableError
	return errors.As(err, &due)
}

// NotFoundError is returned when a keyed table lookup misses.
type NotFoundError struct {
	Table TableName
	ID    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Table, e.ID)
}

// NumericParseError reports a physical variable value that could not be
// coerced to a number. Isolated to the variable; other variables proceed.
type NumericParseError struct {
	Variable string
	Value    string
}

func (e NumericParseError) Error() string {
	return fmt.Sprintf("variable %s: cannot parse %q as numeric", e.Variable, e.Value)
}

// ErrInsufficientSamples marks fewer than two contributing samples for a
// comparison. Encoded as status "no_data" in results, never surfaced as a
// request failure.
var ErrInsufficientSamples = errors.New("fewer than 2 contributing samples")

// CacheWriteError reports a failed cache persistence attempt. The computed
// result is still returned to the caller; the entry is not considered valid.
type CacheWriteError struct {
	Key string
	Err error
}

func (e CacheWriteError) Error() string {
	return fmt.Sprintf("cache write %s: %v", e.Key, e.Err)
}

func (e CacheWriteError) Unwrap() error { return e.Err }
