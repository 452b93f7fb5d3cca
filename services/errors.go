package services

import (
	"errors"
	"fmt"
)

// ErrNoData signals a definitive miss: the provider is unconfigured, the
// symbol is unknown to it, or the response carried no usable price. The
// resolution chain moves on to the next provider without logging a failure.
var ErrNoData = errors.New("no quote data available")

// TransientError wraps a recoverable provider failure: network errors,
// non-200 responses, and malformed payloads. The resolution chain treats
// these the same as ErrNoData (advance to the next provider) but logs them.
type TransientError struct {
	Provider string
	Op       string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// transientErr builds a TransientError for a provider operation.
func transientErr(provider, op string, err error) *TransientError {
	return &TransientError{Provider: provider, Op: op, Err: err}
}
