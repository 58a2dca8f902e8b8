package model

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrStagingUnsupported is returned by a capability probe when the store
// refuses temporary relations. The scanner downgrades on it and never
// reports it.
var ErrStagingUnsupported = errors.New("temporary relations are not supported")

type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid --%s=%q: %s", e.Field, e.Value, e.Reason)
}

type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("content store unavailable (%s): %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// BatchError reports a batch fetch that failed after any configured retries.
type BatchError struct {
	Strategy StrategyKind
	Offset   int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s batch at offset %d failed: %v", e.Strategy, e.Offset, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
