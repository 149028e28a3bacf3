package attrtypes

import "errors"

// Error taxonomy from spec.md §7. NotFound is absorbed by the Collector
// and never surfaced from the public operations; the others short-circuit
// a query.
var (
	ErrInvalidArgument = errors.New("attrcore: invalid argument")
	ErrNotFound        = errors.New("attrcore: not found")
	ErrIO              = errors.New("attrcore: io error")
	ErrCancelled       = errors.New("attrcore: cancelled")
)

// CallbackAbortedError wraps a non-nil error returned by a ForEach
// callback, carrying it back to the caller as the walk's result.
type CallbackAbortedError struct {
	Err error
}

func (e *CallbackAbortedError) Error() string {
	return "attrcore: callback aborted: " + e.Err.Error()
}

func (e *CallbackAbortedError) Unwrap() error {
	return e.Err
}
