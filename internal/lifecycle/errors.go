package lifecycle

import "fmt"

// FormatError reports malformed snapshot text, an unsupported format
// version, or a missing data section. It is always raised before the first
// write reaches the store.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot format: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("snapshot format: %s", e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// FetchError reports a read failure during export or the reset backup step.
// It aborts the enclosing operation; a reset treats it as a hard stop with
// zero deletions.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError reports a batch-commit or delete failure. Remaining work is
// abandoned; effects already committed are not rolled back.
type WriteError struct {
	Collection string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Collection, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
