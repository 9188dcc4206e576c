package unidb

import "fmt"

// ValidationError is returned before any request is issued when a required
// field (the entry id) is missing.
type ValidationError struct {
	Op    string
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s is required", e.Op, e.Field)
}

// RemoteError reports a non-200 answer from the table store.
// Body is kept for diagnostics only.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: error %d: %s", e.Op, e.StatusCode, e.Body)
}
