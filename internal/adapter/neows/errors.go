package neows

import (
	"errors"
	"fmt"
)

// TransientError marks a failure worth retrying: a network error, HTTP 429,
// or a 5xx response.
type TransientError struct {
	Status int // 0 for network errors
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient API error %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient request error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// FatalError marks any other non-2xx response. It is never retried.
type FatalError struct {
	Status int
	Body   string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
