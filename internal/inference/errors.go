package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrNoJSON means the generated text contained no decodable JSON object.
	ErrNoJSON = errors.New("no JSON object in model output")

	// ErrNoChoices means the endpoint answered 2xx but returned no completions.
	ErrNoChoices = errors.New("no choices in completion response")
)

// TransientError wraps a failure worth retrying: connection errors, timeouts,
// and 5xx responses from the endpoint.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient inference error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// RequestError is a non-2xx application failure. Retrying would burn the
// timeout budget without changing the outcome, so it propagates immediately.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("inference endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
