package limiter

import (
	"errors"
	"fmt"
)

// InvalidRequestError là lỗi client (4xx ngoài rate limit), không retry
type InvalidRequestError struct {
	StatusCode int
	Url        string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: status %d for %s", e.StatusCode, e.Url)
}

// TransientFailureError là lỗi mạng/5xx sau khi đã retry hết số lần cho phép
type TransientFailureError struct {
	Attempts int
	Url      string
	Err      error
}

func (e *TransientFailureError) Error() string {
	return fmt.Sprintf("transient failure after %d attempts for %s: %v", e.Attempts, e.Url, e.Err)
}

func (e *TransientFailureError) Unwrap() error {
	return e.Err
}

func IsInvalidRequest(err error) bool {
	var target *InvalidRequestError
	return errors.As(err, &target)
}

func IsTransientFailure(err error) bool {
	var target *TransientFailureError
	return errors.As(err, &target)
}
