package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTimeout means the remote did not answer within the per-request deadline.
var ErrTimeout = errors.New("remote request timed out")

// ErrUnavailable means the remote could not be reached at all.
var ErrUnavailable = errors.New("remote unavailable")

// ErrMalformedResponse means the remote answered with a body we could not decode.
var ErrMalformedResponse = errors.New("malformed remote response")

// StatusError represents a non-2xx answer from the remote.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote error: HTTP %d: %s", e.StatusCode, e.Body)
}

// classify maps transport errors onto ErrTimeout or ErrUnavailable while
// keeping the original error in the chain. Cancellation by the caller is
// returned unchanged.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == 429
	}
	return false
}
