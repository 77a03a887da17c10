package transport

import (
	"errors"
	"fmt"
)

// ErrOffline is returned for reads attempted while offline with no cached
// value to fall back on.
var ErrOffline = errors.New("offline and no cached value")

// ServerRejection is a 4xx response. It is terminal: the request is never
// retried and the server-provided reason is surfaced to the caller.
type ServerRejection struct {
	Status int
	Reason string
}

func (e *ServerRejection) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.Status, e.Reason)
}

// TransportError is a request that failed after exhausting every retry.
type TransportError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
