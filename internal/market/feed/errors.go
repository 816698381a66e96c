package feed

import (
	"errors"
	"fmt"
)

// ErrDisconnected is returned by Next when the transport closed.
var ErrDisconnected = errors.New("feed disconnected")

// ErrNotConnected is returned by Next before Connect succeeded.
var ErrNotConnected = errors.New("feed not connected")

// ConnectionError is a transient failure to establish the transport.
type ConnectionError struct {
	Source  string
	Attempt int
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s (attempt %d): %v", e.Source, e.Attempt, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
