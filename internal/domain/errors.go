package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("catalog: not found")
	ErrTimeout      = errors.New("catalog: upstream timeout")
	ErrTransport    = errors.New("catalog: upstream unreachable")
	ErrDecode       = errors.New("catalog: unparseable upstream payload")
	ErrInvalidInput = errors.New("catalog: invalid input")
)

// RemoteError is a non-retryable upstream failure: a non-200 status or a
// 200 whose envelope code is not "OK".
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("catalog: remote error %d: %s", e.Status, e.Body)
}

// IsRemote reports whether err carries an upstream-side failure.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
