package domain

import (
	"errors"
	"fmt"
)

// RemoteError describes a non-2xx response from an external collaborator.
// The response body is carried so failures can be diagnosed without
// re-running.
type RemoteError struct {
	Component string
	Op        string
	Status    int
	Body      string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s returned %d: %s", e.Component, e.Op, e.Status, e.Body)
}

// IsRemoteRejected reports whether err is a non-2xx rejection from a remote.
func IsRemoteRejected(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
