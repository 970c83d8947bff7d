package transcode

import (
	"errors"
	"fmt"
)

var ErrProbe = errors.New("probe failed")

// ExitError is a helper process that ran and exited non-zero.
type ExitError struct {
	Binary string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Binary, e.Code, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Binary, e.Code)
}

// SpawnError is a helper process that could not be started.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// EncodeError is a failed encoder run.
type EncodeError struct {
	ExitCode int
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("error converting video: encoder exited with code %d", e.ExitCode)
}

func (e *EncodeError) Unwrap() error { return e.Err }
