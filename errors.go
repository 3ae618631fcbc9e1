package apidocs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrTimeout is matched by fetch and render errors caused by an expired
// step deadline.
var ErrTimeout = errors.New("timed out")

// FetchErrorKind tells apart the ways the fetch step can fail.
type FetchErrorKind string

const (
	FetchNetwork FetchErrorKind = "network"
	FetchStatus  FetchErrorKind = "status"
	FetchTimeout FetchErrorKind = "timeout"
	FetchWrite   FetchErrorKind = "write"
)

// FetchError is returned by Fetch. StatusCode and Status are only set for
// FetchStatus.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchStatus:
		return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
	case FetchTimeout:
		return fmt.Sprintf("GET %s: %s: %v", e.URL, ErrTimeout, e.Err)
	case FetchWrite:
		return fmt.Sprintf("writing document from %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrTimeout && e.Kind == FetchTimeout
}

// RenderErrorKind tells apart a renderer that could not run, one that
// exited non-zero, and one that was stopped by the render deadline.
type RenderErrorKind string

const (
	RenderStart   RenderErrorKind = "start"
	RenderExit    RenderErrorKind = "exit"
	RenderTimeout RenderErrorKind = "timeout"
)

// RenderError is returned by Render. ExitCode is meaningful for RenderExit.
type RenderError struct {
	Kind     RenderErrorKind
	Argv     []string
	ExitCode int
	Err      error
}

func (e *RenderError) Error() string {
	command := strings.Join(e.Argv, " ")
	switch e.Kind {
	case RenderExit:
		return fmt.Sprintf("%s: exit status %d", command, e.ExitCode)
	case RenderTimeout:
		return fmt.Sprintf("%s: %s: %v", command, ErrTimeout, e.Err)
	default:
		return fmt.Sprintf("%s: %v", command, e.Err)
	}
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func (e *RenderError) Is(target error) bool {
	return target == ErrTimeout && e.Kind == RenderTimeout
}

// ExitStatus carries the process exit code chosen for a finished command.
type ExitStatus struct {
	Code int
	Err  error
}

func (e *ExitStatus) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitStatus) Unwrap() error {
	return e.Err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
