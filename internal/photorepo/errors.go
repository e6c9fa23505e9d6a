package photorepo

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v66/github"
)

// Failure classes for remote calls. Test them with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")
	ErrNetwork       = errors.New("network failure")
	ErrRemote        = errors.New("remote error")
)

// RemoteError records which operation failed and how.
type RemoteError struct {
	Op     string
	Status int
	Kind   error
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %v (HTTP %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// classify wraps an error from go-github into a RemoteError.
func classify(op string, resp *github.Response, err error) error {
	if err == nil {
		return nil
	}
	status := 0
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		status = ghErr.Response.StatusCode
	} else if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	return &RemoteError{Op: op, Status: status, Kind: kindOf(status), Err: err}
}

func kindOf(status int) error {
	switch {
	case status == 0:
		return ErrNetwork
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusUnprocessableEntity:
		return ErrAlreadyExists
	default:
		return ErrRemote
	}
}
