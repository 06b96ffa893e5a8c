package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

// ParamError reports a missing or invalid intent parameter. No external
// call is made once one is raised.
type ParamError struct {
	Param   string
	Message string
}

func (e *ParamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Missing required parameter: %s", e.Param)
}

func missing(param string) error {
	return &ParamError{Param: param}
}

func invalid(param string, err error) error {
	return &ParamError{Param: param, Message: fmt.Sprintf("Invalid %s: %v", param, err)}
}

// notFoundError carries a user-facing message and matches domain.ErrNotFound.
type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == domain.ErrNotFound }

func profileNotFound(raw string) error {
	return &notFoundError{msg: fmt.Sprintf("No profile found for %q", raw)}
}

func activityNotFound(kind domain.ActivityType, id string) error {
	return &notFoundError{msg: fmt.Sprintf("No %s found with id %q", kind, id)}
}

// failureMessage renders err for the envelope.
func failureMessage(intent string, err error) string {
	var (
		paramErr *ParamError
		nf       *notFoundError
	)
	switch {
	case errors.As(err, &paramErr):
		return paramErr.Error()
	case errors.As(err, &nf):
		return nf.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%s timed out before any data source answered", intent)
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("%s was cancelled", intent)
	case errors.Is(err, domain.ErrNotFound):
		return "No data found"
	default:
		return fmt.Sprintf("%s failed: %v", intent, err)
	}
}
