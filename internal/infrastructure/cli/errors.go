package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/domain"
)

// ErrNotInitialized is returned by commands that need a .teampulse directory.
var ErrNotInitialized = errors.New("no .teampulse directory found")

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrNoOrganization):
		return NewCLIError("no organization configured", "Run 'teampulse init --org <id>' or set organization_id in .teampulse/config.yaml", err)
	case errors.Is(err, ErrNotInitialized):
		return NewCLIError("workspace not initialized", "Run 'teampulse init --org <id>' first", err)
	case errors.Is(err, application.ErrAlreadyInitialized):
		return NewCLIError("workspace already initialized", "Edit .teampulse/config.yaml to change settings", err)
	case errors.Is(err, domain.ErrTaskNotFound):
		return NewCLIError("task not found", "Run 'teampulse analytics team' to list pending work", err)
	case errors.Is(err, application.ErrEmptySelection):
		return NewCLIError("no tasks selected", "Pass --task <id> or --all", err)
	case errors.Is(err, application.ErrUnassignedSource):
		return NewCLIError("unassigned tasks cannot be moved in bulk", "Pass a member with --from", err)
	case errors.Is(err, application.ErrTargetNotAllowed):
		return NewCLIError("target member cannot receive tasks", "Run 'teampulse members list' to see roles", err)
	}

	return err
}
