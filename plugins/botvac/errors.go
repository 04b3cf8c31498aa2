package botvac

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyIdentifier = errors.New("botvac: username is required")
	ErrEmptySecret     = errors.New("botvac: password is required")
	ErrNoRobots        = errors.New("no robots returned")
	ErrMissingCommands = errors.New("state has no available commands")
)

// AuthError is returned when authorization fails. Transport failures and
// rejected credentials are not distinguished; inspect the cause via Unwrap.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authenticate: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NoDeviceError is returned when no robot could be resolved.
type NoDeviceError struct {
	Err error
}

func (e *NoDeviceError) Error() string {
	return fmt.Sprintf("resolve device: %v", e.Err)
}

func (e *NoDeviceError) Unwrap() error { return e.Err }

// StateError is returned when a robot's state could not be read.
type StateError struct {
	Device string
	Err    error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s didn't return states: %v", e.Device, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

// CannotStartError is returned when neither start nor resume is available.
type CannotStartError struct {
	Device string
	State  DeviceState
}

func (e *CannotStartError) Error() string {
	return fmt.Sprintf("%s cannot start or resume", e.Device)
}

// PauseError is returned when the pause that precedes docking fails.
type PauseError struct {
	Device string
	Err    error
}

func (e *PauseError) Error() string {
	return fmt.Sprintf("%s could not pause: %v", e.Device, e.Err)
}

func (e *PauseError) Unwrap() error { return e.Err }

// DockTimeoutError is returned when goToBase never became available.
type DockTimeoutError struct {
	Device   string
	Attempts int
	// LastErr is the failure of the last unsuccessful attempt, if any.
	LastErr error
}

func (e *DockTimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("%s could not dock after %d tries (last error: %v)", e.Device, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("%s could not dock after %d tries", e.Device, e.Attempts)
}

func (e *DockTimeoutError) Unwrap() error { return e.LastErr }

// CannotReturnError is returned when goToBase is not available.
type CannotReturnError struct {
	Device string
	State  DeviceState
}

func (e *CannotReturnError) Error() string {
	return fmt.Sprintf("%s cannot return to base", e.Device)
}

// CommandError is returned when the robot rejected an issued command.
type CommandError struct {
	Device  string
	Command Command
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Device, e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// CanceledError is returned when the caller's context ends while waiting
// for the robot to become dockable.
type CanceledError struct {
	Device   string
	Phase    Phase
	Attempts int
	Err      error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("%s dock canceled while %s after %d tries: %v", e.Device, e.Phase, e.Attempts, e.Err)
}

func (e *CanceledError) Unwrap() error { return e.Err }

// Outcome classifies an operation error for metrics and transport mapping.
// The outermost failure wins: a dock timeout caused by state errors is a
// dock timeout.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		authErr     *AuthError
		noDevErr    *NoDeviceError
		stateErr    *StateError
		startErr    *CannotStartError
		pauseErr    *PauseError
		timeoutErr  *DockTimeoutError
		returnErr   *CannotReturnError
		commandErr  *CommandError
		canceledErr *CanceledError
	)
	switch {
	case errors.As(err, &canceledErr):
		return "canceled"
	case errors.As(err, &timeoutErr):
		return "dock_timeout"
	case errors.As(err, &pauseErr):
		return "pause_error"
	case errors.As(err, &commandErr):
		return "command_error"
	case errors.As(err, &startErr):
		return "cannot_start"
	case errors.As(err, &returnErr):
		return "cannot_return"
	case errors.As(err, &stateErr):
		return "state_error"
	case errors.As(err, &noDevErr):
		return "no_device"
	case errors.As(err, &authErr):
		return "auth_error"
	default:
		return "error"
	}
}
