package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidID        = errors.New("invalid ID")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrLocked           = errors.New("backlog is locked")
	ErrCannotMove       = errors.New("cannot move")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MoveError represents a sequence mutation that the dependency graph rejects
type MoveError struct {
	TaskID string
	Target string
	Reason string
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("cannot move %s to %s: %s", e.TaskID, e.Target, e.Reason)
}

func (e *MoveError) Is(target error) bool {
	return target == ErrCannotMove
}
