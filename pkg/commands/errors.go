package commands

import (
	"errors"
	"fmt"
)

var (
	// ErrCommandNotFound is returned by Dispatch for names with no definition
	ErrCommandNotFound = errors.New("command not found")
	// ErrDuplicateCommand is returned when registering a name twice
	ErrDuplicateCommand = errors.New("command already registered")
	// ErrInvalidOption indicates a missing or malformed command option
	ErrInvalidOption = errors.New("invalid option")
)

// NotFoundError reports an unknown command name along with the closest
// registered name, if any.
type NotFoundError struct {
	Name       string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("command not found: %s (did you mean %s?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("command not found: %s", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrCommandNotFound
}

// OptionError reports a command option that is missing or has the wrong type.
type OptionError struct {
	Command string
	Option  string
	Message string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s: option %s: %s", e.Command, e.Option, e.Message)
}

func (e *OptionError) Unwrap() error {
	return ErrInvalidOption
}
