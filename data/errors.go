package data

import (
	"errors"
	"fmt"
)

// Standard errors that readers, backends and the parser use.
var (
	// Parse and command errors, one per ErrorKind
	ErrUnknownCommand  = errors.New("cmdparse: unknown command")
	ErrParseFailed     = errors.New("cmdparse: parse failed")
	ErrBadArgCount     = errors.New("cmdparse: bad argument count")
	ErrObjectNotFound  = errors.New("cmdparse: object not found")
	ErrMultipleMatches = errors.New("cmdparse: multiple matches")
	ErrException       = errors.New("cmdparse: exception")
	ErrUnsuccessful    = errors.New("cmdparse: unsuccessful")

	// Signature errors
	ErrInvalidSignature = errors.New("cmdparse: invalid command signature")
	ErrDuplicateCommand = errors.New("cmdparse: command already registered")
	ErrMissingReader    = errors.New("cmdparse: no type reader for parameter")
	ErrReaderMismatch   = errors.New("cmdparse: type reader produces another type")

	// Backend errors
	ErrNotExist     = errors.New("cmdparse: entity does not exist")
	ErrExist        = errors.New("cmdparse: entity already exists")
	ErrInvalid      = errors.New("cmdparse: invalid argument")
	ErrBackendOpen  = errors.New("cmdparse: backend initialization failed")
	ErrBackendClose = errors.New("cmdparse: backend is closed")
)

// CommandError is the failure reported by a parse or command execution.
type CommandError struct {
	Kind   ErrorKind
	Reason string
	// Parameter names the declared parameter the failure is attributed to, if any.
	Parameter string
	// Fallbacks holds soft failures recorded for the same token before it failed
	// against a mandatory parameter.
	Fallbacks []*CommandError
}

func (e *CommandError) Error() string {
	if e.Parameter != "" {
		return fmt.Sprintf("%s: %s (parameter '%s')", e.Kind, e.Reason, e.Parameter)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap returns the sentinel error of the failure kind, so that
// errors.Is(err, ErrBadArgCount) works on any CommandError.
func (e *CommandError) Unwrap() error {
	return e.Kind.Err()
}

func NewCommandError(kind ErrorKind, format string, args ...any) *CommandError {
	return &CommandError{
		Kind:   kind,
		Reason: fmt.Sprintf(format, args...),
	}
}

// FromResult converts a failed reader result into a CommandError attributed to param.
func FromResult(result TypeReaderResult, param string) *CommandError {
	kind := result.Error
	if kind == ErrorNone {
		kind = ErrorUnsuccessful
	}

	return &CommandError{
		Kind:      kind,
		Reason:    result.Reason,
		Parameter: param,
	}
}
