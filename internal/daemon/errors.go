package daemon

import (
	"errors"

	"github.com/darkawower/walld/internal/config"
	"github.com/darkawower/walld/internal/rotation"
	"github.com/darkawower/walld/internal/timer"
)

// Named failures returned to RPC callers. Every validation error is one
// of these (or a config/timer/rotation sentinel), never a generic error.
var (
	ErrNotRunning           = errors.New("daemon is not running")
	ErrNoValidFiles         = errors.New("no valid files were provided")
	ErrInvalidInterfaceName = errors.New("invalid interface name")
	ErrVariableNotFound     = errors.New("variable does not exist")
	ErrVariableTypeMismatch = errors.New("variable type mismatch")
	ErrVariableConstraint   = errors.New("variable constraint violation")
)

// ErrorName maps a controller error to its stable RPC failure name.
// Unrecognized errors map to "InternalError".
func ErrorName(err error) string {
	switch {
	case errors.Is(err, ErrNotRunning):
		return "NotRunning"
	case errors.Is(err, timer.ErrInvalidInterval):
		return "InvalidInterval"
	case errors.Is(err, config.ErrUnknownTimeUnits):
		return "UnknownTimeUnits"
	case errors.Is(err, rotation.ErrNoFiles):
		return "NoFilesProvided"
	case errors.Is(err, ErrNoValidFiles):
		return "NoValidFilesProvided"
	case errors.Is(err, ErrInvalidInterfaceName):
		return "InvalidInterfaceName"
	case errors.Is(err, ErrVariableNotFound):
		return "VariableDoesNotExist"
	case errors.Is(err, ErrVariableTypeMismatch):
		return "VariableTypeMismatch"
	case errors.Is(err, ErrVariableConstraint):
		return "VariableConstraintViolation"
	}
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		return "ConfigError"
	}
	return "InternalError"
}
