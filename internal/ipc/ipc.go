// Package ipc carries the daemon's operation surface over a unix
// domain socket. Each connection holds exactly one JSON request and
// one JSON response.
package ipc

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SocketName is the daemon socket filename.
const SocketName = "walld.sock"

// Request is one operation call.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response carries either a result or an error, never both.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *CallError      `json:"error,omitempty"`
}

// CallError is an operation failure with its taxonomy name.
type CallError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *CallError) Error() string {
	return e.Name + ": " + e.Message
}

// Operation methods.
const (
	MethodSetSchedule          = "SetSchedule"
	MethodSetFiles             = "SetFiles"
	MethodSetShuffle           = "SetShuffle"
	MethodGetInterfaces        = "GetInterfaces"
	MethodGetActiveInterfaces  = "GetActiveInterfaces"
	MethodSetVariableValue     = "SetVariableValue"
	MethodActivateInterface    = "ActivateInterface"
	MethodDeactivateInterface  = "DeactivateInterface"
	MethodGetCurrentWallpaper  = "GetCurrentWallpaperFilename"
	MethodForceWallpaperChange = "ForceWallpaperChange"
	MethodPause                = "Pause"
	MethodResume               = "Resume"
)

type scheduleParams struct {
	Schedule int    `json:"schedule"`
	Units    string `json:"units"`
}

type filesParams struct {
	Files []string `json:"files"`
}

type shuffleParams struct {
	Shuffle bool `json:"shuffle"`
}

type variableParams struct {
	Interface string `json:"interface"`
	Variable  string `json:"variable"`
	Value     string `json:"value"`
}

type interfaceParams struct {
	Interface string `json:"interface"`
}

type changeParams struct {
	NoReset bool `json:"no_reset"`
}

// SocketPath is where the daemon listens. Prefers the user runtime
// directory, falls back to the system temp directory.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, SocketName)
	}
	return filepath.Join(os.TempDir(), SocketName)
}
