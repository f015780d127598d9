// Package config holds the walld configuration model: the daemon schedule,
// the wallpaper file list and the external wallpaper-setting interfaces
// with their substitution variables and hooks.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnknownTimeUnits is returned for a units value outside {s, m, h}.
var ErrUnknownTimeUnits = errors.New("unknown time units")

// ConfigError describes an invalid configuration declaration.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Reason, e.Err)
	}
	return "config: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// Units is the time unit of the rotation schedule.
type Units string

const (
	UnitsSeconds Units = "s"
	UnitsMinutes Units = "m"
	UnitsHours   Units = "h"
)

// ParseUnits validates a units string.
func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case UnitsSeconds, UnitsMinutes, UnitsHours:
		return Units(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeUnits, s)
}

// Duration converts a schedule value in these units to a duration.
func (u Units) Duration(n int) (time.Duration, error) {
	switch u {
	case UnitsSeconds:
		return time.Duration(n) * time.Second, nil
	case UnitsMinutes:
		return time.Duration(n) * time.Minute, nil
	case UnitsHours:
		return time.Duration(n) * time.Hour, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTimeUnits, string(u))
}

// Substitution tokens. An argument token starting with SubstMarker names
// either the target image file (FileToken) or a declared variable.
const (
	SubstMarker = "%"
	FileToken   = "f"
)

// Interface is one external wallpaper-setting backend: a command argument
// template plus optional substitution variables and hook commands.
type Interface struct {
	Name      string
	Args      []string
	Variables map[string]Variable
	PreHook   [][]string
	PostHook  [][]string
}

// FormatArgs renders the main command for the given image file.
func (i *Interface) FormatArgs(imgFile string) []string {
	return i.substitute(i.Args, imgFile)
}

// FormatPreHooks renders the pre-hook commands for the given image file.
func (i *Interface) FormatPreHooks(imgFile string) [][]string {
	return i.substituteAll(i.PreHook, imgFile)
}

// FormatPostHooks renders the post-hook commands for the given image file.
func (i *Interface) FormatPostHooks(imgFile string) [][]string {
	return i.substituteAll(i.PostHook, imgFile)
}

// substitute expands one token list. Unmarked tokens pass through
// literally; %f becomes the image file; %name becomes the stringified
// variable value; unrecognized marked tokens are dropped.
func (i *Interface) substitute(tokens []string, imgFile string) []string {
	result := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !strings.HasPrefix(tok, SubstMarker) {
			result = append(result, tok)
			continue
		}
		name := tok[len(SubstMarker):]
		if name == FileToken {
			result = append(result, imgFile)
			continue
		}
		if v, ok := i.Variables[name]; ok {
			result = append(result, fmt.Sprintf("%v", v.Value()))
		}
	}
	return result
}

func (i *Interface) substituteAll(commands [][]string, imgFile string) [][]string {
	result := make([][]string, 0, len(commands))
	for _, cmd := range commands {
		result = append(result, i.substitute(cmd, imgFile))
	}
	return result
}

// Config is one immutable-per-load configuration snapshot.
type Config struct {
	Schedule int
	Units    Units
	Shuffle  bool
	Files    []string
	Ifaces   []Interface

	// ActiveIfaces indexes Ifaces in activation order. Every index is
	// valid and no index appears twice.
	ActiveIfaces []int
}

// Default returns the configuration used when a section is absent.
func Default() *Config {
	return &Config{
		Schedule: 1,
		Units:    UnitsHours,
		Shuffle:  true,
	}
}

// Interval returns the effective rotation interval.
func (c *Config) Interval() (time.Duration, error) {
	return c.Units.Duration(c.Schedule)
}

// FindInterface returns the index of the named interface, or -1.
func (c *Config) FindInterface(name string) int {
	for i := range c.Ifaces {
		if c.Ifaces[i].Name == name {
			return i
		}
	}
	return -1
}

// IsActive reports whether the interface index is currently active.
func (c *Config) IsActive(index int) bool {
	for _, i := range c.ActiveIfaces {
		if i == index {
			return true
		}
	}
	return false
}

// Validate checks the cross-field invariants of a built configuration.
func (c *Config) Validate() error {
	seen := make(map[int]bool, len(c.ActiveIfaces))
	for _, idx := range c.ActiveIfaces {
		if idx < 0 || idx >= len(c.Ifaces) {
			return configErrorf("active interface index %d out of range", idx)
		}
		if seen[idx] {
			return configErrorf("active interface index %d listed twice", idx)
		}
		seen[idx] = true
	}
	if _, err := ParseUnits(string(c.Units)); err != nil {
		return &ConfigError{Reason: "invalid units", Err: err}
	}
	return nil
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "walld", "config.toml")
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
