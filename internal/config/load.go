package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// rawConfig mirrors the top-level TOML sections. Interface and hook
// tables are kept as primitives because their values are polymorphic
// (bare token lists vs. verbose tables, single commands vs. command
// lists).
type rawConfig struct {
	Daemon    rawDaemon                 `toml:"Daemon"`
	Ifaces    map[string]toml.Primitive `toml:"Interfaces"`
	PreHooks  map[string]toml.Primitive `toml:"PreHooks"`
	PostHooks map[string]toml.Primitive `toml:"PostHooks"`
}

type rawDaemon struct {
	Schedule         *int     `toml:"schedule"`
	Units            *string  `toml:"units"`
	Shuffle          *bool    `toml:"shuffle"`
	Path             string   `toml:"path"`
	Recursive        bool     `toml:"recursive"`
	ActiveInterfaces []string `toml:"active_interfaces"`
}

type rawIface struct {
	Args      []string                  `toml:"args"`
	Variables map[string]toml.Primitive `toml:"variables"`
	PreHook   toml.Primitive            `toml:"pre_hook"`
	PostHook  toml.Primitive            `toml:"post_hook"`
}

// Load parses the configuration file at path and builds a validated
// Config snapshot.
func Load(path string) (*Config, error) {
	path = expandPath(path)

	if info, err := os.Stat(path); err != nil {
		return nil, configErrorf("given path %s does not exist", path)
	} else if info.IsDir() {
		return nil, configErrorf("given path is not a file: %s", path)
	}

	var raw rawConfig
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, &ConfigError{Reason: "failed to parse config file", Err: err}
	}

	cfg := Default()

	if err := applyIfaces(cfg, md, raw.Ifaces); err != nil {
		return nil, err
	}
	if err := applyGlobalHooks(cfg, md, "PreHooks", raw.PreHooks); err != nil {
		return nil, err
	}
	if err := applyGlobalHooks(cfg, md, "PostHooks", raw.PostHooks); err != nil {
		return nil, err
	}
	if err := applyDaemonSettings(cfg, raw.Daemon); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ifaceOrder extracts the sub-keys of a section in file order, so the
// parsed interface list preserves the declaration order.
func ifaceOrder(md toml.MetaData, section string) []string {
	var names []string
	for _, key := range md.Keys() {
		if len(key) == 2 && key[0] == section {
			names = append(names, key[1])
		}
	}
	return names
}

func applyIfaces(cfg *Config, md toml.MetaData, ifaces map[string]toml.Primitive) error {
	for _, name := range ifaceOrder(md, "Interfaces") {
		prim, ok := ifaces[name]
		if !ok {
			continue
		}

		// Bare form: the value is just the argument token list.
		var bare []string
		if err := md.PrimitiveDecode(prim, &bare); err == nil {
			cfg.Ifaces = append(cfg.Ifaces, Interface{Name: name, Args: bare})
			continue
		}

		var verbose rawIface
		if err := md.PrimitiveDecode(prim, &verbose); err != nil {
			return &ConfigError{Reason: "invalid interface declaration " + name, Err: err}
		}
		if len(verbose.Args) == 0 {
			return configErrorf("verbose interface declaration %q requires an `args` field", name)
		}

		variables := make(map[string]Variable, len(verbose.Variables))
		for varName, varPrim := range verbose.Variables {
			v, err := decodeVariable(md, varName, varPrim)
			if err != nil {
				return err
			}
			variables[varName] = v
		}

		var preHook, postHook [][]string
		if md.IsDefined("Interfaces", name, "pre_hook") {
			hooks, err := decodeHooks(md, verbose.PreHook)
			if err != nil {
				return &ConfigError{Reason: "invalid pre_hook for interface " + name, Err: err}
			}
			preHook = hooks
		}
		if md.IsDefined("Interfaces", name, "post_hook") {
			hooks, err := decodeHooks(md, verbose.PostHook)
			if err != nil {
				return &ConfigError{Reason: "invalid post_hook for interface " + name, Err: err}
			}
			postHook = hooks
		}

		cfg.Ifaces = append(cfg.Ifaces, Interface{
			Name:      name,
			Args:      verbose.Args,
			Variables: variables,
			PreHook:   preHook,
			PostHook:  postHook,
		})
	}
	return nil
}

// decodeVariable builds a Variable from its TOML declaration. A scalar
// value declares a Constant; a table declares either a scalar variable
// (`value`, optional `const`) or an enumeration (`current` + `options`).
func decodeVariable(md toml.MetaData, name string, prim toml.Primitive) (Variable, error) {
	var table map[string]any
	if err := md.PrimitiveDecode(prim, &table); err != nil {
		var scalar any
		if err := md.PrimitiveDecode(prim, &scalar); err != nil {
			return nil, &ConfigError{Reason: "invalid variable declaration " + name, Err: err}
		}
		return &Constant{Val: scalar}, nil
	}

	current, hasCurrent := table["current"]
	if !hasCurrent {
		value, hasValue := table["value"]
		if !hasValue {
			return nil, configErrorf("verbose variable declaration %q lacks either a `value` field or a `current` field", name)
		}
		if isConst, _ := table["const"].(bool); isConst {
			return &Constant{Val: value}, nil
		}
		return &Mutable{Val: value}, nil
	}

	if _, hasConst := table["const"]; hasConst {
		return nil, configErrorf("enum variable %q cannot be declared constant", name)
	}
	options, ok := table["options"].([]any)
	if !ok {
		return nil, configErrorf("enum variable %q expected to have an `options` list", name)
	}
	return &Enumeration{Name: name, Current: current, Options: options}, nil
}

// decodeHooks normalizes a hook declaration: a flat token list is one
// command, a list of lists is several.
func decodeHooks(md toml.MetaData, prim toml.Primitive) ([][]string, error) {
	var many [][]string
	if err := md.PrimitiveDecode(prim, &many); err == nil {
		return many, nil
	}

	var single []string
	if err := md.PrimitiveDecode(prim, &single); err != nil {
		return nil, err
	}
	if len(single) == 0 {
		return nil, nil
	}
	return [][]string{single}, nil
}

// applyGlobalHooks merges the [PreHooks]/[PostHooks] sections onto the
// already-parsed interfaces, in file order. The wildcard name "*"
// targets every interface; unknown names are skipped.
func applyGlobalHooks(cfg *Config, md toml.MetaData, section string, hooks map[string]toml.Primitive) error {
	if len(hooks) == 0 {
		return nil
	}
	for _, name := range ifaceOrder(md, section) {
		prim, ok := hooks[name]
		if !ok {
			continue
		}
		commands, err := decodeHooks(md, prim)
		if err != nil {
			return &ConfigError{Reason: "invalid hook declaration for " + name, Err: err}
		}
		if len(commands) == 0 {
			continue
		}
		for i := range cfg.Ifaces {
			if name != "*" && cfg.Ifaces[i].Name != name {
				continue
			}
			if section == "PostHooks" {
				cfg.Ifaces[i].PostHook = append(cfg.Ifaces[i].PostHook, commands...)
			} else {
				cfg.Ifaces[i].PreHook = append(cfg.Ifaces[i].PreHook, commands...)
			}
		}
	}
	return nil
}

func applyDaemonSettings(cfg *Config, daemon rawDaemon) error {
	if daemon.Schedule != nil {
		cfg.Schedule = *daemon.Schedule
	}
	if daemon.Units != nil {
		units, err := ParseUnits(*daemon.Units)
		if err != nil {
			return &ConfigError{Reason: "invalid units value", Err: err}
		}
		cfg.Units = units
	}
	if daemon.Shuffle != nil {
		cfg.Shuffle = *daemon.Shuffle
	}

	if daemon.Path != "" {
		files, err := ResolveFiles(daemon.Path, daemon.Recursive)
		if err != nil {
			return err
		}
		cfg.Files = files
	}

	cfg.ActiveIfaces = mapActiveIfaces(daemon.ActiveInterfaces, cfg.Ifaces)
	return nil
}

// mapActiveIfaces resolves active interface names to indices, keeping
// the relative order of the interface declarations rather than the
// order of the name list.
func mapActiveIfaces(names []string, ifaces []Interface) []int {
	if len(names) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var result []int
	for i := range ifaces {
		if wanted[ifaces[i].Name] {
			result = append(result, i)
		}
	}
	return result
}
