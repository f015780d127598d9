package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/darkawower/walld/internal/config"
	"github.com/darkawower/walld/internal/rotation"
)

// Result strings shared with the original D-Bus surface.
const (
	ResultOK              = "OK"
	ResultIntervalZero    = "Given interval is zero."
	ResultAlreadyActive   = "Interface already active."
	ResultAlreadyInactive = "Interface already inactive."
	ResultNotYetSet       = "not yet set"
)

// VariableInfo is one mutable or enumeration variable in an interface
// listing; constants are omitted.
type VariableInfo struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InterfaceInfo is one interface in a listing.
type InterfaceInfo struct {
	Name      string         `json:"name"`
	Variables []VariableInfo `json:"variables,omitempty"`
}

// SetSchedule replaces the rotation schedule and re-arms the timer.
func (d *Daemon) SetSchedule(schedule int, units string) (string, error) {
	return invoke(d, func() (string, error) {
		u, err := config.ParseUnits(units)
		if err != nil {
			return "", err
		}
		return d.setSchedule(schedule, u)
	})
}

// setSchedule runs on the loop.
func (d *Daemon) setSchedule(schedule int, units config.Units) (string, error) {
	if d.tm != nil {
		d.tm.Stop()
		d.tm = nil
	}

	d.cfg.Schedule = schedule
	d.cfg.Units = units

	interval, err := units.Duration(schedule)
	if err != nil {
		return "", err
	}
	if interval <= 0 {
		return ResultIntervalZero, nil
	}
	if err := d.armTimer(interval); err != nil {
		return "", err
	}
	slog.Info("schedule set", "schedule", schedule, "units", string(units))
	return ResultOK, nil
}

// SetFiles replaces the wallpaper file list, filtering out paths that
// are missing, directories or not images.
func (d *Daemon) SetFiles(files []string) (string, error) {
	return invoke(d, func() (string, error) {
		if len(files) == 0 {
			return "", rotation.ErrNoFiles
		}

		valid := make([]string, 0, len(files))
		for _, f := range files {
			if config.VerifyImage(f) {
				valid = append(valid, f)
			}
		}
		if len(valid) == 0 {
			return "", ErrNoValidFiles
		}

		d.cfg.Files = valid
		d.rot.SetFiles(valid)
		return ResultOK, nil
	})
}

// SetShuffle toggles shuffle mode.
func (d *Daemon) SetShuffle(shuffle bool) (string, error) {
	return invoke(d, func() (string, error) {
		d.cfg.Shuffle = shuffle
		d.rot.SetShuffle(shuffle)
		return ResultOK, nil
	})
}

// GetInterfaces lists every configured interface with its mutable and
// enumeration variables.
func (d *Daemon) GetInterfaces() ([]InterfaceInfo, error) {
	return invoke(d, func() ([]InterfaceInfo, error) {
		infos := make([]InterfaceInfo, 0, len(d.cfg.Ifaces))
		for i := range d.cfg.Ifaces {
			infos = append(infos, ifaceInfo(&d.cfg.Ifaces[i]))
		}
		return infos, nil
	})
}

// GetActiveInterfaces lists the active interfaces in activation order.
func (d *Daemon) GetActiveInterfaces() ([]InterfaceInfo, error) {
	return invoke(d, func() ([]InterfaceInfo, error) {
		infos := make([]InterfaceInfo, 0, len(d.cfg.ActiveIfaces))
		for _, idx := range d.cfg.ActiveIfaces {
			infos = append(infos, ifaceInfo(&d.cfg.Ifaces[idx]))
		}
		return infos, nil
	})
}

func ifaceInfo(iface *config.Interface) InterfaceInfo {
	info := InterfaceInfo{Name: iface.Name}
	for name, v := range iface.Variables {
		if v.Kind() == config.VarConstant {
			continue
		}
		info.Variables = append(info.Variables, VariableInfo{
			Name:  name,
			Value: fmt.Sprintf("%v", v.Value()),
		})
	}
	sort.Slice(info.Variables, func(i, j int) bool {
		return info.Variables[i].Name < info.Variables[j].Name
	})
	return info
}

// SetVariableValue coerces value through the variable's current runtime
// type and assigns it.
func (d *Daemon) SetVariableValue(ifaceName, varName, value string) (string, error) {
	return invoke(d, func() (string, error) {
		idx := d.cfg.FindInterface(ifaceName)
		if idx < 0 {
			return "", ErrInvalidInterfaceName
		}

		v, ok := d.cfg.Ifaces[idx].Variables[varName]
		if !ok || v.Kind() == config.VarConstant {
			// Constants are invisible to the RPC surface.
			return "", fmt.Errorf("%w: %s", ErrVariableNotFound, varName)
		}

		coerced, err := coerceValue(v.Value(), value)
		if err != nil {
			return "", err
		}
		if err := v.SetValue(coerced); err != nil {
			switch {
			case errors.Is(err, config.ErrTypeMismatch):
				return "", fmt.Errorf("%w: %v", ErrVariableTypeMismatch, err)
			case errors.Is(err, config.ErrNotAnOption):
				return "", fmt.Errorf("%w: %v", ErrVariableConstraint, err)
			}
			return "", err
		}
		return ResultOK, nil
	})
}

// coerceValue constructs a value of the same runtime type as cur from
// the string input. Booleans accept exactly {true,false,on,off,1,0,
// yes,no} case-insensitively.
func coerceValue(cur any, s string) (any, error) {
	switch cur.(type) {
	case string:
		return s, nil
	case bool:
		switch strings.ToLower(s) {
		case "true", "on", "1", "yes":
			return true, nil
		case "false", "off", "0", "no":
			return false, nil
		}
		return nil, fmt.Errorf("%w: %q is not a boolean", ErrVariableTypeMismatch, s)
	case int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrVariableTypeMismatch, s)
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrVariableTypeMismatch, s)
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: unsupported variable type %T", ErrVariableTypeMismatch, cur)
}

// ActivateInterface appends the named interface to the active list.
func (d *Daemon) ActivateInterface(name string) (string, error) {
	return invoke(d, func() (string, error) {
		idx := d.cfg.FindInterface(name)
		if idx < 0 {
			return "", fmt.Errorf("%w: %s", ErrInvalidInterfaceName, name)
		}
		if d.cfg.IsActive(idx) {
			return ResultAlreadyActive, nil
		}
		d.cfg.ActiveIfaces = append(d.cfg.ActiveIfaces, idx)
		return ResultOK, nil
	})
}

// DeactivateInterface removes the named interface from the active list.
func (d *Daemon) DeactivateInterface(name string) (string, error) {
	return invoke(d, func() (string, error) {
		idx := d.cfg.FindInterface(name)
		if idx < 0 {
			return "", fmt.Errorf("%w: %s", ErrInvalidInterfaceName, name)
		}
		for i, active := range d.cfg.ActiveIfaces {
			if active == idx {
				d.cfg.ActiveIfaces = append(d.cfg.ActiveIfaces[:i], d.cfg.ActiveIfaces[i+1:]...)
				return ResultOK, nil
			}
		}
		return ResultAlreadyInactive, nil
	})
}

// GetCurrentWallpaperFilename returns the last successfully applied
// wallpaper path, or the "not yet set" sentinel.
func (d *Daemon) GetCurrentWallpaperFilename() (string, error) {
	return invoke(d, func() (string, error) {
		if path, ok := d.rot.Current(); ok {
			return path, nil
		}
		return ResultNotYetSet, nil
	})
}

// ForceWallpaperChange triggers an out-of-band rotation. Unless noReset
// is set, the timer restarts at the configured interval so the next
// scheduled change is a full interval away.
func (d *Daemon) ForceWallpaperChange(noReset bool) (string, error) {
	return invoke(d, func() (string, error) {
		d.rotate()
		if !noReset && d.cfg.Schedule > 0 {
			if interval, err := d.cfg.Interval(); err == nil {
				if err := d.armTimer(interval); err != nil {
					return "", err
				}
			}
		}
		return ResultOK, nil
	})
}

// Pause suspends the rotation timer. A positive interval schedules an
// automatic resume after interval×units.
func (d *Daemon) Pause(interval int, units string) (string, error) {
	return invoke(d, func() (string, error) {
		var resumeAfter time.Duration
		if interval > 0 {
			u, err := config.ParseUnits(units)
			if err != nil {
				return "", err
			}
			resumeAfter, err = u.Duration(interval)
			if err != nil {
				return "", err
			}
		}
		if d.tm != nil {
			d.tm.Pause(resumeAfter)
		}
		return ResultOK, nil
	})
}

// Resume restarts a paused rotation timer.
func (d *Daemon) Resume() (string, error) {
	return invoke(d, func() (string, error) {
		if d.tm != nil {
			d.tm.Resume()
		}
		return ResultOK, nil
	})
}
