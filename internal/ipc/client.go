package ipc

import (
	"fmt"
	"net"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/darkawower/walld/internal/daemon"
)

const dialTimeout = 2 * time.Second

// Client talks to a running daemon over its unix socket.
type Client struct {
	socketPath string
}

// NewClient creates a client for the given socket path.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// call performs one request/response exchange. out may be nil when the
// caller discards the result.
func (c *Client) call(method string, params any, out any) error {
	conn, err := net.DialTimeout("unix", c.socketPath, dialTimeout)
	if err != nil {
		return fmt.Errorf("cannot reach daemon at %s: %w", c.socketPath, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connDeadline))

	req := Request{Method: method}
	if params != nil {
		raw, err := jsoniter.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
		req.Params = raw
	}

	if err := jsoniter.NewEncoder(conn).Encode(&req); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := jsoniter.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out != nil {
		if err := jsoniter.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}
	return nil
}

// SetSchedule sets the rotation schedule to schedule * units.
func (c *Client) SetSchedule(schedule int, units string) (string, error) {
	var res string
	err := c.call(MethodSetSchedule, scheduleParams{Schedule: schedule, Units: units}, &res)
	return res, err
}

// SetFiles replaces the wallpaper file list.
func (c *Client) SetFiles(files []string) (string, error) {
	var res string
	err := c.call(MethodSetFiles, filesParams{Files: files}, &res)
	return res, err
}

// SetShuffle toggles shuffle mode.
func (c *Client) SetShuffle(shuffle bool) (string, error) {
	var res string
	err := c.call(MethodSetShuffle, shuffleParams{Shuffle: shuffle}, &res)
	return res, err
}

// GetInterfaces lists every configured interface.
func (c *Client) GetInterfaces() ([]daemon.InterfaceInfo, error) {
	var res []daemon.InterfaceInfo
	err := c.call(MethodGetInterfaces, nil, &res)
	return res, err
}

// GetActiveInterfaces lists the active interfaces in activation order.
func (c *Client) GetActiveInterfaces() ([]daemon.InterfaceInfo, error) {
	var res []daemon.InterfaceInfo
	err := c.call(MethodGetActiveInterfaces, nil, &res)
	return res, err
}

// SetVariableValue assigns a new value to an interface variable.
func (c *Client) SetVariableValue(iface, variable, value string) (string, error) {
	var res string
	err := c.call(MethodSetVariableValue, variableParams{
		Interface: iface,
		Variable:  variable,
		Value:     value,
	}, &res)
	return res, err
}

// ActivateInterface adds the named interface to the active set.
func (c *Client) ActivateInterface(name string) (string, error) {
	var res string
	err := c.call(MethodActivateInterface, interfaceParams{Interface: name}, &res)
	return res, err
}

// DeactivateInterface removes the named interface from the active set.
func (c *Client) DeactivateInterface(name string) (string, error) {
	var res string
	err := c.call(MethodDeactivateInterface, interfaceParams{Interface: name}, &res)
	return res, err
}

// GetCurrentWallpaperFilename returns the last applied wallpaper path.
func (c *Client) GetCurrentWallpaperFilename() (string, error) {
	var res string
	err := c.call(MethodGetCurrentWallpaper, nil, &res)
	return res, err
}

// ForceWallpaperChange advances to the next wallpaper immediately.
func (c *Client) ForceWallpaperChange(noReset bool) (string, error) {
	var res string
	err := c.call(MethodForceWallpaperChange, changeParams{NoReset: noReset}, &res)
	return res, err
}

// Pause suspends the rotation timer, optionally auto-resuming after
// interval * units.
func (c *Client) Pause(interval int, units string) (string, error) {
	var res string
	err := c.call(MethodPause, scheduleParams{Schedule: interval, Units: units}, &res)
	return res, err
}

// Resume restarts a paused rotation timer.
func (c *Client) Resume() (string, error) {
	var res string
	err := c.call(MethodResume, nil, &res)
	return res, err
}
