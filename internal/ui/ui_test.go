package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkawower/walld/internal/daemon"
)

func TestNewOutput(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)

	require.NotNil(t, o)
	assert.Equal(t, &buf, o.w)
}

func TestOutput_color(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)

	t.Run("with color", func(t *testing.T) {
		result := o.color(Green, "test")
		assert.Contains(t, result, Green)
		assert.Contains(t, result, Reset)
		assert.Contains(t, result, "test")
	})

	t.Run("without color", func(t *testing.T) {
		o.SetNoColor(true)
		result := o.color(Green, "test")
		assert.Equal(t, "test", result)
		assert.NotContains(t, result, Green)
	})
}

func TestOutput_Success(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)

	o.Success("Schedule set to %d%s", 30, "m")
	assert.Contains(t, buf.String(), SymbolSuccess)
	assert.Contains(t, buf.String(), "Schedule set to 30m")
}

func TestOutput_Success_Quiet(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)
	o.SetQuiet(true)

	o.Success("Schedule set")
	assert.Empty(t, buf.String())
}

func TestOutput_Error_NotQuiet(t *testing.T) {
	// Errors show even in quiet mode
	var buf bytes.Buffer
	o := NewOutput(&buf)
	o.SetQuiet(true)

	o.Error("Daemon unreachable")
	assert.Contains(t, buf.String(), "Daemon unreachable")
}

func TestOutput_ErrorWithHint(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)

	o.ErrorWithHint("Cannot reach daemon", "Start it with 'walld run'")
	assert.Contains(t, buf.String(), SymbolError)
	assert.Contains(t, buf.String(), "Cannot reach daemon")
	assert.Contains(t, buf.String(), "Hint:")
	assert.Contains(t, buf.String(), "Start it with 'walld run'")
}

func TestOutput_Warning(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)

	o.Warning("Interface already active")
	assert.Contains(t, buf.String(), SymbolWarning)
	assert.Contains(t, buf.String(), "Interface already active")
}

func TestOutput_Info(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)

	o.Info("Rotation paused")
	assert.Contains(t, buf.String(), SymbolInfo)
	assert.Contains(t, buf.String(), "Rotation paused")
}

func TestOutput_Print(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)

	o.Print("walld version %s", "0.1.0")
	assert.Contains(t, buf.String(), "walld version 0.1.0")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestOutput_Field(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)

	o.Field("Current", "/home/user/pics/a.png")
	assert.Contains(t, buf.String(), "Current:")
	assert.Contains(t, buf.String(), "/home/user/pics/a.png")
}

func TestOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)

	headers := []string{"Name", "Value"}
	rows := [][]string{
		{"Row1", "Val1"},
		{"Row2", "Val2"},
	}

	o.Table(headers, rows)

	output := buf.String()
	assert.Contains(t, output, "Name")
	assert.Contains(t, output, "Row1")
	assert.Contains(t, output, "Val2")
	assert.Contains(t, output, "---")
}

func TestOutput_InterfaceTable(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)
	o.SetNoColor(true)

	o.InterfaceTable([]daemon.InterfaceInfo{
		{Name: "swww", Variables: []daemon.VariableInfo{
			{Name: "transition", Value: "grow"},
			{Name: "step", Value: "90"},
		}},
		{Name: "hyprpanel"},
	})

	output := buf.String()
	assert.Contains(t, output, "swww")
	assert.Contains(t, output, "transition")
	assert.Contains(t, output, "grow")
	assert.Contains(t, output, "step")
	assert.Contains(t, output, "hyprpanel")

	// The interface name appears once, not per variable.
	assert.Equal(t, 1, strings.Count(output, "swww"))
}

func TestOutput_InterfaceTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)

	o.InterfaceTable(nil)
	assert.Contains(t, buf.String(), "No interfaces configured")
}

func TestOutput_Quiet_SuppressesListing(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)
	o.SetQuiet(true)

	o.InterfaceTable([]daemon.InterfaceInfo{{Name: "swww"}})
	o.Field("Current", "x")
	o.Print("y")
	assert.Empty(t, buf.String())
}
