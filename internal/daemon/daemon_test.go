package daemon

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/darkawower/walld/internal/config"
	"github.com/darkawower/walld/internal/pipeline"
	"github.com/darkawower/walld/internal/rotation"
	"github.com/darkawower/walld/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cmdRecorder captures the external commands a daemon pipeline would
// spawn and lets tests fail chosen executables.
type cmdRecorder struct {
	mu   sync.Mutex
	ran  [][]string
	fail map[string]error
}

func newCmdRecorder() *cmdRecorder {
	return &cmdRecorder{fail: map[string]error{}}
}

func (r *cmdRecorder) run(_ context.Context, argv []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, argv)
	return r.fail[argv[0]]
}

func (r *cmdRecorder) commands() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.ran))
	copy(out, r.ran)
	return out
}

func testDaemonConfig() *config.Config {
	return &config.Config{
		Schedule: 1,
		Units:    config.UnitsHours,
		Ifaces: []config.Interface{
			{
				Name: "swww",
				Args: []string{"swww", "img", "%f", "--transition-type", "%transition"},
				Variables: map[string]config.Variable{
					"transition": &config.Enumeration{
						Name:    "transition",
						Current: "grow",
						Options: []any{"grow", "wipe", "fade"},
					},
					"retries": &config.Mutable{Val: int64(3)},
					"tool":    &config.Constant{Val: "swww"},
				},
			},
			{Name: "hyprpanel", Args: []string{"hyprpanel", "setWallpaper", "%f"}},
		},
		ActiveIfaces: []int{0},
	}
}

// newTestDaemon starts a scheduling loop over an in-memory config with
// a fake process runner.
func newTestDaemon(t *testing.T, cfg *config.Config, rec *cmdRecorder) *Daemon {
	t.Helper()
	d := New("unused.toml")
	d.cfg = cfg
	d.rot.SetFiles(cfg.Files)
	d.rot.SetShuffle(cfg.Shuffle)
	d.exec = pipeline.NewExecutor().WithRunner(rec.run)
	d.running = true
	go d.loop()
	t.Cleanup(d.Stop)
	return d
}

func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return path
}

func TestOperations_NotRunning(t *testing.T) {
	d := New("unused.toml")
	d.cfg = testDaemonConfig()
	go d.loop()
	t.Cleanup(d.Stop)

	_, err := d.SetShuffle(true)
	assert.ErrorIs(t, err, ErrNotRunning)

	_, err = d.GetInterfaces()
	assert.ErrorIs(t, err, ErrNotRunning)

	assert.Equal(t, "NotRunning", ErrorName(err))
}

func TestSetSchedule(t *testing.T) {
	d := newTestDaemon(t, testDaemonConfig(), newCmdRecorder())

	res, err := d.SetSchedule(10, "m")
	require.NoError(t, err)
	assert.Equal(t, ResultOK, res)
	require.NotNil(t, d.tm)
	assert.Equal(t, 10*time.Minute, d.tm.Interval())

	res, err = d.SetSchedule(0, "s")
	require.NoError(t, err)
	assert.Equal(t, ResultIntervalZero, res)

	_, err = d.SetSchedule(5, "days")
	require.ErrorIs(t, err, config.ErrUnknownTimeUnits)
	assert.Equal(t, "UnknownTimeUnits", ErrorName(err))
}

func TestSetFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTestPNG(t, dir, "a.png")
	b := writeTestPNG(t, dir, "b.png")
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("x"), 0644))

	d := newTestDaemon(t, testDaemonConfig(), newCmdRecorder())

	_, err := d.SetFiles(nil)
	require.ErrorIs(t, err, rotation.ErrNoFiles)
	assert.Equal(t, "NoFilesProvided", ErrorName(err))

	_, err = d.SetFiles([]string{text, filepath.Join(dir, "missing.png"), dir})
	require.ErrorIs(t, err, ErrNoValidFiles)
	assert.Equal(t, "NoValidFilesProvided", ErrorName(err))

	res, err := d.SetFiles([]string{a, text, b})
	require.NoError(t, err)
	assert.Equal(t, ResultOK, res)

	// The non-image path was filtered out.
	files, err := invoke(d, func() ([]string, error) { return d.cfg.Files, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)
}

func TestGetInterfaces_ConstantsOmitted(t *testing.T) {
	d := newTestDaemon(t, testDaemonConfig(), newCmdRecorder())

	infos, err := d.GetInterfaces()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "swww", infos[0].Name)
	require.Len(t, infos[0].Variables, 2, "the constant must be omitted")
	assert.Equal(t, VariableInfo{Name: "retries", Value: "3"}, infos[0].Variables[0])
	assert.Equal(t, VariableInfo{Name: "transition", Value: "grow"}, infos[0].Variables[1])

	assert.Equal(t, "hyprpanel", infos[1].Name)
	assert.Empty(t, infos[1].Variables)
}

func TestGetActiveInterfaces_ActivationOrder(t *testing.T) {
	cfg := testDaemonConfig()
	cfg.ActiveIfaces = []int{1, 0}
	d := newTestDaemon(t, cfg, newCmdRecorder())

	infos, err := d.GetActiveInterfaces()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "hyprpanel", infos[0].Name)
	assert.Equal(t, "swww", infos[1].Name)
}

func TestSetVariableValue(t *testing.T) {
	tests := []struct {
		name    string
		iface   string
		varName string
		value   string
		wantErr error
		errName string
	}{
		{"unknown interface", "nope", "transition", "wipe", ErrInvalidInterfaceName, "InvalidInterfaceName"},
		{"unknown variable", "swww", "nope", "x", ErrVariableNotFound, "VariableDoesNotExist"},
		{"constant is invisible", "swww", "tool", "feh", ErrVariableNotFound, "VariableDoesNotExist"},
		{"enum member", "swww", "transition", "wipe", nil, ""},
		{"enum non-member", "swww", "transition", "spiral", ErrVariableConstraint, "VariableConstraintViolation"},
		{"integer valid", "swww", "retries", "7", nil, ""},
		{"integer invalid", "swww", "retries", "many", ErrVariableTypeMismatch, "VariableTypeMismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDaemon(t, testDaemonConfig(), newCmdRecorder())

			res, err := d.SetVariableValue(tt.iface, tt.varName, tt.value)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.errName, ErrorName(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ResultOK, res)
		})
	}
}

func TestSetVariableValue_ValueReflected(t *testing.T) {
	d := newTestDaemon(t, testDaemonConfig(), newCmdRecorder())

	_, err := d.SetVariableValue("swww", "retries", "42")
	require.NoError(t, err)

	infos, err := d.GetInterfaces()
	require.NoError(t, err)
	assert.Equal(t, VariableInfo{Name: "retries", Value: "42"}, infos[0].Variables[0])
}

func TestCoerceValue_Booleans(t *testing.T) {
	for _, s := range []string{"true", "ON", "1", "Yes"} {
		v, err := coerceValue(false, s)
		require.NoError(t, err, s)
		assert.Equal(t, true, v)
	}
	for _, s := range []string{"false", "Off", "0", "NO"} {
		v, err := coerceValue(true, s)
		require.NoError(t, err, s)
		assert.Equal(t, false, v)
	}
	_, err := coerceValue(true, "maybe")
	assert.ErrorIs(t, err, ErrVariableTypeMismatch)
}

func TestCoerceValue_Floats(t *testing.T) {
	v, err := coerceValue(1.5, "2.25")
	require.NoError(t, err)
	assert.Equal(t, 2.25, v)

	_, err = coerceValue(1.5, "fast")
	assert.ErrorIs(t, err, ErrVariableTypeMismatch)
}

func TestActivateDeactivate_Scenario(t *testing.T) {
	d := newTestDaemon(t, testDaemonConfig(), newCmdRecorder())

	res, err := d.ActivateInterface("hyprpanel")
	require.NoError(t, err)
	assert.Equal(t, ResultOK, res)

	res, err = d.ActivateInterface("hyprpanel")
	require.NoError(t, err)
	assert.Equal(t, ResultAlreadyActive, res)

	_, err = d.ActivateInterface("nope")
	require.ErrorIs(t, err, ErrInvalidInterfaceName)

	res, err = d.DeactivateInterface("hyprpanel")
	require.NoError(t, err)
	assert.Equal(t, ResultOK, res)

	res, err = d.DeactivateInterface("hyprpanel")
	require.NoError(t, err)
	assert.Equal(t, ResultAlreadyInactive, res)

	_, err = d.DeactivateInterface("nope")
	require.ErrorIs(t, err, ErrInvalidInterfaceName)
}

func TestForceWallpaperChange_SequentialScenario(t *testing.T) {
	dir := t.TempDir()
	a := writeTestPNG(t, dir, "a.png")
	b := writeTestPNG(t, dir, "b.png")
	c := writeTestPNG(t, dir, "c.png")

	rec := newCmdRecorder()
	cfg := testDaemonConfig()
	cfg.Schedule = 0
	d := newTestDaemon(t, cfg, rec)

	_, err := d.SetFiles([]string{a, b, c})
	require.NoError(t, err)

	cur, err := d.GetCurrentWallpaperFilename()
	require.NoError(t, err)
	assert.Equal(t, ResultNotYetSet, cur)

	expect := []string{a, b, c, a}
	for _, want := range expect {
		_, err := d.ForceWallpaperChange(true)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			cur, err := d.GetCurrentWallpaperFilename()
			return err == nil && cur == want
		}, time.Second, 5*time.Millisecond, "expected current wallpaper %s", want)
	}

	// The pipeline substituted the enum's current value.
	cmds := rec.commands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, []string{"swww", "img", a, "--transition-type", "grow"}, cmds[0])
}

func TestPipelineFailure_LeavesCurrentUnset(t *testing.T) {
	dir := t.TempDir()
	a := writeTestPNG(t, dir, "a.png")

	rec := newCmdRecorder()
	rec.fail["swww"] = errors.New("exit status 1")
	cfg := testDaemonConfig()
	cfg.Schedule = 0
	d := newTestDaemon(t, cfg, rec)

	_, err := d.SetFiles([]string{a})
	require.NoError(t, err)

	_, err = d.ForceWallpaperChange(true)
	require.NoError(t, err)

	// Failure terminates the cycle; the daemon keeps serving.
	time.Sleep(50 * time.Millisecond)
	cur, err := d.GetCurrentWallpaperFilename()
	require.NoError(t, err)
	assert.Equal(t, ResultNotYetSet, cur)
}

func TestForceWallpaperChange_ResetsTimer(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "a.png")

	d := newTestDaemon(t, testDaemonConfig(), newCmdRecorder())
	_, err := d.SetFiles([]string{filepath.Join(dir, "a.png")})
	require.NoError(t, err)

	_, err = d.SetSchedule(1, "h")
	require.NoError(t, err)
	before := d.tm

	_, err = d.ForceWallpaperChange(false)
	require.NoError(t, err)
	assert.NotSame(t, before, d.tm, "timer must restart at the configured interval")
	assert.Equal(t, timer.Stopped, before.State())
}

func TestPauseResume(t *testing.T) {
	d := newTestDaemon(t, testDaemonConfig(), newCmdRecorder())

	_, err := d.SetSchedule(1, "h")
	require.NoError(t, err)

	res, err := d.Pause(0, "")
	require.NoError(t, err)
	assert.Equal(t, ResultOK, res)
	assert.Equal(t, timer.Paused, d.tm.State())

	res, err = d.Resume()
	require.NoError(t, err)
	assert.Equal(t, ResultOK, res)
	assert.Equal(t, timer.Running, d.tm.State())

	_, err = d.Pause(5, "days")
	require.ErrorIs(t, err, config.ErrUnknownTimeUnits)
}

func TestReload_RearmsOnlyOnScheduleChange(t *testing.T) {
	cfg := testDaemonConfig()
	cfg.Schedule = 0
	d := newTestDaemon(t, cfg, newCmdRecorder())
	require.Nil(t, d.tm)

	// Same schedule: timer untouched.
	same := testDaemonConfig()
	same.Schedule = 0
	_, err := invoke(d, func() (struct{}, error) {
		d.reload(same)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.Nil(t, d.tm)

	// Changed schedule: timer armed, snapshot replaced wholesale.
	changed := testDaemonConfig()
	changed.Schedule = 2
	changed.Units = config.UnitsMinutes
	_, err = invoke(d, func() (struct{}, error) {
		d.reload(changed)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, d.tm)
	assert.Equal(t, 2*time.Minute, d.tm.Interval())
	assert.Same(t, changed, d.cfg)
}

func TestReload_ZeroScheduleStopsTimer(t *testing.T) {
	d := newTestDaemon(t, testDaemonConfig(), newCmdRecorder())
	_, err := d.SetSchedule(1, "h")
	require.NoError(t, err)
	require.NotNil(t, d.tm)

	stopped := testDaemonConfig()
	stopped.Schedule = 0
	_, err = invoke(d, func() (struct{}, error) {
		d.reload(stopped)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.Nil(t, d.tm)
}
