// Package main is the entry point for the walld CLI.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/darkawower/walld/internal/config"
	"github.com/darkawower/walld/internal/daemon"
	"github.com/darkawower/walld/internal/ipc"
	"github.com/darkawower/walld/internal/ui"
)

const version = "0.1.0"

var (
	// Global flags
	cfgFile    string
	socketPath string
	verbose    bool
	quiet      bool
	noColor    bool

	// Global output
	out *ui.Output
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "walld",
		Short: "Wallpaper rotation daemon",
		Long: `Walld rotates desktop wallpapers on a schedule through configurable
wallpaper-setting interfaces. The daemon runs via 'walld run'; every
other command talks to a running daemon over its control socket.`,
	}

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/walld/config.toml)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "daemon control socket (default: $XDG_RUNTIME_DIR/walld.sock)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add commands
	rootCmd.AddCommand(
		newRunCmd(),
		newScheduleCmd(),
		newFilesCmd(),
		newShuffleCmd(),
		newInterfacesCmd(),
		newSetVarCmd(),
		newActivateCmd(),
		newDeactivateCmd(),
		newCurrentCmd(),
		newNextCmd(),
		newPauseCmd(),
		newResumeCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initOutput initializes the output.
func initOutput() {
	out = ui.DefaultOutput()
	out.SetQuiet(quiet)
	out.SetNoColor(noColor)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func controlSocket() string {
	if socketPath != "" {
		return socketPath
	}
	return ipc.SocketPath()
}

func newClient() *ipc.Client {
	return ipc.NewClient(controlSocket())
}

// reportError prints an operation failure. Connection failures get a
// hint about starting the daemon; daemon-side failures print the
// taxonomy name.
func reportError(err error) {
	var callErr *ipc.CallError
	if errors.As(err, &callErr) {
		out.Error("%s: %s", callErr.Name, callErr.Message)
		return
	}
	out.ErrorWithHint(err.Error(), "Is the daemon running? Start it with 'walld run'")
}

// reportResult prints an operation result string. "OK" renders as a
// success; informational results such as "Interface already active."
// render as warnings.
func reportResult(res string) {
	if res == daemon.ResultOK {
		out.Success("OK")
		return
	}
	out.Warning("%s", res)
}

// newRunCmd creates the run command.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the wallpaper rotation daemon",
		Long: `Loads the configuration, starts the rotation schedule and serves
the control socket until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))

			d := daemon.New(configPath())
			if err := d.Start(); err != nil {
				slog.Error("failed to start daemon", "error", err)
				return err
			}

			srv := ipc.NewServer(d, controlSocket())
			if err := srv.Serve(); err != nil {
				d.Stop()
				slog.Error("failed to start rpc server", "error", err)
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			slog.Info("shutting down", "signal", sig.String())

			srv.Stop()
			d.Stop()
			return nil
		},
	}
}

// newScheduleCmd creates the schedule command.
func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule INTERVAL UNITS",
		Short: "Set the rotation schedule",
		Long: `Sets the wallpaper rotation interval. UNITS is one of s (seconds),
m (minutes) or h (hours). An interval of 0 disables the schedule.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			interval, err := strconv.Atoi(args[0])
			if err != nil {
				out.Error("Interval must be an integer: %q", args[0])
				return err
			}

			res, err := newClient().SetSchedule(interval, args[1])
			if err != nil {
				reportError(err)
				return err
			}
			reportResult(res)
			return nil
		},
	}
}

// newFilesCmd creates the files command.
func newFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files PATH...",
		Short: "Replace the wallpaper file list",
		Long: `Replaces the rotation file list. Paths that do not exist, are
directories or are not image files are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			files := make([]string, 0, len(args))
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					out.Error("Cannot resolve path %q: %v", arg, err)
					return err
				}
				files = append(files, abs)
			}

			res, err := newClient().SetFiles(files)
			if err != nil {
				reportError(err)
				return err
			}
			reportResult(res)
			return nil
		},
	}
}

// newShuffleCmd creates the shuffle command.
func newShuffleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shuffle on|off",
		Short: "Toggle shuffle mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			var shuffle bool
			switch strings.ToLower(args[0]) {
			case "on", "true", "1":
				shuffle = true
			case "off", "false", "0":
				shuffle = false
			default:
				out.Error("Expected on or off, got %q", args[0])
				return fmt.Errorf("invalid shuffle value %q", args[0])
			}

			res, err := newClient().SetShuffle(shuffle)
			if err != nil {
				reportError(err)
				return err
			}
			reportResult(res)
			return nil
		},
	}
}

// newInterfacesCmd creates the interfaces command.
func newInterfacesCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "interfaces",
		Short: "List configured interfaces and their variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			c := newClient()
			var (
				infos []daemon.InterfaceInfo
				err   error
			)
			if activeOnly {
				infos, err = c.GetActiveInterfaces()
			} else {
				infos, err = c.GetInterfaces()
			}
			if err != nil {
				reportError(err)
				return err
			}

			out.Print("")
			out.InterfaceTable(infos)
			out.Print("")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&activeOnly, "active", "a", false, "show only active interfaces, in activation order")

	return cmd
}

// newSetVarCmd creates the set-var command.
func newSetVarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-var INTERFACE VARIABLE VALUE",
		Short: "Set an interface variable",
		Long: `Assigns a new value to a mutable or enumeration variable. The value
is coerced to the variable's type; enumeration values must be one of
the declared options.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			res, err := newClient().SetVariableValue(args[0], args[1], args[2])
			if err != nil {
				reportError(err)
				return err
			}
			reportResult(res)
			return nil
		},
	}
}

// newActivateCmd creates the activate command.
func newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate INTERFACE",
		Short: "Activate an interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			res, err := newClient().ActivateInterface(args[0])
			if err != nil {
				reportError(err)
				return err
			}
			reportResult(res)
			return nil
		},
	}
}

// newDeactivateCmd creates the deactivate command.
func newDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate INTERFACE",
		Short: "Deactivate an interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			res, err := newClient().DeactivateInterface(args[0])
			if err != nil {
				reportError(err)
				return err
			}
			reportResult(res)
			return nil
		},
	}
}

// newCurrentCmd creates the current command.
func newCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current wallpaper",
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			res, err := newClient().GetCurrentWallpaperFilename()
			if err != nil {
				reportError(err)
				return err
			}
			if res == daemon.ResultNotYetSet {
				out.Warning("No wallpaper set yet")
				return nil
			}
			out.Field("Current", res)
			return nil
		},
	}
}

// newNextCmd creates the next command.
func newNextCmd() *cobra.Command {
	var noReset bool

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Switch to the next wallpaper now",
		Long: `Advances the rotation immediately. The schedule timer restarts at a
full interval unless --no-reset is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			res, err := newClient().ForceWallpaperChange(noReset)
			if err != nil {
				reportError(err)
				return err
			}
			reportResult(res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noReset, "no-reset", false, "keep the running schedule timer")

	return cmd
}

// newPauseCmd creates the pause command.
func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause [INTERVAL UNITS]",
		Short: "Pause the rotation schedule",
		Long: `Pauses the schedule, preserving the remainder of the current
interval. With INTERVAL and UNITS the rotation resumes automatically
after that long; otherwise it stays paused until 'walld resume'.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or INTERVAL UNITS, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			interval := 0
			units := ""
			if len(args) == 2 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					out.Error("Interval must be an integer: %q", args[0])
					return err
				}
				interval = n
				units = args[1]
			}

			res, err := newClient().Pause(interval, units)
			if err != nil {
				reportError(err)
				return err
			}
			reportResult(res)
			return nil
		},
	}
}

// newResumeCmd creates the resume command.
func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused rotation schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			initOutput()

			res, err := newClient().Resume()
			if err != nil {
				reportError(err)
				return err
			}
			reportResult(res)
			return nil
		},
	}
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			initOutput()
			out.Print("walld version %s", version)
		},
	}
}
