// Command steamctl runs the Steam Controller userland driver: it parses a
// VDF binding profile, translates controller reports into virtual gamepad,
// keyboard, and mouse events, and manages itself as a background daemon.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sc-userland/steamctl/internal/configpaths"
	"github.com/sc-userland/steamctl/internal/daemon"
	"github.com/sc-userland/steamctl/internal/driverloop"
	ctllog "github.com/sc-userland/steamctl/internal/log"
	"github.com/sc-userland/steamctl/internal/usbsession"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

// CLI is kong's top-level command tree: one verb from {start, stop,
// restart, debug}, plus the config-defaults scaffolder (§6).
type CLI struct {
	Config string `short:"c" help:"Path to the VDF binding profile." default:"steamctl.vdf"`
	Index  int    `short:"i" help:"Controller index 0..3, selects the PID file." default:"0"`

	Log struct {
		Level   string `help:"Log level: trace, debug, info, warn, error." default:"info"`
		File    string `help:"Write logs to this file in addition to stderr."`
		RawFile string `name:"raw-file" help:"Write a raw hex dump of HID reports and haptic frames here."`
	} `embed:"" prefix:"log."`

	Start     StartCmd      `cmd:"" help:"Start the driver in the background."`
	Stop      StopCmd       `cmd:"" help:"Stop a running background driver."`
	Restart   RestartCmd    `cmd:"" help:"Restart the background driver."`
	Debug     DebugCmd      `cmd:"" help:"Run the driver in the foreground."`
	ConfigCmd ConfigCommand `cmd:"" name:"config" help:"Configuration file utilities."`
}

// StartCmd launches the driver as a detached background process.
type StartCmd struct{}

func (c *StartCmd) Run(cli *CLI) error {
	if err := daemon.Start(cli.Index, childArgs()); err != nil {
		var already *daemon.AlreadyRunningError
		if errors.As(err, &already) {
			fmt.Fprintf(os.Stderr, "steamctl: already running as pid %d\n", already.Pid)
			return exitCode{1}
		}
		fmt.Fprintln(os.Stderr, "steamctl:", err)
		return exitCode{1}
	}
	return nil
}

// StopCmd signals a running background driver to exit.
type StopCmd struct{}

func (c *StopCmd) Run(cli *CLI) error {
	if err := daemon.Stop(cli.Index); err != nil {
		var notRunning *daemon.NotRunningError
		if errors.As(err, &notRunning) {
			fmt.Fprintln(os.Stderr, "steamctl: not running")
			return exitCode{1}
		}
		fmt.Fprintln(os.Stderr, "steamctl:", err)
		return exitCode{1}
	}
	return nil
}

// RestartCmd stops then starts the background driver.
type RestartCmd struct{}

func (c *RestartCmd) Run(cli *CLI) error {
	if err := daemon.Restart(cli.Index, childArgs()); err != nil {
		fmt.Fprintln(os.Stderr, "steamctl:", err)
		return exitCode{1}
	}
	return nil
}

// DebugCmd runs the driver loop in the foreground, logging to stderr.
// The re-exec'd daemon child also lands here, with its hidden marker
// stripped by IsDaemonChild before kong ever sees argv.
type DebugCmd struct{}

func (c *DebugCmd) Run(cli *CLI, logger *slog.Logger, raw ctllog.RawLogger) error {
	return runDriver(cli, logger, raw)
}

func runDriver(cli *CLI, logger *slog.Logger, raw ctllog.RawLogger) error {
	err := driverloop.Run(driverloop.Options{
		ProfilePath: cli.Config,
		Log:         logger,
		Raw:         raw,
	})
	if err == nil {
		return nil
	}

	var profileErr *driverloop.ProfileError
	if errors.As(err, &profileErr) {
		fmt.Fprintln(os.Stderr, "steamctl:", err)
		return exitCode{3}
	}
	var notFound *usbsession.NotFoundError
	var busy *usbsession.BusyError
	if errors.As(err, &notFound) || errors.As(err, &busy) {
		fmt.Fprintln(os.Stderr, "steamctl:", err)
		return exitCode{2}
	}
	fmt.Fprintln(os.Stderr, "steamctl:", err)
	return exitCode{1}
}

// exitCode is returned from Run methods to carry a specific process exit
// status through kong.FatalIfErrorf without kong printing its own "error:"
// wrapper for what is really just a status.
type exitCode struct{ code int }

func (e exitCode) Error() string { return "" }

func childArgs() []string {
	args := make([]string, 0, len(os.Args)-1)
	args = append(args, os.Args[1:]...)
	return args
}

func main() {
	isChild, args := daemon.IsDaemonChild(os.Args[1:])
	if isChild {
		// Re-exec'd daemon child: force the debug verb so kong routes
		// into the foreground driver loop instead of re-daemonizing.
		args = append([]string{"debug"}, stripVerb(args)...)
	}

	userCfg := findUserConfig(args)
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("steamctl"),
		kong.Description("Steam Controller userland driver"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "steamctl:", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)

	logger, closeFiles, err := ctllog.SetupLogger(cli.Log.Level, cli.Log.File, cli.Index)
	if err != nil {
		fmt.Fprintln(os.Stderr, "steamctl: failed to set up logger:", err)
		os.Exit(1)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	var raw ctllog.RawLogger
	switch {
	case cli.Log.RawFile != "":
		f, err := os.OpenFile(cli.Log.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open raw log file", "file", cli.Log.RawFile, "err", err)
			raw = ctllog.NewRaw(nil)
		} else {
			raw = ctllog.NewRaw(f)
			closeFiles = append(closeFiles, f)
		}
	case strings.EqualFold(cli.Log.Level, "trace"):
		raw = ctllog.NewRaw(os.Stdout)
	default:
		raw = ctllog.NewRaw(nil)
	}

	kctx.Bind(&cli)
	kctx.Bind(logger)
	kctx.BindTo(raw, (*ctllog.RawLogger)(nil))

	err = kctx.Run()
	var ec exitCode
	if errors.As(err, &ec) {
		os.Exit(ec.code)
	}
	kctx.FatalIfErrorf(err)
}

// stripVerb drops a leading non-flag token (the verb kong would otherwise
// see first) since the daemon child always forces "debug".
func stripVerb(args []string) []string {
	for i, a := range args {
		if !strings.HasPrefix(a, "-") {
			return append(append([]string{}, args[:i]...), args[i+1:]...)
		}
	}
	return args
}

// findUserConfig returns the CLI-defaults file named by STEAMCTL_CONFIG.
// -c/--config names the VDF binding profile, never a defaults file, so it
// is not consulted here.
func findUserConfig(args []string) string {
	if v := os.Getenv("STEAMCTL_CONFIG"); v != "" {
		return v
	}
	return ""
}
