package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/itohio/dhtfw/pkg/build"
	"github.com/itohio/dhtfw/pkg/config"
	"github.com/itohio/dhtfw/pkg/logger"
	"github.com/itohio/dhtfw/pkg/toolchain"
)

const (
	exitOK            = 0
	exitFailure       = 1
	exitMissingConfig = 64 // EX_USAGE; make itself exits with 2
)

var errMissingConfig = errors.New("missing config file (use --config-file)")

// app carries what every command needs. Tests replace runner and stdout.
type app struct {
	settingsFile string
	logLevel     string
	dir          string

	runner   toolchain.Runner
	stdout   io.Writer
	getenv   func(string) string
	log      logger.Logger
	settings *config.Settings
}

func main() {
	a := &app{
		stdout: os.Stdout,
		getenv: os.Getenv,
	}
	os.Exit(a.execute(context.Background(), os.Args[1:]))
}

// execute runs the command line and returns the process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	if a.log != nil {
		a.log.Error("%v", err)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errMissingConfig) {
		return exitMissingConfig
	}
	var stageErr *build.StageError
	if errors.As(err, &stageErr) && stageErr.Code != 0 {
		return stageErr.Code
	}
	return exitFailure
}

func (a *app) rootCmd() *cobra.Command {
	var (
		configFile string
		opts       build.Options
		clean      bool
	)

	root := &cobra.Command{
		Use:   "dhtfw",
		Short: "Generate, build and flash DHT sensor logger firmware",
		Long: `dhtfw renders the firmware entry point for a DHT sensor logger from a JSON
description of the board, sensor and pins, builds it with the Arduino
makefile toolchain and optionally flashes it over a serial programmer.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup(clean) },
		RunE: func(cmd *cobra.Command, args []string) error {
			if clean {
				return a.clean()
			}
			if configFile == "" {
				return errMissingConfig
			}
			return a.build(cmd.Context(), configFile, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.settingsFile, "settings", "dhtfw.yaml", "Tool settings file (relative to --dir)")
	pf.StringVar(&a.logLevel, "log-level", "info", "Log level: error, warn, info, debug")
	pf.StringVar(&a.dir, "dir", ".", "Project directory holding the makefile and build output")

	f := root.Flags()
	f.StringVarP(&configFile, "config-file", "c", "", "Path to the firmware config file")
	f.StringVarP(&opts.Port, "port", "p", "", "If specified, flash this serial port")
	f.StringVar(&opts.CopyHexPath, "copy-hex-path", "", "If specified, copy the output hex to this path")
	f.BoolVar(&opts.NoBuild, "no-build", false, "Generate the firmware source, but do not build it")
	f.BoolVar(&opts.NoDelSrc, "no-del-src", false, "Do not delete the generated source after building")
	f.BoolVar(&clean, "clean", false, "Purge all local builds and exit")

	root.AddCommand(a.portsCmd())
	root.AddCommand(a.monitorCmd())
	root.AddCommand(a.initCmd())

	return root
}

// setup resolves the project directory, loads .env and the settings file.
// With lenient set an unreadable settings file falls back to defaults.
func (a *app) setup(lenient bool) error {
	dir, err := filepath.Abs(a.dir)
	if err != nil {
		return fmt.Errorf("invalid project directory: %w", err)
	}
	a.dir = dir

	level, err := logger.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.log = logger.New("", level)

	if err := godotenv.Load(filepath.Join(a.dir, ".env")); err != nil {
		if os.IsNotExist(err) {
			a.log.Debug("No .env file in %s", a.dir)
		} else {
			a.log.Warn("Error loading .env file: %v", err)
		}
	}

	settings, err := config.Load(a.settingsPath())
	if err != nil {
		if !lenient {
			return err
		}
		a.log.Warn("Using default settings: %v", err)
		settings = config.Default()
	}
	settings.ApplyEnv(a.getenv)
	a.settings = settings

	if a.runner == nil {
		a.runner = toolchain.NewExec(logger.New("[exec]", level))
	}

	return nil
}

func (a *app) settingsPath() string {
	if filepath.IsAbs(a.settingsFile) {
		return a.settingsFile
	}
	return filepath.Join(a.dir, a.settingsFile)
}

func (a *app) clean() error {
	removed, err := build.Clean(a.dir, a.settings.BuildDirPrefix)
	for _, path := range removed {
		a.log.Info("Removed %s", path)
	}
	return err
}

func (a *app) build(ctx context.Context, configFile string, opts build.Options) error {
	cfg, err := build.Prepare(a.settings, configFile)
	if err != nil {
		return err
	}
	a.log.Debug("Board %s uses %s", cfg.Board, cfg.Chip)

	b := build.New(a.settings, a.runner, a.log, a.dir)
	b.Ports = portNames
	return b.Run(ctx, cfg, opts)
}
