package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/itohio/dhtfw/pkg/board"
	"github.com/itohio/dhtfw/pkg/config"
	"github.com/itohio/dhtfw/pkg/logger"
	"github.com/itohio/dhtfw/pkg/render"
	"github.com/itohio/dhtfw/pkg/toolchain"
)

// State is the position of the pipeline.
type State int

const (
	StateInit State = iota
	StateSourceWritten
	StateBuilt
	StateFlashed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSourceWritten:
		return "source-written"
	case StateBuilt:
		return "built"
	case StateFlashed:
		return "flashed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options are the per-run switches from the command line.
type Options struct {
	Port        string // device to flash; empty skips flashing
	CopyHexPath string // where to copy the built artifact; empty skips the copy
	NoBuild     bool   // stop after writing the source
	NoDelSrc    bool   // keep the generated source after a successful build
}

// Builder renders, builds and flashes one firmware configuration.
type Builder struct {
	settings *config.Settings
	runner   toolchain.Runner
	log      logger.Logger
	dir      string

	// Ports lists the serial devices present. When set and non-empty, a
	// flash target missing from the list is logged as a warning.
	Ports func() ([]string, error)

	state State
}

// New creates a Builder working in dir.
func New(settings *config.Settings, runner toolchain.Runner, log logger.Logger, dir string) *Builder {
	if settings == nil {
		settings = config.Default()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Builder{
		settings: settings,
		runner:   runner,
		log:      log,
		dir:      dir,
		state:    StateInit,
	}
}

// Prepare loads the firmware document and resolves its board's chip.
// Nothing is written to disk.
func Prepare(settings *config.Settings, configFile string) (config.FirmwareConfig, error) {
	cfg, err := config.LoadFirmware(configFile)
	if err != nil {
		return config.FirmwareConfig{}, err
	}

	reg, err := board.Open(settings.BoardsFile)
	if err != nil {
		return config.FirmwareConfig{}, &StageError{Stage: StageResolve, Code: 1, Err: err}
	}
	chip, err := reg.Resolve(cfg.Board)
	if err != nil {
		return config.FirmwareConfig{}, &StageError{Stage: StageResolve, Code: 1, Err: err}
	}

	return cfg.WithChip(chip), nil
}

// State returns where the last Run stopped.
func (b *Builder) State() State {
	return b.state
}

// SourcePath returns the path of the generated firmware source.
func (b *Builder) SourcePath() string {
	return filepath.Join(b.dir, b.settings.SourceFile)
}

// ArtifactPath returns the build output for boardTag, relative to the working directory.
func (b *Builder) ArtifactPath(boardTag string) string {
	project := b.settings.ProjectName
	if project == "" {
		project = filepath.Base(b.dir)
	}
	return filepath.Join(b.settings.BuildDirPrefix+boardTag, project+".hex")
}

// Env returns the environment overrides every subprocess of the run sees.
func (b *Builder) Env(boardTag, port string) map[string]string {
	env := map[string]string{b.settings.BoardEnv: boardTag}
	if port != "" {
		env[b.settings.PortEnv] = port
	}
	return env
}

// Run executes the pipeline: write source, build, copy, flash. It stops at
// the first failure and returns a *StageError; files already written stay.
func (b *Builder) Run(ctx context.Context, cfg config.FirmwareConfig, opts Options) error {
	b.state = StateInit

	if opts.Port != "" && cfg.Chip == "" {
		return b.fail(&StageError{Stage: StageResolve, Code: 1, Err: fmt.Errorf("no chip resolved for board %q", cfg.Board)})
	}

	env := b.Env(cfg.Board, opts.Port)

	source := render.Render(cfg)
	if err := os.WriteFile(b.SourcePath(), []byte(source), 0644); err != nil {
		return b.fail(stageError(StageWrite, fmt.Errorf("failed to write firmware source: %w", err)))
	}
	b.state = StateSourceWritten
	b.log.Info("Generated firmware source: %s", b.settings.SourceFile)

	if opts.NoBuild {
		return nil
	}

	if err := b.build(ctx, env); err != nil {
		return b.fail(err)
	}
	b.state = StateBuilt

	if !opts.NoDelSrc {
		if err := os.Remove(b.SourcePath()); err != nil {
			b.log.Warn("Failed to remove generated source: %v", err)
		}
	}

	artifact := b.ArtifactPath(cfg.Board)
	if opts.CopyHexPath != "" {
		dst := opts.CopyHexPath
		if !filepath.IsAbs(dst) {
			dst = filepath.Join(b.dir, dst)
		}
		dst, err := copyFile(filepath.Join(b.dir, artifact), dst)
		if err != nil {
			return b.fail(stageError(StageCopy, err))
		}
		b.log.Info("Copied %s -> %s", artifact, dst)
	}

	if opts.Port == "" {
		return nil
	}

	b.checkPort(opts.Port)
	if err := b.flash(ctx, cfg.Chip, opts.Port, artifact, env); err != nil {
		return b.fail(err)
	}
	b.state = StateFlashed

	return nil
}

func (b *Builder) build(ctx context.Context, env map[string]string) *StageError {
	cmd, err := toolchain.Parse(b.settings.BuildCommand)
	if err != nil {
		return stageError(StageBuild, err)
	}
	cmd.Dir = b.dir
	if err := b.runner.Run(ctx, cmd.WithEnv(env)); err != nil {
		return stageError(StageBuild, err)
	}
	return nil
}

// FlashCommand returns the programmer invocation for artifact.
func (b *Builder) FlashCommand(chip, port, artifact string) toolchain.Command {
	return toolchain.Command{
		Name: b.settings.Flasher,
		Args: []string{
			"-V",
			"-p", chip,
			"-C", b.settings.ProgrammerConfig,
			"-D",
			"-c", b.settings.Programmer,
			"-P", port,
			"-U", fmt.Sprintf("flash:w:%s:i", artifact),
		},
		Dir: b.dir,
	}
}

func (b *Builder) flash(ctx context.Context, chip, port, artifact string, env map[string]string) *StageError {
	cmd := b.FlashCommand(chip, port, artifact).WithEnv(env)
	if err := b.runner.Run(ctx, cmd); err != nil {
		return stageError(StageFlash, err)
	}
	return nil
}

func (b *Builder) checkPort(port string) {
	if b.Ports == nil {
		return
	}
	ports, err := b.Ports()
	if err != nil {
		b.log.Debug("Cannot list serial ports: %v", err)
		return
	}
	if len(ports) > 0 && !slices.Contains(ports, port) {
		b.log.Warn("Port %s is not among detected serial ports %v", port, ports)
	}
}

func (b *Builder) fail(err *StageError) error {
	b.state = StateFailed
	return err
}

// copyFile copies src to dst. When dst is an existing directory the file
// keeps its base name. Returns the final destination.
func copyFile(src, dst string) (string, error) {
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat artifact: %w", err)
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return "", fmt.Errorf("%s and %s are the same file", src, dst)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to copy artifact: %w", err)
	}

	return dst, nil
}
