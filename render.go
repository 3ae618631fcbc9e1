package apidocs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/afero"
)

// RenderCommand is a fully resolved renderer invocation.
type RenderCommand struct {
	Argv   []string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Runner executes a RenderCommand and reports its exit code. A non-nil
// error means the command could not be run to completion at all.
type Runner func(ctx context.Context, cmd RenderCommand) (int, error)

// ExecRunner runs the command directly, without a shell.
func ExecRunner(ctx context.Context, rc RenderCommand) (int, error) {
	if len(rc.Argv) == 0 {
		return -1, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, rc.Argv[0], rc.Argv[1:]...)
	cmd.Env = rc.Env
	cmd.Stdout = rc.Stdout
	cmd.Stderr = rc.Stderr
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		return -1, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

// RenderArgs builds the renderer argv: the configured renderer command
// followed by the source file and the output file as separate arguments.
func RenderArgs(cfg *Config) ([]string, error) {
	renderer := cfg.RendererEnviron().ExpandEnv(cfg.Renderer)
	argv, err := shlex.Split(renderer)
	if err != nil {
		return nil, fmt.Errorf("parsing renderer %q: %w", cfg.Renderer, err)
	}
	if len(argv) == 0 {
		return nil, errors.New("renderer is empty")
	}
	return append(argv, cfg.SourceFile, "--output", cfg.OutputFile), nil
}

// Render turns cfg.SourceFile into cfg.OutputFile with the configured
// renderer. The output file itself is not inspected.
func Render(ctx context.Context, cfg *Config) error {
	argv, err := RenderArgs(cfg)
	if err != nil {
		return &RenderError{Kind: RenderStart, Argv: []string{cfg.Renderer}, Err: err}
	}

	exists, err := afero.Exists(cfg.Fs, cfg.SourceFile)
	if err == nil && !exists {
		err = fmt.Errorf("source file %s does not exist", cfg.SourceFile)
	}
	if err != nil {
		return &RenderError{Kind: RenderStart, Argv: argv, Err: err}
	}

	if err := cfg.Fs.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
		return &RenderError{Kind: RenderStart, Argv: argv, Err: err}
	}

	ctx, cancel := withTimeout(ctx, cfg.RenderTimeout)
	defer cancel()

	cfg.Logger.Debug().Strs("argv", argv).Dur("timeout", cfg.RenderTimeout).Msg("running renderer")

	start := time.Now()
	code, err := cfg.Runner(ctx, RenderCommand{
		Argv:   argv,
		Env:    cfg.RendererEnviron().ToEnvList(),
		Stdout: cfg.stdout(),
		Stderr: cfg.stderr(),
	})
	cfg.Logger.Debug().Int("exit", code).Dur("elapsed", time.Since(start)).Msg("renderer finished")

	if err != nil {
		kind := RenderStart
		if isTimeout(err) {
			kind = RenderTimeout
		}
		return &RenderError{Kind: kind, Argv: argv, ExitCode: code, Err: err}
	}
	if code != 0 {
		return &RenderError{Kind: RenderExit, Argv: argv, ExitCode: code}
	}
	return nil
}
