package apidocs

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

var configKey = &struct{}{}

type appState struct {
	config  *Config
	baseEnv []string
}

// configure applies the flags as seen by cmd, which is the command whose
// action is running, so flags given after a subcommand name are honoured.
func configure(ctx context.Context, cmd *cli.Command) (*Config, error) {
	state := ctx.Value(configKey).(*appState)
	applyFlags(state.config, state.baseEnv, cmd)
	if err := state.config.Validate(); err != nil {
		return nil, err
	}
	return state.config, nil
}

// App builds the command line interface around config. Flag defaults are
// taken from config, and parsed flags are written back into it before any
// action runs. --renderer-env entries are appended to config.RendererEnv.
//
//go:generate go run ./cmd/doc docs/cli.md
func App(config *Config) *cli.Command {
	if config == nil {
		config = DefaultConfig()
	}
	baseEnv := slices.Clone(config.RendererEnv)

	return &cli.Command{
		Name:      "apidocs",
		Usage:     "download an OpenAPI description and render it to static HTML",
		Writer:    config.stdout(),
		ErrWriter: config.stderr(),
		// env values such as NODE_OPTIONS may contain commas
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Value: config.SourceURL,
				Usage: "URL serving the OpenAPI YAML document",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("APIDOCS_URL"),
				),
			},
			&cli.StringFlag{
				Name:  "docs-dir",
				Value: config.DocsDir,
				Usage: "directory receiving the generated documentation, relative to the working directory",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("APIDOCS_DIR"),
				),
			},
			&cli.StringFlag{
				Name:  "source-file",
				Value: config.SourceFile,
				Usage: "where to save the downloaded document (default: <docs-dir>/openapi.yaml)",
			},
			&cli.StringFlag{
				Name:  "output-file",
				Value: config.OutputFile,
				Usage: "where the renderer writes HTML (default: <docs-dir>/index.html)",
			},
			&cli.StringFlag{
				Name:  "renderer",
				Value: config.Renderer,
				Usage: "renderer command; the source and output paths are appended as arguments",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("APIDOCS_RENDERER"),
				),
			},
			&cli.StringSliceFlag{
				Name:  "renderer-env",
				Usage: fmt.Sprintf("extra KEY=VALUE environment for the renderer, added to %s", strings.Join(baseEnv, " ")),
			},
			&cli.DurationFlag{
				Name:  "fetch-timeout",
				Value: config.FetchTimeout,
				Usage: "deadline for downloading the document, 0 to disable",
			},
			&cli.DurationFlag{
				Name:  "render-timeout",
				Value: config.RenderTimeout,
				Usage: "deadline for the renderer, 0 to disable",
			},
			&cli.BoolFlag{
				Name:  "fail-on-render-error",
				Value: config.FailOnRenderError,
				Usage: "exit non-zero when the renderer fails",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("APIDOCS_STRICT"),
				),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log diagnostics to stderr",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("APIDOCS_DEBUG"),
				),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			ctx = context.WithValue(ctx, configKey, &appState{config: config, baseEnv: baseEnv})
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "only download the OpenAPI document",
				Action: fetchDocument,
			},
			{
				Name:   "render",
				Usage:  "only render an already downloaded document",
				Action: renderDocument,
			},
			{
				Name:  "config",
				Usage: "print the resolved configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: "text",
						Usage: "text|yaml",
					},
				},
				Action: printConfig,
			},
		},
		Action: generate,
	}
}

func applyFlags(config *Config, baseEnv []string, cmd *cli.Command) {
	config.SourceURL = cmd.String("url")
	config.DocsDir = cmd.String("docs-dir")
	config.SourceFile = cmd.String("source-file")
	config.OutputFile = cmd.String("output-file")
	config.Renderer = cmd.String("renderer")
	config.RendererEnv = append(slices.Clone(baseEnv), cmd.StringSlice("renderer-env")...)
	config.FetchTimeout = cmd.Duration("fetch-timeout")
	config.RenderTimeout = cmd.Duration("render-timeout")
	config.FailOnRenderError = cmd.Bool("fail-on-render-error")
	config.ResolvePaths()
	config.Logger = NewLogger(config.stderr(), cmd.Bool("debug"))
}

func generate(ctx context.Context, cmd *cli.Command) error {
	config, err := configure(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", cmd.Args().Slice())
	}

	result := Generate(ctx, config)
	config.Logger.Debug().Stringer("outcome", result.Outcome).Msg("generate finished")

	if code := result.ExitCode(config.FailOnRenderError); code != ExitOK {
		return &ExitStatus{Code: code, Err: result.Err}
	}
	return nil
}

func fetchDocument(ctx context.Context, cmd *cli.Command) error {
	config, err := configure(ctx, cmd)
	if err != nil {
		return err
	}

	if _, err := FetchStep(ctx, config); err != nil {
		return &ExitStatus{Code: ExitFetchFailed, Err: err}
	}
	return nil
}

func renderDocument(ctx context.Context, cmd *cli.Command) error {
	config, err := configure(ctx, cmd)
	if err != nil {
		return err
	}

	if err := RenderStep(ctx, config); err != nil {
		result := Result{Outcome: OutcomeRenderFailed, Err: err}
		if code := result.ExitCode(config.FailOnRenderError); code != ExitOK {
			return &ExitStatus{Code: code, Err: err}
		}
	}
	return nil
}

func printConfig(ctx context.Context, cmd *cli.Command) error {
	config, err := configure(ctx, cmd)
	if err != nil {
		return err
	}
	out := config.stdout()

	switch format := cmd.String("format"); format {
	case "yaml":
		data, err := yaml.Marshal(config)
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	case "text":
		argv, err := RenderArgs(config)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "source url:     %s\n", config.SourceURL)
		fmt.Fprintf(out, "docs dir:       %s\n", config.DocsDir)
		fmt.Fprintf(out, "source file:    %s\n", config.SourceFile)
		fmt.Fprintf(out, "output file:    %s\n", config.OutputFile)
		fmt.Fprintf(out, "fetch timeout:  %s\n", config.FetchTimeout)
		fmt.Fprintf(out, "render timeout: %s\n", config.RenderTimeout)
		fmt.Fprintf(out, "strict:         %t\n", config.FailOnRenderError)
		fmt.Fprintln(out, "renderer argv:")
		for _, arg := range argv {
			fmt.Fprintf(out, "  %s\n", strconv.Quote(arg))
		}

		var parent []string
		if config.Environ != nil {
			parent = config.Environ()
		}
		fmt.Fprintln(out, "renderer env:")
		for _, e := range config.RendererEnviron().Diff(parent) {
			if e.Value != nil {
				fmt.Fprintf(out, "  export %s=%s\n", e.Key, strconv.Quote(*e.Value))
			} else {
				fmt.Fprintf(out, "  unset %s\n", e.Key)
			}
		}
	default:
		return fmt.Errorf("invalid format: %q", format)
	}

	return nil
}
