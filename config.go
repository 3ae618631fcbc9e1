package apidocs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Defaults matching the backend's springdoc endpoint and the repository's
// docs/api layout.
const (
	DefaultSourceURL     = "http://localhost:8080/v3/api-docs.yaml"
	DefaultDocsDir       = "docs/api"
	DefaultSourceName    = "openapi.yaml"
	DefaultOutputName    = "index.html"
	DefaultRenderer      = "npx @redocly/cli build-docs"
	DefaultFetchTimeout  = 30 * time.Second
	DefaultRenderTimeout = 5 * time.Minute
)

// DefaultRendererEnv is always part of the renderer environment unless a
// Config replaces it.
var DefaultRendererEnv = []string{"REDOCLY_TELEMETRY=off"}

// Config describes one documentation build: where the API description comes
// from, where it and the rendered HTML go, and how the renderer is run.
// The collaborators at the end can be swapped in tests.
type Config struct {
	SourceURL  string `yaml:"source_url"`
	DocsDir    string `yaml:"docs_dir"`
	SourceFile string `yaml:"source_file"`
	OutputFile string `yaml:"output_file"`

	Renderer    string   `yaml:"renderer"`
	RendererEnv []string `yaml:"renderer_env,omitempty"`

	// Zero disables the deadline.
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	RenderTimeout time.Duration `yaml:"render_timeout"`

	// When set a failed render step makes the process exit non-zero.
	FailOnRenderError bool `yaml:"fail_on_render_error"`

	Fs         afero.Fs        `yaml:"-"`
	HTTPClient *http.Client    `yaml:"-"`
	Runner     Runner          `yaml:"-"`
	Environ    func() []string `yaml:"-"`
	Stdout     io.Writer       `yaml:"-"`
	Stderr     io.Writer       `yaml:"-"`
	Logger     zerolog.Logger  `yaml:"-"`
}

// DefaultConfig returns a Config using the OS filesystem, a plain HTTP
// client, ExecRunner, and the process's stdout, stderr and environment.
// SourceFile and OutputFile are left for ResolvePaths.
func DefaultConfig() *Config {
	return &Config{
		SourceURL:     DefaultSourceURL,
		DocsDir:       DefaultDocsDir,
		Renderer:      DefaultRenderer,
		RendererEnv:   slices.Clone(DefaultRendererEnv),
		FetchTimeout:  DefaultFetchTimeout,
		RenderTimeout: DefaultRenderTimeout,

		Fs:         afero.NewOsFs(),
		HTTPClient: &http.Client{},
		Runner:     ExecRunner,
		Environ:    os.Environ,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Logger:     zerolog.Nop(),
	}
}

// ResolvePaths derives SourceFile and OutputFile from DocsDir when they
// were left empty.
func (c *Config) ResolvePaths() {
	if len(c.SourceFile) == 0 {
		c.SourceFile = filepath.Join(c.DocsDir, DefaultSourceName)
	}
	if len(c.OutputFile) == 0 {
		c.OutputFile = filepath.Join(c.DocsDir, DefaultOutputName)
	}
}

// Validate reports every problem with c at once. It does not touch the
// network or the filesystem.
func (c *Config) Validate() error {
	var result *multierror.Error

	if len(c.SourceURL) == 0 {
		result = multierror.Append(result, errors.New("source url is empty"))
	} else if u, err := url.Parse(c.SourceURL); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid source url: %w", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		result = multierror.Append(result, fmt.Errorf("invalid source url %q: scheme must be http or https", c.SourceURL))
	} else if len(u.Host) == 0 {
		result = multierror.Append(result, fmt.Errorf("invalid source url %q: missing host", c.SourceURL))
	}

	if len(c.DocsDir) == 0 {
		result = multierror.Append(result, errors.New("docs dir is empty"))
	}
	if len(c.SourceFile) == 0 {
		result = multierror.Append(result, errors.New("source file is empty"))
	}
	if len(c.OutputFile) == 0 {
		result = multierror.Append(result, errors.New("output file is empty"))
	}

	if argv, err := shlex.Split(c.Renderer); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid renderer %q: %w", c.Renderer, err))
	} else if len(argv) == 0 {
		result = multierror.Append(result, errors.New("renderer is empty"))
	}

	for _, entry := range c.RendererEnv {
		if _, _, err := ParseEnvEntry(entry); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if c.FetchTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("fetch timeout must not be negative: %s", c.FetchTimeout))
	}
	if c.RenderTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("render timeout must not be negative: %s", c.RenderTimeout))
	}

	if c.Fs == nil {
		result = multierror.Append(result, errors.New("filesystem is not set"))
	}
	if c.Runner == nil {
		result = multierror.Append(result, errors.New("runner is not set"))
	}

	return result.ErrorOrNil()
}

// RendererEnviron is the environment handed to the renderer process.
func (c *Config) RendererEnviron() *Env {
	var parent []string
	if c.Environ != nil {
		parent = c.Environ()
	}
	return ParseEnv(parent).Merge(c.RendererEnv)
}

func (c *Config) stdout() io.Writer {
	if c.Stdout == nil {
		return io.Discard
	}
	return c.Stdout
}

func (c *Config) stderr() io.Writer {
	if c.Stderr == nil {
		return io.Discard
	}
	return c.Stderr
}

func (c *Config) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

// withTimeout bounds ctx by d unless d is zero.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
