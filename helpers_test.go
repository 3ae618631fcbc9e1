package apidocs_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/segiddins/apidocs"
	"github.com/spf13/afero"
)

const petstore = `openapi: 3.0.1
info:
  title: Expense Tracker API
  version: v1
paths:
  /api/expenses:
    get:
      summary: List expenses
  /api/categories:
    get:
      summary: List categories
`

type testEnv struct {
	config *apidocs.Config
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	runner *fakeRunner
}

func newTestEnv(t *testing.T, sourceURL string) *testEnv {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	config := apidocs.DefaultConfig()
	config.Fs = afero.NewMemMapFs()
	config.SourceURL = sourceURL
	config.DocsDir = "/project/docs/api"
	config.ResolvePaths()
	config.Stdout = stdout
	config.Stderr = stderr
	config.Environ = func() []string {
		return []string{"PATH=/usr/bin:/bin", "HOME=/home/docs"}
	}

	runner := &fakeRunner{fs: config.Fs, writeOutput: true}
	config.Runner = runner.Run

	return &testEnv{config: config, stdout: stdout, stderr: stderr, runner: runner}
}

// fakeRunner records renderer invocations and optionally writes the
// output file named by the last argument.
type fakeRunner struct {
	mu          sync.Mutex
	fs          afero.Fs
	calls       []apidocs.RenderCommand
	exitCode    int
	err         error
	writeOutput bool
}

func (r *fakeRunner) Run(ctx context.Context, cmd apidocs.RenderCommand) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, cmd)
	if r.err != nil {
		return -1, r.err
	}
	if r.exitCode == 0 && r.writeOutput {
		output := cmd.Argv[len(cmd.Argv)-1]
		if err := afero.WriteFile(r.fs, output, []byte("<html>redoc</html>"), 0o644); err != nil {
			return -1, err
		}
	}
	return r.exitCode, nil
}

func (r *fakeRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func serveBody(t *testing.T, status int, body []byte) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	hits := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/vnd.oai.openapi")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}
