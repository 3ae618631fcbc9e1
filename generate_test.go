package apidocs_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/segiddins/apidocs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_ExitCode(t *testing.T) {
	tests := []struct {
		outcome apidocs.Outcome
		strict  bool
		code    int
	}{
		{outcome: apidocs.OutcomeOK, strict: false, code: apidocs.ExitOK},
		{outcome: apidocs.OutcomeOK, strict: true, code: apidocs.ExitOK},
		{outcome: apidocs.OutcomeFetchFailed, strict: false, code: apidocs.ExitFetchFailed},
		{outcome: apidocs.OutcomeFetchFailed, strict: true, code: apidocs.ExitFetchFailed},
		{outcome: apidocs.OutcomeRenderFailed, strict: false, code: apidocs.ExitOK},
		{outcome: apidocs.OutcomeRenderFailed, strict: true, code: apidocs.ExitRenderFailed},
	}

	for _, test := range tests {
		result := apidocs.Result{Outcome: test.outcome}
		assert.Equal(t, test.code, result.ExitCode(test.strict), "%s strict=%t", test.outcome, test.strict)
	}
}

func TestGenerate(t *testing.T) {
	srv, _ := serveBody(t, http.StatusOK, []byte(petstore))
	env := newTestEnv(t, srv.URL+"/v3/api-docs.yaml")

	result := apidocs.Generate(context.Background(), env.config)

	assert.Equal(t, apidocs.OutcomeOK, result.Outcome)
	assert.NoError(t, result.Err)
	require.NotNil(t, result.Document)
	assert.Equal(t, 1, env.runner.Calls())

	out := env.stdout.String()
	assert.Contains(t, out, "🚀 Generating OpenAPI YAML...")
	assert.Contains(t, out, "✅ YAML saved: /project/docs/api/openapi.yaml (Expense Tracker API v1, 2 paths)")
	assert.Contains(t, out, "🧱 Generating Redoc HTML...")
	assert.Contains(t, out, "✅ Redoc HTML saved: /project/docs/api/index.html")
	assert.Empty(t, env.stderr.String())
}

func TestGenerate_FetchFailureSkipsRender(t *testing.T) {
	srv, _ := serveBody(t, http.StatusNotFound, nil)
	env := newTestEnv(t, srv.URL)

	result := apidocs.Generate(context.Background(), env.config)

	assert.Equal(t, apidocs.OutcomeFetchFailed, result.Outcome)
	assert.Error(t, result.Err)
	assert.Equal(t, 0, env.runner.Calls())
	assert.Contains(t, env.stderr.String(), "❌ Failed to fetch YAML")
	assert.NotContains(t, env.stdout.String(), "🧱")
}

func TestGenerate_RenderFailure(t *testing.T) {
	srv, _ := serveBody(t, http.StatusOK, []byte(petstore))
	env := newTestEnv(t, srv.URL)
	env.runner.exitCode = 2

	result := apidocs.Generate(context.Background(), env.config)

	assert.Equal(t, apidocs.OutcomeRenderFailed, result.Outcome)
	assert.Error(t, result.Err)
	require.NotNil(t, result.Document)
	assert.Contains(t, env.stderr.String(), "❌ Failed to generate Redoc HTML")

	// the downloaded document is kept
	exists, err := afero.Exists(env.config.Fs, env.config.SourceFile)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGenerate_Idempotent(t *testing.T) {
	srv, hits := serveBody(t, http.StatusOK, []byte(petstore))
	env := newTestEnv(t, srv.URL)

	var contents []string
	for i := 0; i < 2; i++ {
		result := apidocs.Generate(context.Background(), env.config)
		require.Equal(t, apidocs.OutcomeOK, result.Outcome)

		written, err := afero.ReadFile(env.config.Fs, env.config.SourceFile)
		require.NoError(t, err)
		contents = append(contents, string(written))
	}

	assert.Equal(t, int64(2), hits.Load())
	assert.Equal(t, []string{petstore, petstore}, contents)

	entries, err := afero.ReadDir(env.config.Fs, env.config.DocsDir)
	require.NoError(t, err)
	names := []string{}
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{"openapi.yaml", "index.html"}, names)
}

func TestGenerate_UnsummarizableDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not: [valid"))
	}))
	defer srv.Close()
	env := newTestEnv(t, srv.URL)

	result := apidocs.Generate(context.Background(), env.config)

	assert.Equal(t, apidocs.OutcomeOK, result.Outcome)
	assert.Contains(t, env.stdout.String(), "✅ YAML saved: /project/docs/api/openapi.yaml\n")
}
