package apidocs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Document is an API description written to disk by Fetch.
type Document struct {
	Path    string
	Size    int64
	Summary *Summary
}

// Summary holds the few top-level fields of an OpenAPI document that are
// shown in status output.
type Summary struct {
	OpenAPI string
	Title   string
	Version string
	Paths   int
}

func (s *Summary) String() string {
	label := s.Title
	if len(label) == 0 {
		label = "untitled"
	}
	if len(s.Version) > 0 {
		label += " " + s.Version
	}
	return fmt.Sprintf("%s, %d paths", label, s.Paths)
}

// Fetch downloads cfg.SourceURL into cfg.SourceFile. The file is only
// touched once the whole body has been read.
func Fetch(ctx context.Context, cfg *Config) (*Document, error) {
	log := cfg.Logger.With().Str("url", cfg.SourceURL).Str("path", cfg.SourceFile).Logger()

	for _, dir := range []string{cfg.DocsDir, filepath.Dir(cfg.SourceFile)} {
		if err := cfg.Fs.MkdirAll(dir, 0o755); err != nil {
			return nil, &FetchError{Kind: FetchWrite, URL: cfg.SourceURL, Err: err}
		}
	}

	ctx, cancel := withTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	body, err := download(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("bytes", len(body)).Msg("downloaded document")

	if err := afero.WriteFile(cfg.Fs, cfg.SourceFile, body, 0o644); err != nil {
		return nil, &FetchError{Kind: FetchWrite, URL: cfg.SourceURL, Err: err}
	}

	summary, err := Summarize(body)
	if err != nil {
		log.Debug().Err(err).Msg("could not summarize document")
	}

	return &Document{
		Path:    cfg.SourceFile,
		Size:    int64(len(body)),
		Summary: summary,
	}, nil
}

func download(ctx context.Context, cfg *Config) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.SourceURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, URL: cfg.SourceURL, Err: err}
	}

	resp, err := cfg.httpClient().Do(req)
	if err != nil {
		return nil, transportError(cfg.SourceURL, err)
	}
	defer resp.Body.Close()

	cfg.Logger.Debug().Str("url", cfg.SourceURL).Str("status", resp.Status).Msg("response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the body is not reported.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &FetchError{
			Kind:       FetchStatus,
			URL:        cfg.SourceURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(cfg.SourceURL, err)
	}
	return body, nil
}

func transportError(url string, err error) error {
	kind := FetchNetwork
	if isTimeout(err) {
		kind = FetchTimeout
	}
	return &FetchError{Kind: kind, URL: url, Err: err}
}

// Summarize extracts a Summary from a YAML or JSON OpenAPI document. It does
// not check that the document is a valid OpenAPI description.
func Summarize(body []byte) (*Summary, error) {
	var doc struct {
		OpenAPI string `yaml:"openapi"`
		Swagger string `yaml:"swagger"`
		Info    struct {
			Title   string `yaml:"title"`
			Version string `yaml:"version"`
		} `yaml:"info"`
		Paths map[string]yaml.Node `yaml:"paths"`
	}
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}

	summary := &Summary{
		OpenAPI: doc.OpenAPI,
		Title:   doc.Info.Title,
		Version: doc.Info.Version,
		Paths:   len(doc.Paths),
	}
	if len(summary.OpenAPI) == 0 {
		summary.OpenAPI = doc.Swagger
	}
	return summary, nil
}
