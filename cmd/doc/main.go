package main

import (
	"os"
	"path/filepath"

	"github.com/segiddins/apidocs"
	docs "github.com/urfave/cli-docs/v3"
)

// Writes the command reference, by default to docs/cli.md.
func main() {
	path := filepath.Join("docs", "cli.md")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	md, err := docs.ToMarkdown(apidocs.App(nil))
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, []byte("# apidocs\n\n"+md), 0o644); err != nil {
		panic(err)
	}
}
