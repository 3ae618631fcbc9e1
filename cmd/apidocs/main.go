package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/segiddins/apidocs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := apidocs.App(apidocs.DefaultConfig())

	err := app.Run(ctx, os.Args)
	if err == nil {
		return
	}

	var status *apidocs.ExitStatus
	if errors.As(err, &status) {
		os.Exit(status.Code)
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(apidocs.ExitUsage)
}
