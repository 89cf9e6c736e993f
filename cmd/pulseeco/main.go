package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/i474232898/pulse-eco/internal/cli"
	"github.com/i474232898/pulse-eco/internal/config"
	"github.com/i474232898/pulse-eco/internal/output"
)

func main() {
	config.LoadDotEnv()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		output.NewPrinter(os.Stdout, os.Stderr, output.FormatJSON).Error("%v", err)
		stop()
		os.Exit(1)
	}
}
