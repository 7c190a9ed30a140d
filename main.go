package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/msomdec/result-processing/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger installs the default logger: text to stdout, JSON to stderr.
func setupLogger(level string) error {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return err
	}
	logOpts := &slog.HandlerOptions{Level: lvl}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)
	return nil
}
