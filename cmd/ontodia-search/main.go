// Package main implements the ontodia-search command: one-shot SPARQL data
// provider operations printed as JSON, and a serve mode that exposes the
// same operations over HTTP for a diagram front end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/anhcx0209/ontodia-search/errors"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ontodia-search"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitError  = 1
	ExitPanic  = 2
	ExitConfig = 3
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(ExitPanic)
		}
	}()

	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitCode(err)
	}
	return ExitOK
}

func exitCode(err error) int {
	if errors.Is(err, errors.ErrInvalidConfig) || errors.Is(err, errors.ErrMissingConfig) {
		return ExitConfig
	}
	return ExitError
}
