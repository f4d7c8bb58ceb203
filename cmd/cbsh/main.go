// Package main is the entry point for cbsh.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/crossbario/crossbar-shell/internal/cli"
)

func main() {
	// SIGTERM ends the process, SIGINT is handled by the shell
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	app := cli.New()
	app.Interrupts = interrupts

	err := app.Execute(ctx, os.Args[1:])
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
