// Command workerctl is a CLI client for a workerd server. Every
// command emits JSON on stdout: a single object on success, or
// {"error": "..."} with a non-zero exit code on failure.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		json.NewEncoder(os.Stdout).Encode(map[string]string{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		os.Interrupt,
	)
	defer cancel()

	return newCLI().rootCmd().ExecuteContext(ctx)
}
