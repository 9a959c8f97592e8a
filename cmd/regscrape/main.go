// Command regscrape runs the regulatory source scrapers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"regscrape/cmd/regscrape/commands"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return commands.ExecuteContext(ctx)
}
