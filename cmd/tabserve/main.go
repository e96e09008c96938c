package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/opst/tabserve/cmd/tabserve/commands"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	commands.SetVersion(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
