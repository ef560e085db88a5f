package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamu/jamu-auth/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Cobra already prints the error, so we just exit
		os.Exit(1)
	}
}
