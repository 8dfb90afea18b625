// Command keeptrackctl is the operator CLI: it migrates the activity store,
// issues development tokens and lists recorded activities.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"keeptrack/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(config.Load).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
