package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/zreplica/cmd/zreplica"
	"github.com/arthur-debert/zreplica/pkg/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := zreplica.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		noColor, _ := rootCmd.PersistentFlags().GetBool("no-color")
		output.RenderError(os.Stderr, err, output.NewStyles(os.Stderr, !noColor && output.ColorEnabled(os.Stderr)))
		stop()
		os.Exit(1)
	}
}
