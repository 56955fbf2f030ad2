package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	clierrors "legal_chunker/internal/errors"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, opts := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	err := root.ExecuteContext(ctx)
	if opts.logger != nil {
		_ = opts.logger.Sync()
	}
	if err != nil {
		stop()
		clierrors.FatalError(err, opts.jsonErrors)
	}
}
