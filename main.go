package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"doc-retriever/bootstrap"
	"doc-retriever/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Run(ctx); err != nil {
		logger.Logger.Error("doc-retriever exited", "err", err)
		os.Exit(1)
	}
}
