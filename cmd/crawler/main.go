package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"nutriscraper/cmd/crawler/commands"
)

// go run ./cmd/crawler collect
// go run ./cmd/crawler extract --resume
// go run ./cmd/crawler run
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	commands.ExecuteContext(ctx)
}
