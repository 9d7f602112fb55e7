package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fetcher.dev/cli/internal/interfaces/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	app := &cli.App{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
	}
	code := cli.Execute(ctx, app, os.Args[1:])

	stop()
	os.Exit(code)
}
