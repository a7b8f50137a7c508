// Package main runs the tiles operator CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	tilectlcmd "github.com/louisbranch/wear-tiles/internal/cmd/tilectl"
	entrypoint "github.com/louisbranch/wear-tiles/internal/platform/cmd"
	"github.com/louisbranch/wear-tiles/internal/platform/config"
)

func main() {
	cfg, err := tilectlcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if errors.Is(err, tilectlcmd.ErrUsage) {
		config.ExitCodef(config.ExitUsage, "%v", err)
	}
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTileCtl, func(ctx context.Context) error {
		return tilectlcmd.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
