// Package main starts the tiles service process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	tilescmd "github.com/louisbranch/wear-tiles/internal/cmd/tiles"
	entrypoint "github.com/louisbranch/wear-tiles/internal/platform/cmd"
)

func main() {
	cfg, err := tilescmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceTiles))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tilescmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
