// Package cmd holds startup plumbing shared by the command entry points.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"

	"github.com/louisbranch/wear-tiles/internal/platform/config"
	"github.com/louisbranch/wear-tiles/internal/platform/otel"
	"github.com/louisbranch/wear-tiles/internal/platform/timeouts"
)

// Service identifiers used for telemetry and log prefixes.
const (
	ServiceTiles   = "tiles"
	ServiceTileCtl = "tilectl"
)

// LogPrefix returns the log prefix for a service, e.g. "[TILES] ".
func LogPrefix(service string) string {
	return "[" + strings.ToUpper(strings.TrimSpace(service)) + "] "
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry configures tracing and executes a service run loop.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
