// Package tiles parses tiles command flags and launches the tiles runtime.
package tiles

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/wear-tiles/internal/platform/cmd"
	tilesserver "github.com/louisbranch/wear-tiles/internal/services/tiles/app"
)

// Config holds tiles command configuration.
type Config struct {
	HTTPPort         int           `env:"HTTP_PORT" envDefault:"8096"`
	GRPCPort         int           `env:"GRPC_PORT" envDefault:"8097"`
	DBPath           string        `env:"DB_PATH"`
	DefaultsFile     string        `env:"DEFAULTS_FILE"`
	DisplayLimit     int           `env:"DISPLAY_LIMIT" envDefault:"4"`
	Grace            time.Duration `env:"GRACE" envDefault:"5s"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	AvatarCDNBase    string        `env:"AVATAR_CDN_BASE"`
	AvatarSizePX     int           `env:"AVATAR_SIZE_PX" envDefault:"48"`
	FetchConcurrency int           `env:"FETCH_CONCURRENCY"`
	Freshness        time.Duration `env:"FRESHNESS"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "The tiles HTTP server port")
	fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "The gRPC health server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite favorites database path (empty keeps favorites in memory)")
	fs.StringVar(&cfg.DefaultsFile, "defaults", cfg.DefaultsFile, "YAML, TOML or JSON file with default contacts")
	fs.IntVar(&cfg.DisplayLimit, "display-limit", cfg.DisplayLimit, "Maximum contacts shown on the tile")
	fs.DurationVar(&cfg.Grace, "grace", cfg.Grace, "How long the favorites watch outlives its last reader")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "Per-request timeout")
	fs.StringVar(&cfg.AvatarCDNBase, "avatar-cdn", cfg.AvatarCDNBase, "Base URL for catalog avatar images")
	fs.IntVar(&cfg.AvatarSizePX, "avatar-size", cfg.AvatarSizePX, "Avatar diameter in pixels")
	fs.IntVar(&cfg.FetchConcurrency, "fetch-concurrency", cfg.FetchConcurrency, "Parallel avatar fetches (0 means one per contact)")
	fs.DurationVar(&cfg.Freshness, "freshness", cfg.Freshness, "Tile freshness interval (0 disables timed refresh)")

	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the tiles runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTiles, func(ctx context.Context) error {
		return tilesserver.Run(ctx, tilesserver.RuntimeConfig{
			HTTPPort:         cfg.HTTPPort,
			GRPCPort:         cfg.GRPCPort,
			DBPath:           cfg.DBPath,
			DefaultsFile:     cfg.DefaultsFile,
			DisplayLimit:     cfg.DisplayLimit,
			Grace:            cfg.Grace,
			RequestTimeout:   cfg.RequestTimeout,
			AvatarCDNBase:    cfg.AvatarCDNBase,
			AvatarSizePX:     cfg.AvatarSizePX,
			FetchConcurrency: cfg.FetchConcurrency,
			Freshness:        cfg.Freshness,
		})
	})
}
