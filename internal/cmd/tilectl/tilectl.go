// Package tilectl implements the tiles operator CLI.
package tilectl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/wear-tiles/internal/platform/cmd"
	"github.com/louisbranch/wear-tiles/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/wear-tiles/internal/platform/grpc"
	"github.com/louisbranch/wear-tiles/internal/platform/timeouts"
	tilesserver "github.com/louisbranch/wear-tiles/internal/services/tiles/app"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/preview"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/render"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/seed"
)

// Commands.
const (
	CommandProbe         = "probe"
	CommandShow          = "show"
	CommandFavoritesList = "favorites list"
	CommandFavoritesSet  = "favorites set"
	CommandWatch         = "watch"
	CommandCatalog       = "catalog"
)

// ErrUsage reports a missing or unknown command.
var ErrUsage = errors.New("usage: tilectl [flags] probe | show | favorites list | favorites set -file <path> | watch | catalog")

// Config holds tilectl configuration.
type Config struct {
	HTTPAddr      string        `env:"TILECTL_HTTP_ADDR"`
	GRPCAddr      string        `env:"TILECTL_GRPC_ADDR"`
	Locale        string        `env:"TILECTL_LOCALE"`
	Timeout       time.Duration `env:"TILECTL_TIMEOUT" envDefault:"10s"`
	ScreenWidthDP int           `env:"TILECTL_SCREEN_WIDTH_DP" envDefault:"192"`
	Round         bool          `env:"TILECTL_ROUND" envDefault:"true"`

	Command string
	File    string
}

// ParseConfig parses environment, global flags and the command words.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.HTTPAddr = discovery.OrDefaultHTTPBaseURL(cfg.HTTPAddr, discovery.ServiceTiles)
	cfg.GRPCAddr = discovery.OrDefaultGRPCAddr(cfg.GRPCAddr, discovery.ServiceTiles)

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The tiles HTTP base URL")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "The tiles gRPC health address")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for rendered tiles and errors")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Timeout for one-shot commands")
	fs.IntVar(&cfg.ScreenWidthDP, "width", cfg.ScreenWidthDP, "Screen width in dp used for rendering")
	fs.BoolVar(&cfg.Round, "round", cfg.Round, "Render for a round screen")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, ErrUsage
	}
	switch rest[0] {
	case CommandProbe, CommandShow, CommandWatch, CommandCatalog:
		if len(rest) > 1 {
			return Config{}, fmt.Errorf("%w: unexpected arguments %q", ErrUsage, rest[1:])
		}
		cfg.Command = rest[0]
	case "favorites":
		if len(rest) < 2 {
			return Config{}, ErrUsage
		}
		switch rest[1] {
		case "list":
			cfg.Command = CommandFavoritesList
		case "set":
			setFlags := flag.NewFlagSet("favorites set", flag.ContinueOnError)
			setFlags.SetOutput(fs.Output())
			setFlags.StringVar(&cfg.File, "file", "", "YAML, TOML or JSON contacts file")
			if err := setFlags.Parse(rest[2:]); err != nil {
				return Config{}, err
			}
			if strings.TrimSpace(cfg.File) == "" {
				return Config{}, fmt.Errorf("%w: favorites set requires -file", ErrUsage)
			}
			cfg.Command = CommandFavoritesSet
		default:
			return Config{}, fmt.Errorf("%w: unknown favorites command %q", ErrUsage, rest[1])
		}
	default:
		return Config{}, fmt.Errorf("%w: unknown command %q", ErrUsage, rest[0])
	}
	return cfg, nil
}

// Run executes the configured command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.Request
	}
	client := NewClient(cfg.HTTPAddr, cfg.Locale, nil)
	device := render.DeviceParams{ScreenWidthDP: cfg.ScreenWidthDP, ScreenHeightDP: cfg.ScreenWidthDP, Round: cfg.Round}

	switch cfg.Command {
	case CommandWatch:
		return runWatch(ctx, client, device, out)
	case CommandCatalog:
		return writeCatalog(out)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	switch cfg.Command {
	case CommandProbe:
		return probe(ctx, cfg.GRPCAddr, out, errOut)
	case CommandShow:
		view, err := showTile(ctx, client, device)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, view)
		return nil
	case CommandFavoritesList:
		favorites, err := client.Favorites(ctx)
		if err != nil {
			return err
		}
		for _, contact := range favorites {
			fmt.Fprintf(out, "%s\t%s\t%s\n", contact.ID, contact.Name, contact.AvatarSource)
		}
		return nil
	case CommandFavoritesSet:
		favorites, err := seed.Load(cfg.File)
		if err != nil {
			return err
		}
		if err := client.ReplaceFavorites(ctx, favorites); err != nil {
			return err
		}
		fmt.Fprintf(out, "stored %d favorites\n", len(favorites))
		return nil
	default:
		return ErrUsage
	}
}

func probe(ctx context.Context, addr string, out io.Writer, errOut io.Writer) error {
	logf := func(format string, args ...any) {
		fmt.Fprintf(errOut, format+"\n", args...)
	}
	conn, err := platformgrpc.DialWithHealth(ctx, nil, addr, timeouts.GRPCDial, logf, platformgrpc.DefaultClientDialOptions()...)
	if err != nil {
		return err
	}
	defer conn.Close()
	status, err := platformgrpc.CheckHealth(ctx, conn, tilesserver.HealthService)
	if err != nil {
		return fmt.Errorf("check %s health: %w", tilesserver.HealthService, err)
	}
	fmt.Fprintf(out, "%s %s\n", addr, status)
	return nil
}

// showTile renders the current tile and its resources as a terminal preview.
func showTile(ctx context.Context, client *Client, device render.DeviceParams) (string, error) {
	favorites, err := client.Favorites(ctx)
	if err != nil {
		return "", err
	}
	tile, err := client.Tile(ctx, device)
	if err != nil {
		return "", err
	}
	resources, err := client.Resources(ctx, tile.ResourcesVersion, nil)
	if err != nil {
		return "", err
	}
	return preview.Render(tile, previewOptions(favorites, resources)), nil
}

func previewOptions(favorites []domain.Contact, resources render.Resources) preview.Options {
	opts := preview.Options{
		Names:  make(map[string]string, len(favorites)),
		Loaded: make(map[string]bool, len(resources.Images)),
	}
	for _, contact := range favorites {
		opts.Names[contact.ID] = contact.Name
	}
	for id := range resources.Images {
		opts.Loaded[id] = true
	}
	return opts
}
