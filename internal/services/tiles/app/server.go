// Package app wires the tiles service runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/wear-tiles/internal/platform/assets/imagecdn"
	"github.com/louisbranch/wear-tiles/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/wear-tiles/internal/platform/grpc"
	"github.com/louisbranch/wear-tiles/internal/platform/timeouts"
	tileshttp "github.com/louisbranch/wear-tiles/internal/services/tiles/api/http/tiles"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/avatar"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/render"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/seed"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/storage/memory"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/storage/sqlite"
)

// HealthService is the gRPC health service name reported while serving.
const HealthService = "wear.tiles.v1.TileService"

// RuntimeConfig controls tiles service startup and dependency wiring.
type RuntimeConfig struct {
	HTTPPort int
	GRPCPort int
	// DBPath selects the SQLite favorites store. Empty keeps favorites in memory.
	DBPath string
	// DefaultsFile overrides the built-in default contacts.
	DefaultsFile     string
	DisplayLimit     int
	Grace            time.Duration
	RequestTimeout   time.Duration
	AvatarCDNBase    string
	AvatarSizePX     int
	FetchConcurrency int
	Freshness        time.Duration
}

type favoritesStore interface {
	domain.FavoritesSource
	Close() error
}

// Run starts the tiles HTTP and gRPC health runtime until context cancellation.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.HTTPPort <= 0 {
		cfg.HTTPPort = discovery.HTTPPort(discovery.ServiceTiles)
	}
	if cfg.GRPCPort <= 0 {
		cfg.GRPCPort = discovery.GRPCPort(discovery.ServiceTiles)
	}
	if cfg.HTTPPort == cfg.GRPCPort {
		return fmt.Errorf("http and grpc ports must differ: %d", cfg.HTTPPort)
	}

	httpListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
	if err != nil {
		return fmt.Errorf("listen on tiles http port %d: %w", cfg.HTTPPort, err)
	}
	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = httpListener.Close()
		return fmt.Errorf("listen on tiles grpc port %d: %w", cfg.GRPCPort, err)
	}
	return Serve(ctx, cfg, httpListener, grpcListener)
}

// Serve runs the service on the given listeners until ctx ends or a server
// fails. Both listeners are closed on return.
func Serve(ctx context.Context, cfg RuntimeConfig, httpListener, grpcListener net.Listener) error {
	if httpListener == nil || grpcListener == nil {
		return errors.New("http and grpc listeners are required")
	}
	defer func() {
		if closeErr := grpcListener.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			log.Printf("close tiles grpc listener: %v", closeErr)
		}
	}()
	defer func() {
		if closeErr := httpListener.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			log.Printf("close tiles http listener: %v", closeErr)
		}
	}()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = timeouts.Request
	}

	defaults, err := seed.Defaults(cfg.DefaultsFile)
	if err != nil {
		return fmt.Errorf("load default contacts: %w", err)
	}
	store, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close favorites store: %v", closeErr)
		}
	}()

	handler, err := newHandler(cfg, store, defaults)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:           otelhttp.NewHandler(handler, "tiles"),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	grpcServer, healthServer := platformgrpc.NewHealthServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 2)
	go func() {
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve http: %w", err)
			return
		}
		serveErr <- nil
	}()
	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- fmt.Errorf("serve gRPC: %w", err)
			return
		}
		serveErr <- nil
	}()

	log.Printf("tiles http listening at %v", httpListener.Addr())
	log.Printf("tiles grpc health listening at %v", grpcListener.Addr())

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown tiles http server: %v", err)
		_ = httpServer.Close()
	}
	stopGRPC(shutdownCtx, grpcServer)
	return runErr
}

// stopGRPC stops gracefully, forcing a stop once ctx ends.
func stopGRPC(ctx context.Context, server *grpc.Server) {
	done := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		server.Stop()
		<-done
	}
}

func openStore(ctx context.Context, path string) (favoritesStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		store, err := memory.New()
		if err != nil {
			return nil, fmt.Errorf("open memory favorites store: %w", err)
		}
		return store, nil
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite favorites store: %w", err)
	}
	return store, nil
}

func newHandler(cfg RuntimeConfig, store domain.FavoritesSource, defaults []domain.Contact) (http.Handler, error) {
	loader := avatar.NewLoader(avatar.Config{
		CDN:    imagecdn.New(cfg.AvatarCDNBase),
		SizePX: cfg.AvatarSizePX,
		Logf:   log.Printf,
	})
	cache, err := domain.NewStateCache(store, domain.StateCacheConfig{
		DisplayLimit: cfg.DisplayLimit,
		Grace:        cfg.Grace,
		Logf:         log.Printf,
	})
	if err != nil {
		return nil, fmt.Errorf("new state cache: %w", err)
	}
	resolver, err := domain.NewResolver(loader, domain.ResolverConfig{Concurrency: cfg.FetchConcurrency})
	if err != nil {
		return nil, fmt.Errorf("new resolver: %w", err)
	}
	svc, err := domain.NewService(domain.Config{
		Source:   store,
		Cache:    cache,
		Resolver: resolver,
		Defaults: defaults,
	})
	if err != nil {
		return nil, fmt.Errorf("new tiles service: %w", err)
	}
	return tileshttp.NewHandler(svc, tileshttp.Options{
		Renderer:       render.NewRenderer(cfg.Freshness),
		RequestTimeout: cfg.RequestTimeout,
		Logf:           log.Printf,
	}), nil
}
