package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	platformgrpc "github.com/louisbranch/wear-tiles/internal/platform/grpc"
	tileshttp "github.com/louisbranch/wear-tiles/internal/services/tiles/api/http/tiles"
)

func TestRunRejectsSharedPort(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), RuntimeConfig{HTTPPort: 9000, GRPCPort: 9000})
	if err == nil || !strings.Contains(err.Error(), "ports must differ") {
		t.Fatalf("Run error = %v, want port validation", err)
	}
}

func TestServeRequiresListeners(t *testing.T) {
	t.Parallel()

	if err := Serve(context.Background(), RuntimeConfig{}, nil, nil); err == nil {
		t.Fatal("expected error for missing listeners")
	}
}

func TestServeRejectsBadDefaultsFile(t *testing.T) {
	t.Parallel()

	httpListener, grpcListener := listenPair(t)
	err := Serve(context.Background(), RuntimeConfig{
		DefaultsFile: filepath.Join(t.TempDir(), "missing.yaml"),
	}, httpListener, grpcListener)
	if err == nil || !strings.Contains(err.Error(), "load default contacts") {
		t.Fatalf("Serve error = %v, want defaults error", err)
	}
}

func TestServeSeedsDefaultsAndReportsHealth(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	defaultsPath := filepath.Join(dir, "contacts.yaml")
	body := "contacts:\n  - id: x\n    name: Xia\n  - id: y\n    name: Yann\n"
	if err := os.WriteFile(defaultsPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write defaults: %v", err)
	}

	httpListener, grpcListener := listenPair(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, RuntimeConfig{
			DBPath:       filepath.Join(dir, "tiles.db"),
			DefaultsFile: defaultsPath,
			Grace:        -1,
		}, httpListener, grpcListener)
	}()

	base := "http://" + httpListener.Addr().String()
	waitUp(t, base+tileshttp.PathUp)

	resp, err := http.Post(base+tileshttp.PathTile, "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post tile: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tile status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(base + tileshttp.PathFavorites)
	if err != nil {
		t.Fatalf("get favorites: %v", err)
	}
	var favorites tileshttp.FavoritesJSON
	err = json.NewDecoder(resp.Body).Decode(&favorites)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode favorites: %v", err)
	}
	if len(favorites.Favorites) != 2 || favorites.Favorites[0].ID != "x" || favorites.Favorites[1].ID != "y" {
		t.Fatalf("favorites = %+v, want seeded x, y", favorites.Favorites)
	}

	conn, err := gogrpc.NewClient(grpcListener.Addr().String(), gogrpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial health: %v", err)
	}
	defer conn.Close()
	healthCtx, healthCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer healthCancel()
	status, err := platformgrpc.CheckHealth(healthCtx, conn, HealthService)
	if err != nil {
		t.Fatalf("check health: %v", err)
	}
	if status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("health = %v, want SERVING", status)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}

func listenPair(t *testing.T) (net.Listener, net.Listener) {
	t.Helper()
	httpListener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen http: %v", err)
	}
	grpcListener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = httpListener.Close()
		t.Fatalf("listen grpc: %v", err)
	}
	return httpListener, grpcListener
}

func waitUp(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s never became ready", url)
}
