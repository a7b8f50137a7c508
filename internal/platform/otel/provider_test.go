package otel

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("WEAR_TILES_OTEL_ENDPOINT", "")
	t.Setenv("WEAR_TILES_OTEL_ENABLED", "true")

	shutdown, err := Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupNoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("WEAR_TILES_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("WEAR_TILES_OTEL_ENABLED", "false")

	shutdown, err := Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should ignore context: %v", err)
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no export happens.
	t.Setenv("WEAR_TILES_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("WEAR_TILES_OTEL_ENABLED", "true")
	t.Setenv("WEAR_TILES_OTEL_SAMPLE_RATIO", "0.25")

	shutdown, err := Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupRejectsInvalidSettings(t *testing.T) {
	t.Setenv("WEAR_TILES_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("WEAR_TILES_OTEL_ENABLED", "sometimes")

	if _, err := Setup(context.Background(), "test-service"); err == nil {
		t.Fatal("expected invalid boolean to fail")
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{ratio: 1, want: sdktrace.AlwaysSample().Description()},
		{ratio: 0, want: sdktrace.NeverSample().Description()},
		{ratio: 0.5, want: sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.5)).Description()},
	}
	for _, tc := range tests {
		if got := sampler(tc.ratio).Description(); got != tc.want {
			t.Fatalf("sampler(%v) = %q, want %q", tc.ratio, got, tc.want)
		}
	}
}
