package telemetry_test

import (
	"context"
	"testing"

	"github.com/acapella/riskhunt/internal/telemetry"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name string
		opts telemetry.Options
	}{
		{"no endpoint", telemetry.Options{ServiceName: "riskhunt", Enabled: true}},
		{"disabled", telemetry.Options{ServiceName: "riskhunt", Endpoint: "http://localhost:4318"}},
		// Non-routable, so nothing is exported.
		{"enabled", telemetry.Options{ServiceName: "riskhunt", Endpoint: "http://192.0.2.1:4318", Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := telemetry.Setup(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown: %v", err)
			}
		})
	}
}

func TestNoopShutdownIgnoresCancelledContext(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), telemetry.Options{})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}
