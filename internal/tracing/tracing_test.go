package tracing

import (
	"context"
	"testing"

	"github.com/nextlevelbuilder/recap/internal/config"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TelemetryConfig
	}{
		{"disabled", config.TelemetryConfig{Endpoint: "localhost:4318"}},
		{"no endpoint", config.TelemetryConfig{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := Setup(context.Background(), tt.cfg, "test")
			if err != nil {
				t.Fatalf("Setup: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Errorf("shutdown: %v", err)
			}
		})
	}
}

func TestTracer(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "probe")
	span.End()
}
