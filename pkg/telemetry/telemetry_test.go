package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"docboard/config"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.TelemetryConfig{Enabled: false}, zap.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}

	fields := otel.GetTextMapPropagator().Fields()
	found := false
	for _, f := range fields {
		if f == "traceparent" {
			found = true
		}
	}
	if !found {
		t.Errorf("trace context propagator not installed, fields=%v", fields)
	}
}
