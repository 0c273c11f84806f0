package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/restobot/internal/platform/otel"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("RESTOBOT_OTEL_ENDPOINT", "")
	t.Setenv("RESTOBOT_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "restobot-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupNoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("RESTOBOT_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("RESTOBOT_OTEL_ENABLED", "FALSE")

	shutdown, err := otel.Setup(context.Background(), "restobot-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address; nothing is exported before shutdown.
	t.Setenv("RESTOBOT_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("RESTOBOT_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "restobot-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
