package telemetry

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address: nothing is exported before shutdown.
	shutdown, err := Setup(context.Background(), "http://192.0.2.1:4318", "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestNewProvider_RecordsServiceName(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp, err := NewProvider(context.Background(), "ledger-test", sdktrace.WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	var found bool
	for _, kv := range spans[0].Resource().Attributes() {
		if kv.Key == "service.name" && kv.Value.AsString() == "ledger-test" {
			found = true
		}
	}
	if !found {
		t.Fatalf("service name missing from resource %v", spans[0].Resource().Attributes())
	}
}
