package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetupStdout(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Options{
		Exporter:    "stdout",
		ServiceName: "storeadmin-test",
		Writer:      &buf,
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "products.create")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "products.create") {
		t.Fatalf("span not exported: %s", buf.String())
	}
}

func TestSetupNone(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{Exporter: "none"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupUnknown(t *testing.T) {
	if _, err := Setup(context.Background(), Options{Exporter: "zipkin"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
