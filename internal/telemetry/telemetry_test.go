package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestInitDisabledUsesNoop(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tel, err := Init(context.Background(), Options{ServiceName: "archsite", Environment: "dev"}, logger)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if tel.TraceProvider != nil || tel.MeterProvider != nil {
		t.Fatal("disabled telemetry must not build providers")
	}

	m, err := NewMetrics(tel.Meter)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	m.RecordMutation(context.Background(), "project", "create", "ok")

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestSampler(t *testing.T) {
	t.Parallel()

	traceID := trace.TraceID{1, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	params := sdktrace.SamplingParameters{ParentContext: context.Background(), TraceID: traceID, Name: "GET /"}

	tests := []struct {
		ratio float64
		want  sdktrace.SamplingDecision
	}{
		{1, sdktrace.RecordAndSample},
		{2, sdktrace.RecordAndSample},
		{0, sdktrace.Drop},
		{-1, sdktrace.Drop},
		// the ratio sampler reads the low eight bytes, all set here, so any ratio below one drops it
		{0.5, sdktrace.Drop},
	}

	for _, tt := range tests {
		if got := sampler(tt.ratio).ShouldSample(params).Decision; got != tt.want {
			t.Errorf("sampler(%g) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}
