package httpapi

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestShouldCreateHTTPAPISpan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "handler span", in: "httpapi.Handler.GetGame", want: true},
		{name: "middleware span", in: "httpapi.RequestLogging", want: false},
		{name: "helper span", in: "httpapi.writeError", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldCreateHTTPAPISpan(tt.in)
			if got != tt.want {
				t.Fatalf("shouldCreateHTTPAPISpan(%q)=%v want=%v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStartSpan_TagsGameID(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, parent := provider.Tracer("test").Start(context.Background(), "request")
	_, span := startSpan(ctx, "httpapi.Handler.GetGame", gameAttr(" sr-1 "))
	span.End()
	parent.End()

	var found bool
	for _, s := range recorder.Ended() {
		if s.Name() != "httpapi.Handler.GetGame" {
			continue
		}
		found = true
		for _, kv := range s.Attributes() {
			if kv.Key == "game.id" && kv.Value.AsString() != "sr-1" {
				t.Fatalf("game.id=%q want sr-1", kv.Value.AsString())
			}
		}
	}
	if !found {
		t.Fatalf("expected handler span to be recorded")
	}
}
