package logger

import (
	"context"
	"testing"
)

func TestContext_LoggerRoundTrip(t *testing.T) {
	buf, l := newJSONLogger(t, "info")

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("export finished")

	if buf.Len() == 0 {
		t.Fatal("logger from context produced no output")
	}
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext without a logger must return the default")
	}
}

func TestContext_IDRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-01JD9A4K2R")
	ctx = WithTraceID(ctx, "trace-7f3b")

	if got := RequestIDFromContext(ctx); got != "req-01JD9A4K2R" {
		t.Fatalf("request id = %q", got)
	}
	if got := TraceIDFromContext(ctx); got != "trace-7f3b" {
		t.Fatalf("trace id = %q", got)
	}
}

func TestContext_IDsDefaultEmpty(t *testing.T) {
	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" || TraceIDFromContext(ctx) != "" {
		t.Fatal("ids on a bare context must be empty")
	}
}

func TestL_EnrichesWithIDs(t *testing.T) {
	buf, l := newJSONLogger(t, "info")

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-01JD9A4K2R")
	ctx = WithTraceID(ctx, "trace-7f3b")

	L(ctx).Info("import finished", "tenant_id", "t1")

	entry := lastEntry(t, buf)
	if entry["request_id"] != "req-01JD9A4K2R" {
		t.Fatalf("request_id = %v", entry["request_id"])
	}
	if entry["trace_id"] != "trace-7f3b" {
		t.Fatalf("trace_id = %v", entry["trace_id"])
	}
	if entry["tenant_id"] != "t1" {
		t.Fatalf("tenant_id = %v", entry["tenant_id"])
	}
}

func TestL_NoIDsAddsNothing(t *testing.T) {
	buf, l := newJSONLogger(t, "info")

	L(WithLogger(context.Background(), l)).Info("plain entry")

	entry := lastEntry(t, buf)
	if _, ok := entry["request_id"]; ok {
		t.Fatal("request_id present without WithRequestID")
	}
	if _, ok := entry["trace_id"]; ok {
		t.Fatal("trace_id present without WithTraceID")
	}
}
