package services_test

import (
	"context"
	"testing"

	"avshelf/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithCode(ctx, "SSIS-001")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if code, ok := services.CodeFromContext(ctx); !ok || code != "SSIS-001" {
		t.Fatalf("unexpected code: %v %v", code, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCode(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.CodeFromContext(ctx); ok {
		t.Fatal("expected no code value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
}
