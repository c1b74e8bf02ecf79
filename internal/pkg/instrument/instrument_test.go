package instrument

import (
	"context"
	"testing"
)

func TestNew_Disabled(t *testing.T) {
	// Act
	ins, err := New(context.Background(), &Config{ServiceName: "onboarding", LogLevel: "debug"})

	// Assert
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := ins.(noopInstrumentation); !ok {
		t.Fatalf("New() = %T, want noop", ins)
	}
	if err := ins.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New(context.Background(), &Config{LogLevel: "chatty"}); err == nil {
		t.Fatal("New() error = nil, want level error")
	}
}

func TestNoop(t *testing.T) {
	ins := NewNoop()

	_, span := ins.Tracer("t").Start(context.Background(), "op")
	span.End()
	if span.SpanContext().IsValid() {
		t.Fatal("noop span has a valid context")
	}

	if _, err := ins.Meter("m").Int64Counter("c"); err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
}
