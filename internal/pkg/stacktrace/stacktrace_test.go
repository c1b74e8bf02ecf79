package stacktrace

import (
	"strings"
	"testing"
)

func capturePanic() (frames []string) {
	defer func() {
		if recover() != nil {
			frames = Internal(0)
		}
	}()
	panicker()
	return nil
}

func panicker() {
	panic("boom")
}

func TestInternal(t *testing.T) {
	frames := capturePanic()

	if len(frames) == 0 {
		t.Fatal("Internal() returned no frames")
	}
	var sawPanicker bool
	for _, f := range frames {
		if !strings.HasPrefix(f, "internal/pkg/stacktrace/") {
			t.Fatalf("frame %q is not module relative", f)
		}
		if strings.Contains(f, "stacktrace.Internal") {
			t.Fatalf("frame %q includes Internal itself", f)
		}
		if strings.HasSuffix(f, "stacktrace.panicker") {
			sawPanicker = true
		}
	}
	if !sawPanicker {
		t.Fatalf("frames %v miss the panicking function", frames)
	}
}

func TestShortFunc(t *testing.T) {
	got := shortFunc("github.com/shandysiswandi/onboarding/internal/pkg/messaging.(*Delivery).Handle")
	if got != "messaging.(*Delivery).Handle" {
		t.Fatalf("shortFunc() = %q", got)
	}
}
