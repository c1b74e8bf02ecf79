// Package stacktrace trims goroutine stacks down to this module's frames for
// panic logs.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const maxDepth = 64

// Internal returns the caller's frames that live under an internal/ directory,
// formatted as "internal/<path>.go:<line> <func>". skip counts frames above the
// caller of Internal, as in runtime.Callers.
func Internal(skip int) []string {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		frame, more := frames.Next()
		// stdlib frames such as internal/poll have no slash before internal/
		if rel, ok := internalPath(frame.File); ok && strings.Contains(frame.Function, "/internal/") &&
			!strings.HasSuffix(frame.Function, "stacktrace.Internal") {
			out = append(out, rel+":"+strconv.Itoa(frame.Line)+" "+shortFunc(frame.Function))
		}
		if !more {
			break
		}
	}

	return out
}

func internalPath(file string) (string, bool) {
	idx := strings.LastIndex(file, "/internal/")
	if idx == -1 {
		return "", false
	}
	return file[idx+1:], true
}

// shortFunc drops the module path: github.com/x/y/internal/pkg/messaging.(*Delivery).Handle
// becomes messaging.(*Delivery).Handle.
func shortFunc(fn string) string {
	if idx := strings.LastIndex(fn, "/"); idx != -1 {
		return fn[idx+1:]
	}
	return fn
}
