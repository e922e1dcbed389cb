package logging

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// crashTarget is the process-wide logger that crash events are routed
// through. The first Logger constructed in the process claims it;
// later instances do not replace it, so a process never reports one
// crash through two alerting channels.
var crashTarget atomic.Pointer[Logger]

func installCrashTarget(l *Logger) {
	crashTarget.CompareAndSwap(nil, l)
}

/**
 * CapturePanic converts an escaping panic into an error-level log event
 * and then re-panics, leaving the runtime's termination behavior intact.
 * Defer it at the top of main:
 *
 *   defer logging.CapturePanic()
 *
 * The captured failure goes through the same dedup/rate-limit policy as
 * any other error.
 */
func CapturePanic() {
	r := recover()
	if r == nil {
		return
	}

	if l := crashTarget.Load(); l != nil {
		l.log(LevelError, fmt.Sprintf("uncaught panic: %v", r), map[string]string{"stack": stack()})
		// Give the fire-and-forget send a chance before the process dies.
		l.dispatcher.Flush()
	}

	panic(r)
}

/**
 * Go runs fn on its own goroutine and captures any panic it raises,
 * logging it as an error-level event instead of crashing the process.
 * This is the asynchronous counterpart of CapturePanic: background
 * failures surface as observable alerts rather than taking the process
 * down unobserved.
 *
 * @param fn Function to run in the background
 */
func Go(fn func()) {
	go func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if l := crashTarget.Load(); l != nil {
				l.log(LevelError, fmt.Sprintf("unhandled goroutine panic: %v", r), map[string]string{"stack": stack()})
			}
		}()
		fn()
	}()
}

// stack returns a best-effort stack trace for crash diagnostics.
func stack() string {
	buf := make([]byte, 64<<10)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
