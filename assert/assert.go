// Package assert implements the module's debug/release trap: a single
// runtime switch rather than a build tag, so the test suite can exercise
// both the debug-panic and release-sentinel side of every programmer-error
// path.
package assert

import (
	"fmt"

	"go.uber.org/zap"
)

// Enabled toggles whether Assertf/Fatalf trap. Default true. Set to false
// to get the release behavior: every programmer-error path falls back to
// its documented sentinel instead of panicking.
var Enabled = true

var logger = zap.NewNop()

// UseLogger installs logger as the destination for assertion and fatal
// messages. Pass nil to revert to a no-op logger.
func UseLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Assertf logs at DPanicLevel and panics if cond is false and Enabled is
// true. Otherwise it is a no-op — the caller is expected to have its own
// release-mode fallback already in hand.
func Assertf(cond bool, format string, args ...any) {
	if cond || !Enabled {
		return
	}
	logger.Sugar().DPanicf(format, args...)
	panic(fmt.Sprintf(format, args...))
}

// Fatalf logs at FatalLevel, which zap turns into os.Exit(1), regardless
// of Enabled — out-of-memory is never recoverable, debug or release.
func Fatalf(format string, args ...any) {
	logger.Sugar().Fatalf(format, args...)
}
