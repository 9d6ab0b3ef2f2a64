package utils

import "github.com/sirupsen/logrus"

// Log is the package-wide structured logger. Callers that need scoped
// fields should use Log.WithFields rather than constructing their own
// logrus.Logger, keeping output format consistent across the parser,
// tracer, and editor.
var Log = logrus.New()

// SetLogLevel parses a level name (e.g. "debug", "info", "warn") and
// applies it to Log, falling back to logrus.InfoLevel on an unrecognized
// name rather than failing the caller's configuration load.
func SetLogLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Log.SetLevel(parsed)
}
