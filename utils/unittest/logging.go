package unittest

import (
	"flag"
	"io"
	"os"

	"github.com/rs/zerolog"
)

var verboseLogs = flag.Bool("vv", false, "print component logs while testing")

// Logger returns a debug-level logger that discards output unless the test
// binary runs with -vv.
func Logger() zerolog.Logger {
	var out io.Writer = io.Discard
	if *verboseLogs {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(out).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
