// Package logging configures the process-wide phuslu logger.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// Setup installs a console logger at the given level on stderr.
func Setup(level string) {
	SetupWithWriter(level, os.Stderr)
}

// SetupWithWriter installs a console logger writing to w. Tests pass io.Discard.
func SetupWithWriter(level string, w io.Writer) {
	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "2006-01-02 15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:         w,
			ColorOutput:    w == os.Stderr,
			EndWithMessage: true,
		},
	}
}
