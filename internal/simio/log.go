// Package simio wires the CLI's terminal-facing concerns: a shared
// logrus logger and color/tty detection.
package simio

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger writing to stderr for all
// diagnostic output. Color is disabled automatically when stderr
// isn't a terminal.
func NewLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:    !IsTerminal(os.Stderr),
		FullTimestamp:    false,
		DisableTimestamp: true,
	})
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
