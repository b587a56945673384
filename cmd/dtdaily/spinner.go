package main

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// startSpinner shows progress on stderr when stdout is a terminal. The
// returned stop func is always safe to call.
func startSpinner(msg string) (stop func()) {
	if !isTerminal() {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
