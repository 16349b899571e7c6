//go:build !windows

package main

import (
	"os"
	"syscall"
)

// stopSignals are the signals that end a run gracefully.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
