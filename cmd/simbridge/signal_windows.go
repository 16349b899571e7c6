//go:build windows

package main

import "os"

// stopSignals are the signals that end a run gracefully. Windows only
// delivers os.Interrupt.
var stopSignals = []os.Signal{os.Interrupt}
