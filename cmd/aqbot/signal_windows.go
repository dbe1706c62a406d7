//go:build windows

package main

import "os"

// shutdownSignals stop the bot and the preview watcher. Windows has no
// SIGTERM; the runtime maps Ctrl+C, Ctrl+Break and console close to
// os.Interrupt.
var shutdownSignals = []os.Signal{os.Interrupt}
