//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop the bot and the preview watcher. SIGTERM is what
// systemd and container runtimes send.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
