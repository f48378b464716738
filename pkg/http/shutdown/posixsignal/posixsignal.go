// Package posixsignal provides a shutdown manager triggered by POSIX signals.
package posixsignal

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/weft-sh/weft/pkg/http/shutdown"
)

// Name defines the shutdown manager name.
const Name = "PosixSignalManager"

// PosixSignalManager triggers shutdown on the configured signals and exits
// the process once all callbacks have run.
type PosixSignalManager struct {
	signals []os.Signal
}

// NewPosixSignalManager creates a manager watching the given signals,
// defaulting to SIGINT and SIGTERM.
func NewPosixSignalManager(sig ...os.Signal) *PosixSignalManager {
	if len(sig) == 0 {
		sig = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	return &PosixSignalManager{signals: sig}
}

// GetName returns the manager name.
func (p *PosixSignalManager) GetName() string { return Name }

// Start waits for one of the signals in a goroutine, then starts shutdown.
func (p *PosixSignalManager) Start(gs shutdown.GSInterface) error {
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, p.signals...)
		<-c

		gs.StartShutdown(p)
	}()

	return nil
}

// ShutdownStart does nothing.
func (p *PosixSignalManager) ShutdownStart() error { return nil }

// ShutdownFinish exits the process.
func (p *PosixSignalManager) ShutdownFinish() error {
	os.Exit(0)
	return nil
}
