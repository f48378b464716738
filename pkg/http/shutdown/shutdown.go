// Package shutdown coordinates graceful shutdown: managers (signal sources)
// trigger registered callbacks, then report completion back to the manager.
package shutdown

import "sync"

// ShutdownCallback is called when a shutdown is requested. The parameter
// is the name of the manager that requested it.
type ShutdownCallback interface {
	OnShutdown(managerName string) error
}

// Func is a ShutdownCallback adapter for plain functions.
type Func func(managerName string) error

// OnShutdown implements ShutdownCallback.
func (f Func) OnShutdown(managerName string) error { return f(managerName) }

// ShutdownManager watches for a shutdown trigger (a POSIX signal, an API
// call, ...) and drives GSInterface when it fires.
type ShutdownManager interface {
	GetName() string
	Start(gs GSInterface) error
	ShutdownStart() error
	ShutdownFinish() error
}

// ErrorHandler receives errors raised during shutdown handling.
type ErrorHandler interface {
	OnError(err error)
}

// GSInterface is the surface a ShutdownManager drives.
type GSInterface interface {
	StartShutdown(sm ShutdownManager)
	ReportError(err error)
	AddShutdownCallback(callback ShutdownCallback)
}

// GracefulShutdown is the main struct that holds all callbacks and managers.
type GracefulShutdown struct {
	callbacks    []ShutdownCallback
	managers     []ShutdownManager
	errorHandler ErrorHandler
}

// New creates an empty GracefulShutdown.
func New() *GracefulShutdown {
	return &GracefulShutdown{
		callbacks: make([]ShutdownCallback, 0, 4),
		managers:  make([]ShutdownManager, 0, 2),
	}
}

// Start starts all registered shutdown managers.
func (gs *GracefulShutdown) Start() error {
	for _, manager := range gs.managers {
		if err := manager.Start(gs); err != nil {
			return err
		}
	}
	return nil
}

// AddShutdownManager registers a manager.
func (gs *GracefulShutdown) AddShutdownManager(manager ShutdownManager) {
	gs.managers = append(gs.managers, manager)
}

// AddShutdownCallback registers a callback run on shutdown.
func (gs *GracefulShutdown) AddShutdownCallback(callback ShutdownCallback) {
	gs.callbacks = append(gs.callbacks, callback)
}

// SetErrorHandler sets the handler invoked for callback errors.
func (gs *GracefulShutdown) SetErrorHandler(errorHandler ErrorHandler) {
	gs.errorHandler = errorHandler
}

// StartShutdown runs ShutdownStart, all callbacks in parallel, then
// ShutdownFinish on the triggering manager.
func (gs *GracefulShutdown) StartShutdown(sm ShutdownManager) {
	gs.ReportError(sm.ShutdownStart())

	var wg sync.WaitGroup
	for _, callback := range gs.callbacks {
		wg.Add(1)
		go func(callback ShutdownCallback) {
			defer wg.Done()
			gs.ReportError(callback.OnShutdown(sm.GetName()))
		}(callback)
	}
	wg.Wait()

	gs.ReportError(sm.ShutdownFinish())
}

// ReportError forwards a non-nil error to the error handler.
func (gs *GracefulShutdown) ReportError(err error) {
	if err != nil && gs.errorHandler != nil {
		gs.errorHandler.OnError(err)
	}
}
