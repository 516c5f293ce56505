// Package signals runs cleanup handlers when the process is asked to stop.
package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mudler/xlog"
)

var (
	signalHandlers      []func()
	signalHandlersMutex sync.Mutex
	signalHandlersOnce  sync.Once

	// contexts handed out by NotifyContext that are still in use
	cancels     = map[int]context.CancelFunc{}
	nextCancel  int
	interrupted bool
)

func start() {
	signalHandlersOnce.Do(func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go signalHandler(c)
	})
}

// RegisterGracefulTerminationHandler queues fn to run on SIGINT or SIGTERM.
// Handlers run newest first, then the process exits with 128+signal.
func RegisterGracefulTerminationHandler(fn func()) {
	start()

	signalHandlersMutex.Lock()
	defer signalHandlersMutex.Unlock()
	signalHandlers = append(signalHandlers, fn)
}

// NotifyContext returns a context that is cancelled on SIGINT or SIGTERM.
// While it is in use the first signal only cancels it, so the caller can
// clean up and return on its own; a second signal exits. Call stop once the
// work is done.
func NotifyContext(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	start()

	ctx, cancel := context.WithCancel(parent)

	signalHandlersMutex.Lock()
	id := nextCancel
	nextCancel++
	cancels[id] = cancel
	signalHandlersMutex.Unlock()

	return ctx, func() {
		signalHandlersMutex.Lock()
		delete(cancels, id)
		signalHandlersMutex.Unlock()
		cancel()
	}
}

// handle cancels the live contexts on the first signal and reports whether
// the process should exit instead.
func handle(sig os.Signal) bool {
	signalHandlersMutex.Lock()
	defer signalHandlersMutex.Unlock()

	if len(cancels) == 0 || interrupted {
		return true
	}
	interrupted = true
	xlog.Info("termination signal received, cancelling running work", "signal", sig.String())
	for _, cancel := range cancels {
		cancel()
	}
	return false
}

func runHandlers() {
	signalHandlersMutex.Lock()
	defer signalHandlersMutex.Unlock()
	for i := len(signalHandlers) - 1; i >= 0; i-- {
		signalHandlers[i]()
	}
}

func signalHandler(c chan os.Signal) {
	for sig := range c {
		if !handle(sig) {
			continue
		}

		xlog.Info("termination signal received, cleaning up", "signal", sig.String())
		runHandlers()

		code := 1
		if s, ok := sig.(syscall.Signal); ok {
			code = 128 + int(s)
		}
		os.Exit(code)
	}
}
