package service

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/logger"
)

// DefaultStartupTimeout bounds back-mode startup (§4.11 "hard timeout,
// default 90s").
const DefaultStartupTimeout = 90 * time.Second

// StartFunc performs the actual bring-up (dialing the gateway, running
// LoadAll, attaching the dispatcher) and blocks until ctx is cancelled,
// signaling readiness exactly once via the markReady callback it's handed.
type StartFunc func(ctx context.Context, markReady func()) error

// RunFront blocks until fn returns or the process receives an interrupt,
// in which case ctx is cancelled and fn is given the chance to shut down
// in an orderly fashion (§4.11 "Front" mode).
func RunFront(fn StartFunc) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		logger.Infow("received interrupt, shutting down")
		cancel()
	}()

	return fn(ctx, func() {})
}

// Handle is returned by RunBack once startup completes, carrying the
// cancel function the caller uses to trigger shutdown, plus the error
// channel fn eventually reports its terminal error (if any) on.
type Handle struct {
	Cancel context.CancelFunc
	Err    <-chan error
}

// RunBack returns a builder whose Start spawns fn on a worker goroutine and
// blocks only until fn calls markReady, then returns a Handle (§4.11 "Back"
// mode). If fn exits first, or the startup timeout (DefaultStartupTimeout
// when timeout <= 0) elapses, Start returns an error instead. Startup is signaled via a shared synchronization
// primitive (sync.Once over a channel close), matching the source's
// single-fire startup-event handler.
func RunBack(timeout time.Duration) *runBackBuilder {
	if timeout <= 0 {
		timeout = DefaultStartupTimeout
	}
	return &runBackBuilder{timeout: timeout}
}

type runBackBuilder struct {
	timeout time.Duration
}

// Start runs fn and blocks until ready or timeout.
func (b *runBackBuilder) Start(fn StartFunc) (*Handle, error) {
	ctx, cancel := context.WithCancel(context.Background())

	ready := make(chan struct{})
	var once sync.Once
	markReady := func() { once.Do(func() { close(ready) }) }

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := fn(ctx, markReady); err != nil {
			errCh <- err
		}
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case <-ready:
		return &Handle{Cancel: cancel, Err: errCh}, nil
	case err := <-errCh:
		cancel()
		if err == nil {
			err = errors.Newf("service startup exited before signaling ready")
		}
		return nil, errors.ConnectionError(err, "back-mode startup failed")
	case <-timer.C:
		cancel()
		return nil, errors.TimeoutError("back-mode startup did not signal ready within %s", b.timeout)
	}
}
