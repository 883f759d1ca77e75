package engine

import (
	"context"
	"sync"
	"time"
)

// Unit handles synchronization management, startup, and shutdown for engines.
type Unit struct {
	admitLock sync.Mutex // used for synchronizing context cancellation with work admittance
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewUnit returns a new unit.
func NewUnit() *Unit {
	ctx, cancel := context.WithCancel(context.Background())
	return &Unit{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Ctx returns a context with the same lifecycle scope as the unit. In particular,
// it is cancelled when Done is called, so it can be used as the parent context
// for processes spawned by any engine whose lifecycle is managed by a unit.
func (u *Unit) Ctx() context.Context {
	return u.ctx
}

// Launch asynchronously executes the input function unless the unit has shut
// down. If the unit is shut down, the function is not executed.
func (u *Unit) Launch(f func()) {
	u.admitLock.Lock()
	if u.ctx.Err() != nil {
		u.admitLock.Unlock()
		return
	}
	u.wg.Add(1)
	u.admitLock.Unlock()

	go func() {
		defer u.wg.Done()
		f()
	}()
}

// LaunchPeriodically asynchronously executes the input function on `interval` periods
// unless the unit has shut down.
// If f is executed, the unit will not shut down until after f returns.
// Executions of f never overlap.
func (u *Unit) LaunchPeriodically(f func(), interval time.Duration, delay time.Duration) {
	u.Launch(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		select {
		case <-u.ctx.Done():
			return
		case <-time.After(delay):
		}

		for {
			select {
			case <-u.ctx.Done():
				return
			default:
			}

			select {
			case <-u.ctx.Done():
				return
			case <-ticker.C:
				f()
			}
		}
	})
}

// Ready returns a channel that is closed when the unit is ready. A unit is
// ready when the series of "check" functions are executed.
func (u *Unit) Ready(checks ...func()) <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		for _, check := range checks {
			check()
		}
		close(ready)
	}()
	return ready
}

// Quit returns a channel that is closed when the unit begins to shut down.
func (u *Unit) Quit() <-chan struct{} {
	return u.ctx.Done()
}

// Done returns a channel that is closed when the unit is done. A unit is done
// when (i) the series of "action" functions are executed and (ii) all pending
// functions invoked with `Launch` or `LaunchPeriodically` are completed.
//
// The engine using the unit is responsible for defining these action functions
// as required.
func (u *Unit) Done(actions ...func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		u.admitLock.Lock()
		u.cancel()
		u.admitLock.Unlock()
		for _, action := range actions {
			action()
		}
		u.wg.Wait()
		close(done)
	}()
	return done
}
