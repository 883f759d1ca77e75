package util

import (
	"context"
	"sync"

	"github.com/guildnet/guild-oracle/module"
)

// AllReady starts every component and closes the returned channel once
// all of them are ready.
func AllReady(components ...module.ReadyDoneAware) <-chan struct{} {
	return AllClosed(each(components, module.ReadyDoneAware.Ready)...)
}

// AllDone stops every component and closes the returned channel once all
// of them are done.
func AllDone(components ...module.ReadyDoneAware) <-chan struct{} {
	return AllClosed(each(components, module.ReadyDoneAware.Done)...)
}

func each(components []module.ReadyDoneAware, f func(module.ReadyDoneAware) <-chan struct{}) []<-chan struct{} {
	chans := make([]<-chan struct{}, 0, len(components))
	for _, c := range components {
		chans = append(chans, f(c))
	}
	return chans
}

// AllClosed closes the returned channel after every input channel closed.
func AllClosed(channels ...<-chan struct{}) <-chan struct{} {
	closed := make(chan struct{})
	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch <-chan struct{}) {
			defer wg.Done()
			<-ch
		}(ch)
	}
	go func() {
		wg.Wait()
		close(closed)
	}()
	return closed
}

// WaitClosed blocks until ch is closed or ctx is done. A channel closed at
// the same moment the context is cancelled counts as closed.
func WaitClosed(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
	}
	select {
	case <-ch:
		return nil
	default:
		return ctx.Err()
	}
}

// CheckClosed reports whether ch is closed without blocking.
func CheckClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
