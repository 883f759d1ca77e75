package module

// ReadyDoneAware is implemented by long-running components. Ready starts
// the component and Done stops it; each returns a channel closed once the
// transition completed. A component runs at most once.
type ReadyDoneAware interface {
	Ready() <-chan struct{}
	Done() <-chan struct{}
}
