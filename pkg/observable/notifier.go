package observable

import "sync"

// ChangeNotifier is implemented by objects that announce member changes.
//
// Listeners receive the name of the member that changed. An empty name means
// any member may have changed.
type ChangeNotifier interface {
	AddChangeListener(fn func(member string) error) (remove func())
}

// Notifier is a ChangeNotifier intended to be embedded in view-models.
// The zero value is ready to use.
type Notifier struct {
	mu        sync.Mutex
	listeners listenerList[func(string) error]
}

var _ ChangeNotifier = (*Notifier)(nil)

// AddChangeListener registers fn and returns a function that removes it.
func (n *Notifier) AddChangeListener(fn func(member string) error) func() {
	if fn == nil {
		return func() {}
	}
	n.mu.Lock()
	id := n.listeners.add(fn)
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			n.listeners.remove(id)
			n.mu.Unlock()
		})
	}
}

// NotifyChanged tells every listener that member changed.
// Pass "" to signal that all members may have changed.
func (n *Notifier) NotifyChanged(member string) error {
	n.mu.Lock()
	entries := n.listeners.snapshot()
	n.mu.Unlock()

	return notifyAll(entries, func(fn func(string) error) error { return fn(member) })
}

// ListenerCount returns the number of registered listeners.
func (n *Notifier) ListenerCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.listeners.len()
}

// SetField stores value in *field and announces member on n if the value
// changed. It does not synchronise access to field; models written from
// several goroutines should use Field instead.
func SetField[T comparable](n *Notifier, field *T, value T, member string) (bool, error) {
	if *field == value {
		return false, nil
	}
	*field = value
	return true, n.NotifyChanged(member)
}

// Field is a mutex-guarded model member that announces its changes through a
// Notifier.
type Field[T comparable] struct {
	mu    sync.Mutex
	value T
}

// Get returns the current value.
func (f *Field[T]) Get() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Set stores value and, if it changed, announces member on n after the lock
// is released.
func (f *Field[T]) Set(n *Notifier, value T, member string) (bool, error) {
	f.mu.Lock()
	if f.value == value {
		f.mu.Unlock()
		return false, nil
	}
	f.value = value
	f.mu.Unlock()
	return true, n.NotifyChanged(member)
}
