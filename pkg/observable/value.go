package observable

import "sync"

// Value is a thread-safe observable cell holding a value of type T.
//
// Writes only notify listeners when the new value differs from the current
// one. Values created with NewValue compare with ==; NewValueWithEquality
// accepts a custom comparison, and falls back to DefaultEqual, which
// compares slices and maps by reference.
type Value[T any] struct {
	mu        sync.Mutex
	value     T
	equal     func(a, b T) bool
	listeners listenerList[func(T) error]
}

// NewValue creates a Value that compares values with ==.
func NewValue[T comparable](initial T) *Value[T] {
	return &Value[T]{
		value: initial,
		equal: func(a, b T) bool { return a == b },
	}
}

// NewValueWithEquality creates a Value that uses equal to decide whether a
// write changes the value. A nil equal selects DefaultEqual.
func NewValueWithEquality[T any](initial T, equal func(a, b T) bool) *Value[T] {
	if equal == nil {
		equal = DefaultEqual[T]()
	}
	return &Value[T]{
		value: initial,
		equal: equal,
	}
}

// Value returns the current value.
func (v *Value[T]) Value() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set stores value and notifies listeners if it changed.
// It returns the joined errors of the listeners.
func (v *Value[T]) Set(value T) error {
	_, err := v.SetValue(value, true)
	return err
}

// SetValue stores value if it differs from the current value and reports
// whether it did. When emit is false the write is silent and no listener
// runs. Listeners run after the lock is released.
func (v *Value[T]) SetValue(value T, emit bool) (bool, error) {
	v.mu.Lock()
	if v.equal(v.value, value) {
		v.mu.Unlock()
		return false, nil
	}
	v.value = value
	var entries []listenerEntry[func(T) error]
	if emit {
		entries = v.listeners.snapshot()
	}
	v.mu.Unlock()

	return true, notifyAll(entries, func(fn func(T) error) error { return fn(value) })
}

// Update applies transform to the current value and stores the result.
func (v *Value[T]) Update(transform func(T) T) error {
	return v.Set(transform(v.Value()))
}

// InvokeChange notifies listeners with the current value without altering
// it. Use it to force downstream recomputation.
func (v *Value[T]) InvokeChange() error {
	v.mu.Lock()
	value := v.value
	entries := v.listeners.snapshot()
	v.mu.Unlock()

	return notifyAll(entries, func(fn func(T) error) error { return fn(value) })
}

// AddListener registers fn to receive the new value after each change.
// Returns an unsubscribe function; calling it more than once is harmless.
func (v *Value[T]) AddListener(fn func(T) error) func() {
	if fn == nil {
		return func() {}
	}
	v.mu.Lock()
	id := v.listeners.add(fn)
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			v.listeners.remove(id)
			v.mu.Unlock()
		})
	}
}

// ListenerCount returns the number of registered listeners.
func (v *Value[T]) ListenerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.listeners.len()
}
