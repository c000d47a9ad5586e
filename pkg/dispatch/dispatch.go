// Package dispatch schedules callbacks onto an execution context.
//
// A binding that holds a Dispatcher posts each destination write to it
// instead of running the write on the goroutine that mutated the endpoint.
// A nil Dispatcher means "run inline".
package dispatch

// Dispatcher schedules callback for execution on some captured context.
// Post must not block waiting for callback to run.
type Dispatcher interface {
	Post(callback func())
}

// Func adapts a scheduling function, such as a UI toolkit's "run on main
// thread" hook, to Dispatcher.
type Func func(callback func())

// Post calls f with callback. Nil callbacks are dropped.
func (f Func) Post(callback func()) {
	if f == nil || callback == nil {
		return
	}
	f(callback)
}

// Inline runs callbacks immediately on the calling goroutine.
type Inline struct{}

// Post runs callback.
func (Inline) Post(callback func()) {
	if callback != nil {
		callback()
	}
}

// Run posts callback to d, or runs it inline when d is nil.
// Returns true if the callback was handed to d.
func Run(d Dispatcher, callback func()) bool {
	if callback == nil {
		return false
	}
	if d == nil {
		callback()
		return false
	}
	d.Post(callback)
	return true
}
