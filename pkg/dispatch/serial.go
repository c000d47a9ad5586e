package dispatch

import (
	"sync"
	"sync/atomic"

	bindErrors "github.com/go-drift/bind/pkg/errors"
)

// Serial runs posted callbacks one at a time on a dedicated goroutine, in the
// order they were posted. It gives every binding that shares it a single
// writer. Post never blocks: the queue is unbounded.
//
// A panicking callback is recovered, counted and reported through the
// errors package; the queue keeps running.
type Serial struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	running bool
	closed  bool
	done    chan struct{}
	panics  atomic.Int64
}

// NewSerial starts a Serial dispatcher. Call Close to stop it.
func NewSerial() *Serial {
	s := &Serial{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

// Post queues callback. Callbacks posted after Close are dropped.
func (s *Serial) Post(callback func()) {
	if callback == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, callback)
	s.cond.Broadcast()
}

// Pending returns the number of queued callbacks, excluding one that is
// currently running.
func (s *Serial) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Flush blocks until the queue is empty and no callback is running,
// including callbacks posted by other callbacks while flushing.
// It must not be called from a callback running on s.
func (s *Serial) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) > 0 || s.running {
		s.cond.Wait()
	}
}

// Close stops accepting callbacks, runs the ones already queued and waits
// for the worker goroutine to exit. Close is idempotent.
func (s *Serial) Close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

func (s *Serial) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		callback := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.running = true
		s.mu.Unlock()

		s.run(callback)

		s.mu.Lock()
		s.running = false
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

// Panics returns the number of callbacks that panicked.
func (s *Serial) Panics() int64 { return s.panics.Load() }

func (s *Serial) run(callback func()) {
	defer bindErrors.RecoverWithCallback("dispatch.Serial", func(any) { s.panics.Add(1) })
	callback()
}
