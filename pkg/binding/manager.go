package binding

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/go-drift/bind/pkg/dispatch"
	bindErrors "github.com/go-drift/bind/pkg/errors"
	"github.com/go-drift/bind/pkg/observability"
	"github.com/go-drift/bind/pkg/observable"
)

// Handle is the type-erased view of a Binding held by a Manager.
type Handle interface {
	ID() uuid.UUID
	Mode() Mode
	MemberName() string
	IsBound() bool
	IsDisposed() bool
	Bind() error
	Unbind()
	Dispose()
}

var _ Handle = (*Binding[string, *observable.Notifier, string])(nil)

// Manager owns a set of bindings and disposes them together. It also
// supplies defaults to the bindings created through Bind.
type Manager struct {
	dispatcher dispatch.Dispatcher
	locale     language.Tag
	observer   observability.Observer
	onError    func(error)

	mu       sync.Mutex
	bindings map[uuid.UUID]Handle
	disposed bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDispatcher sets the dispatcher used by bindings that don't set one.
func WithDispatcher(d dispatch.Dispatcher) ManagerOption {
	return func(m *Manager) { m.dispatcher = d }
}

// WithLocale sets the converter locale used by bindings whose Params carry
// none.
func WithLocale(tag language.Tag) ManagerOption {
	return func(m *Manager) { m.locale = tag }
}

// WithObserver sets the observer used by the manager and by bindings that
// don't set one.
func WithObserver(o observability.Observer) ManagerOption {
	return func(m *Manager) { m.observer = o }
}

// WithErrorHandler sets the handler for failed dispatched updates of
// bindings that don't set one.
func WithErrorHandler(fn func(error)) ManagerOption {
	return func(m *Manager) { m.onError = fn }
}

// NewManager creates an empty manager. Without options bindings update
// inline, use the undetermined locale and emit no events.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		locale:   language.Und,
		bindings: make(map[uuid.UUID]Handle),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.observer == nil {
		m.observer = observability.NoOpObserver{}
	}
	return m
}

// Bind creates a binding with the manager's defaults filled into opts,
// binds it and starts tracking it. If the initial sync fails the binding is
// disposed and the error returned.
func Bind[T any, S observable.ChangeNotifier, V any](m *Manager, property Property[T], source S, member Member[S, V], opts Options[T, V]) (*Binding[T, S, V], error) {
	if m.isDisposed() {
		return nil, bindErrors.Disposed("binding.Manager.Bind")
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = m.dispatcher
	}
	if opts.Observer == nil {
		opts.Observer = m.observer
	}
	if opts.OnError == nil {
		opts.OnError = m.onError
	}
	if opts.Params.Locale == language.Und {
		opts.Params.Locale = m.locale
	}

	b, err := New(property, source, member, opts)
	if err != nil {
		return nil, err
	}
	if err := m.track(b); err != nil {
		return nil, err
	}
	if err := b.Bind(); err != nil {
		m.Remove(b.ID())
		return nil, err
	}
	return b, nil
}

func (m *Manager) track(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return bindErrors.Disposed("binding.Manager.Bind")
	}
	m.bindings[h.ID()] = h
	return nil
}

// Get returns the tracked binding with the given ID.
func (m *Manager) Get(id uuid.UUID) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.bindings[id]
	return h, ok
}

// Len returns the number of tracked bindings.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bindings)
}

// Remove disposes and untracks one binding. It reports whether the binding
// was tracked.
func (m *Manager) Remove(id uuid.UUID) bool {
	m.mu.Lock()
	h, ok := m.bindings[id]
	delete(m.bindings, id)
	m.mu.Unlock()
	if ok {
		h.Dispose()
	}
	return ok
}

// DisposeAll disposes every tracked binding and clears the set. The manager
// stays usable.
func (m *Manager) DisposeAll() {
	m.mu.Lock()
	handles := make([]Handle, 0, len(m.bindings))
	for _, h := range m.bindings {
		handles = append(handles, h)
	}
	clear(m.bindings)
	m.mu.Unlock()

	for _, h := range handles {
		h.Dispose()
	}
}

// Dispose disposes every binding and rejects further Bind calls.
// Subsequent calls do nothing.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	count := len(m.bindings)
	m.mu.Unlock()

	m.DisposeAll()
	m.observer.OnEvent(context.Background(), observability.Event{
		Type:      observability.EventManagerDispose,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "binding.Manager",
		Data:      map[string]any{observability.KeyCount: count},
	})
	slog.Debug("binding manager disposed", "bindings", count)
}

// IsDisposed reports whether Dispose has been called.
func (m *Manager) IsDisposed() bool { return m.isDisposed() }

func (m *Manager) isDisposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}
