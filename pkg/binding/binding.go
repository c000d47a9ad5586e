package binding

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/go-drift/bind/pkg/convert"
	"github.com/go-drift/bind/pkg/dispatch"
	bindErrors "github.com/go-drift/bind/pkg/errors"
	"github.com/go-drift/bind/pkg/observability"
	"github.com/go-drift/bind/pkg/observable"
)

// Property is the view side of a binding: a value cell with equality-gated
// writes and change listeners. *observable.Value and *observable.Collection
// implement it.
type Property[T any] interface {
	Value() T
	SetValue(value T, emit bool) (bool, error)
	AddListener(fn func(T) error) (remove func())
}

var (
	_ Property[int]                   = (*observable.Value[int])(nil)
	_ Property[*observable.List[int]] = (*observable.Collection[int])(nil)
)

// Options configures a Binding. The zero value is a TwoWay binding without
// a converter that writes inline.
type Options[T, V any] struct {
	// Mode selects the propagation direction(s).
	Mode Mode
	// Converter maps between the property type T and the member type V.
	// Required when neither type is assignable to the other.
	Converter convert.Converter[T, V]
	// Params is passed to every Converter call.
	Params convert.Params
	// Dispatcher receives every destination write. Nil writes inline.
	Dispatcher dispatch.Dispatcher
	// Observer receives binding events. Nil discards them.
	Observer observability.Observer
	// OnError receives failures of updates that ran on the Dispatcher.
	// Nil reports them through errors.Report.
	OnError func(error)
}

// Binding couples a Property[T] with the member of type V of a source
// object S.
//
// Propagation follows the Mode. Each update reads the origin, converts the
// value, compares it with the destination and writes only when it differs,
// so a converged pair stops after at most one redundant hop.
//
// Without a Dispatcher, updates run on the goroutine that mutated the
// origin and their errors are returned to that mutation's caller. Writers on
// both sides race in that case; the destination ends up with whichever
// write lands last. With a Dispatcher every update for this binding is
// posted to it, the update re-reads the origin when it runs, and failures
// go to Options.OnError. A serial dispatcher therefore gives one writer per
// binding and a consistent final state.
//
// A Binding is created unbound. Bind subscribes and performs the initial
// sync; Unbind and Dispose may be called any number of times.
type Binding[T any, S observable.ChangeNotifier, V any] struct {
	id         uuid.UUID
	property   Property[T]
	source     S
	member     Member[S, V]
	mode       Mode
	converter  convert.Converter[T, V]
	params     convert.Params
	dispatcher dispatch.Dispatcher
	observer   observability.Observer
	onError    func(error)
	equal      func(a, b V) bool

	mu          sync.Mutex
	unsubscribe []func()
	disposed    atomic.Bool
}

// New validates its arguments and returns an unbound Binding. All failures
// are invalid-argument errors.
func New[T any, S observable.ChangeNotifier, V any](property Property[T], source S, member Member[S, V], opts Options[T, V]) (*Binding[T, S, V], error) {
	const op = "binding.New"
	invalid := func(format string, args ...any) error {
		err := bindErrors.InvalidArgument(op, format, args...)
		err.Member = member.Name
		return err
	}

	switch {
	case isNil(property):
		return nil, invalid("property is nil")
	case isNil(source):
		return nil, invalid("source is nil")
	case member.Name == "":
		return nil, invalid("member has no name")
	case member.Get == nil:
		return nil, invalid("member %q is not readable", member.Name)
	case !opts.Mode.Valid():
		return nil, invalid("invalid mode %d", int(opts.Mode))
	case opts.Mode.writesSource() && member.Set == nil:
		return nil, invalid("member %q is read-only, cannot do %s binding", member.Name, opts.Mode)
	}
	if isNil(opts.Converter) {
		opts.Converter = nil
		pt, mt := reflect.TypeFor[T](), reflect.TypeFor[V]()
		if !mt.AssignableTo(pt) && !pt.AssignableTo(mt) {
			return nil, invalid("property type %s and member type %s are not compatible and no converter is provided", pt, mt)
		}
	}

	b := &Binding[T, S, V]{
		id:         uuid.New(),
		property:   property,
		source:     source,
		member:     member,
		mode:       opts.Mode,
		converter:  opts.Converter,
		params:     opts.Params,
		dispatcher: opts.Dispatcher,
		observer:   opts.Observer,
		onError:    opts.OnError,
		equal:      member.Equal,
	}
	if b.observer == nil {
		b.observer = observability.NoOpObserver{}
	}
	if b.equal == nil {
		b.equal = observable.DefaultEqual[V]()
	}
	return b, nil
}

// ID returns the binding's unique identifier.
func (b *Binding[T, S, V]) ID() uuid.UUID { return b.id }

// Mode returns the binding mode.
func (b *Binding[T, S, V]) Mode() Mode { return b.mode }

// MemberName returns the name of the bound source member.
func (b *Binding[T, S, V]) MemberName() string { return b.member.Name }

// Property returns the bound property.
func (b *Binding[T, S, V]) Property() Property[T] { return b.property }

// Source returns the bound source object.
func (b *Binding[T, S, V]) Source() S { return b.source }

// IsBound reports whether the binding is currently subscribed.
func (b *Binding[T, S, V]) IsBound() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unsubscribe != nil
}

// IsDisposed reports whether Dispose has been called.
func (b *Binding[T, S, V]) IsDisposed() bool { return b.disposed.Load() }

// Bind subscribes to both endpoints and performs the initial sync:
// property→source for OneWayToSource, source→property otherwise.
// Binding an already bound binding does nothing. Bind returns a disposed
// error after Dispose, and the initial sync's error when it runs inline.
func (b *Binding[T, S, V]) Bind() error {
	b.mu.Lock()
	if b.disposed.Load() {
		b.mu.Unlock()
		return b.disposedError("binding.Bind")
	}
	if b.unsubscribe != nil {
		b.mu.Unlock()
		return nil
	}
	b.unsubscribe = []func(){
		b.source.AddChangeListener(b.onSourceChanged),
		b.property.AddListener(b.onPropertyChanged),
	}
	b.mu.Unlock()

	b.emit(observability.EventBind, observability.LevelInfo, nil)

	if b.mode == OneWayToSource {
		return b.schedule(b.updateSource)
	}
	return b.schedule(b.updateProperty)
}

// Unbind removes both subscriptions. It is safe to call on a binding that
// was never bound.
func (b *Binding[T, S, V]) Unbind() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()

	if unsubscribe == nil {
		return
	}
	for _, remove := range unsubscribe {
		remove()
	}
	b.emit(observability.EventUnbind, observability.LevelInfo, nil)
}

// Dispose unbinds and marks the binding disposed. Updates already posted to
// the dispatcher become no-ops. Dispose is idempotent.
func (b *Binding[T, S, V]) Dispose() {
	b.mu.Lock()
	if b.disposed.Load() {
		b.mu.Unlock()
		return
	}
	b.disposed.Store(true)
	b.mu.Unlock()

	b.Unbind()
	b.emit(observability.EventDispose, observability.LevelInfo, nil)
}

// UpdateProperty copies the source member to the property now, regardless
// of mode.
func (b *Binding[T, S, V]) UpdateProperty() error {
	if b.disposed.Load() {
		return b.disposedError("binding.UpdateProperty")
	}
	return b.schedule(b.updateProperty)
}

// UpdateSource copies the property to the source member now. It fails when
// the member is read-only.
func (b *Binding[T, S, V]) UpdateSource() error {
	if b.disposed.Load() {
		return b.disposedError("binding.UpdateSource")
	}
	if b.member.Set == nil {
		return b.annotate(bindErrors.InvalidArgument("binding.UpdateSource", "member %q is read-only", b.member.Name))
	}
	return b.schedule(b.updateSource)
}

func (b *Binding[T, S, V]) onSourceChanged(member string) error {
	if b.disposed.Load() || !b.mode.sourceToProperty() {
		return nil
	}
	if member != "" && member != b.member.Name {
		return nil
	}
	return b.schedule(b.updateProperty)
}

func (b *Binding[T, S, V]) onPropertyChanged(T) error {
	if b.disposed.Load() || !b.mode.propertyToSource() {
		return nil
	}
	return b.schedule(b.updateSource)
}

// schedule runs update inline, or posts it to the dispatcher. A posted
// update is skipped if the binding was disposed while queued, and reports
// its failure. Both update functions check again right before writing.
func (b *Binding[T, S, V]) schedule(update func() error) error {
	if b.dispatcher == nil {
		return update()
	}
	b.dispatcher.Post(func() {
		if b.disposed.Load() {
			return
		}
		if err := update(); err != nil {
			b.report(err)
		}
	})
	return nil
}

// updateProperty reads the source member, converts it and writes the
// property if the value differs.
func (b *Binding[T, S, V]) updateProperty() (err error) {
	const op = "binding.updateProperty"
	defer b.recoverUpdate(op, SourceToProperty, &err)

	value, err := b.toProperty(b.member.Get(b.source))
	if err != nil {
		return b.updateError(op, SourceToProperty, err)
	}
	if b.disposed.Load() {
		return nil
	}
	changed, err := b.property.SetValue(value, true)
	b.emitWrite(SourceToProperty, changed)
	if err != nil {
		return b.updateError(op, SourceToProperty, err)
	}
	return nil
}

// updateSource reads the property, converts it and writes the source
// member if the value differs.
func (b *Binding[T, S, V]) updateSource() (err error) {
	const op = "binding.updateSource"
	defer b.recoverUpdate(op, PropertyToSource, &err)

	value, err := b.toSource(b.property.Value())
	if err != nil {
		return b.updateError(op, PropertyToSource, err)
	}
	if b.equal(b.member.Get(b.source), value) {
		b.emitWrite(PropertyToSource, false)
		return nil
	}
	if b.disposed.Load() {
		return nil
	}
	err = b.member.Set(b.source, value)
	b.emitWrite(PropertyToSource, true)
	if err != nil {
		return b.updateError(op, PropertyToSource, err)
	}
	return nil
}

// toProperty maps a member value to the property type: through
// ConvertBack, else by assertion, else the zero value.
func (b *Binding[T, S, V]) toProperty(v V) (T, error) {
	if b.converter != nil {
		return b.converter.ConvertBack(v, b.params)
	}
	if t, ok := any(v).(T); ok {
		return t, nil
	}
	var zero T
	return zero, nil
}

// toSource maps a property value to the member type: through Convert,
// else by assertion, else the zero value.
func (b *Binding[T, S, V]) toSource(t T) (V, error) {
	if b.converter != nil {
		return b.converter.Convert(t, b.params)
	}
	if v, ok := any(t).(V); ok {
		return v, nil
	}
	var zero V
	return zero, nil
}

// updateError wraps err as an update error unless it already is one, which
// happens when the reverse hop of the same chain failed.
func (b *Binding[T, S, V]) updateError(op string, dir Direction, err error) error {
	b.emit(observability.EventError, observability.LevelError, map[string]any{
		observability.KeyDirection: string(dir),
		observability.KeyError:     err.Error(),
	})
	if stderrors.Is(err, bindErrors.ErrUpdate) {
		return err
	}
	return b.annotate(&bindErrors.BindingError{
		Op:        op,
		Kind:      bindErrors.KindUpdate,
		Err:       err,
		Timestamp: time.Now(),
	})
}

func (b *Binding[T, S, V]) recoverUpdate(op string, dir Direction, err *error) {
	r := recover()
	if r == nil {
		return
	}
	*err = b.updateError(op, dir, &bindErrors.PanicError{
		Op:         op,
		Value:      r,
		StackTrace: bindErrors.CaptureStack(),
		Timestamp:  time.Now(),
	})
}

func (b *Binding[T, S, V]) report(err error) {
	if b.onError != nil {
		b.onError(err)
		return
	}
	var be *bindErrors.BindingError
	if !stderrors.As(err, &be) {
		be = b.annotate(&bindErrors.BindingError{Op: "binding.dispatch", Kind: bindErrors.KindUpdate, Err: err})
	}
	bindErrors.Report(be)
}

func (b *Binding[T, S, V]) disposedError(op string) error {
	return b.annotate(bindErrors.Disposed(op))
}

func (b *Binding[T, S, V]) annotate(err *bindErrors.BindingError) *bindErrors.BindingError {
	err.Binding = b.id.String()
	err.Member = b.member.Name
	return err
}

func (b *Binding[T, S, V]) emitWrite(dir Direction, changed bool) {
	typ := observability.EventSkip
	if changed {
		typ = observability.EventUpdate
	}
	b.emit(typ, observability.LevelVerbose, map[string]any{observability.KeyDirection: string(dir)})
}

func (b *Binding[T, S, V]) emit(typ observability.EventType, level observability.Level, data map[string]any) {
	if _, ok := b.observer.(observability.NoOpObserver); ok {
		return
	}
	if data == nil {
		data = make(map[string]any, 3)
	}
	data[observability.KeyBinding] = b.id.String()
	data[observability.KeyMember] = b.member.Name
	data[observability.KeyMode] = b.mode.String()
	b.observer.OnEvent(context.Background(), observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "binding",
		Data:      data,
	})
}

func (b *Binding[T, S, V]) String() string {
	return fmt.Sprintf("Binding(%s %s %s)", b.id, b.member.Name, b.mode)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
