package binding

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/go-drift/bind/pkg/convert"
	"github.com/go-drift/bind/pkg/dispatch"
	bindErrors "github.com/go-drift/bind/pkg/errors"
	"github.com/go-drift/bind/pkg/observability"
	"github.com/go-drift/bind/pkg/observable"
)

type person struct {
	observable.Notifier
	name observable.Field[string]
	age  observable.Field[int]

	mu   sync.Mutex
	tags *observable.List[string]
}

func newPerson(name string, age int) *person {
	p := &person{}
	p.name.Set(&p.Notifier, name, "Name")
	p.age.Set(&p.Notifier, age, "Age")
	return p
}

func (p *person) SetName(v string) error {
	_, err := p.name.Set(&p.Notifier, v, "Name")
	return err
}

func (p *person) SetAge(v int) error {
	_, err := p.age.Set(&p.Notifier, v, "Age")
	return err
}

var (
	nameMember = Member[*person, string]{
		Name: "Name",
		Get:  func(p *person) string { return p.name.Get() },
		Set:  func(p *person, v string) error { return p.SetName(v) },
	}
	ageMember = Member[*person, int]{
		Name: "Age",
		Get:  func(p *person) int { return p.age.Get() },
		Set:  func(p *person, v int) error { return p.SetAge(v) },
	}
	tagsMember = Member[*person, *observable.List[string]]{
		Name: "Tags",
		Get: func(p *person) *observable.List[string] {
			p.mu.Lock()
			defer p.mu.Unlock()
			return p.tags
		},
		Set: func(p *person, v *observable.List[string]) error {
			p.mu.Lock()
			p.tags = v
			p.mu.Unlock()
			return p.NotifyChanged("Tags")
		},
	}
)

// counting returns a listener that counts notifications.
func counting[T any](n *int) func(T) error {
	return func(T) error {
		*n++
		return nil
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []observability.Event
}

func (r *eventRecorder) OnEvent(_ context.Context, e observability.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) types() []observability.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]observability.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	readOnly := Member[*person, string]{Name: "Name", Get: nameMember.Get}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"nil property", func() error {
			var nilValue *observable.Value[string]
			_, err := New(nilValue, p, nameMember, Options[string, string]{})
			return err
		}},
		{"nil source", func() error {
			var nilPerson *person
			_, err := New(text, nilPerson, nameMember, Options[string, string]{})
			return err
		}},
		{"member without name", func() error {
			_, err := New(text, p, Member[*person, string]{Get: nameMember.Get}, Options[string, string]{})
			return err
		}},
		{"member without getter", func() error {
			_, err := New(text, p, Member[*person, string]{Name: "Name"}, Options[string, string]{})
			return err
		}},
		{"two way on read-only member", func() error {
			_, err := New(text, p, readOnly, Options[string, string]{Mode: TwoWay})
			return err
		}},
		{"one way to source on read-only member", func() error {
			_, err := New(text, p, readOnly, Options[string, string]{Mode: OneWayToSource})
			return err
		}},
		{"invalid mode", func() error {
			_, err := New(text, p, nameMember, Options[string, string]{Mode: Mode(9)})
			return err
		}},
		{"incompatible types without converter", func() error {
			_, err := New(text, p, ageMember, Options[string, int]{})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			require.Error(t, err)
			assert.ErrorIs(t, err, bindErrors.ErrInvalidArgument)
		})
	}

	t.Run("read-only member is fine one way", func(t *testing.T) {
		_, err := New(text, p, readOnly, Options[string, string]{Mode: OneWay})
		assert.NoError(t, err)
	})
}

func TestBinding_NameText(t *testing.T) {
	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	textChanges, nameChanges := 0, 0
	text.AddListener(counting[string](&textChanges))
	p.AddChangeListener(func(member string) error {
		if member == "Name" {
			nameChanges++
		}
		return nil
	})

	b, err := New(text, p, nameMember, Options[string, string]{})
	require.NoError(t, err)
	assert.False(t, b.IsBound())
	assert.Equal(t, "", text.Value(), "a new binding does not sync")

	require.NoError(t, b.Bind())
	assert.True(t, b.IsBound())
	assert.Equal(t, "Alice", text.Value())
	assert.Equal(t, 1, textChanges)
	assert.Equal(t, 0, nameChanges)

	require.NoError(t, text.Set("Bob"))
	assert.Equal(t, "Bob", p.name.Get())
	assert.Equal(t, 2, textChanges)
	assert.Equal(t, 1, nameChanges)

	require.NoError(t, p.SetName("Carol"))
	assert.Equal(t, "Carol", text.Value())
	assert.Equal(t, 3, textChanges)
	assert.Equal(t, 2, nameChanges)

	// Writing the current value is not a change on either side.
	require.NoError(t, text.Set("Carol"))
	require.NoError(t, p.SetName("Carol"))
	assert.Equal(t, 3, textChanges)
	assert.Equal(t, 2, nameChanges)
}

func TestBinding_IntConverter(t *testing.T) {
	p := newPerson("Alice", 30)
	text := observable.NewValue("")

	b, err := New(text, p, ageMember, Options[string, int]{Converter: convert.Int()})
	require.NoError(t, err)
	require.NoError(t, b.Bind())
	assert.Equal(t, "30", text.Value())

	require.NoError(t, text.Set("42"))
	assert.Equal(t, 42, p.age.Get())

	require.NoError(t, p.SetAge(7))
	assert.Equal(t, "7", text.Value())

	err = text.Set("abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, bindErrors.ErrUpdate)
	assert.ErrorIs(t, err, bindErrors.ErrFormat)
	assert.Equal(t, "abc", text.Value(), "the property keeps the rejected input")
	assert.Equal(t, 7, p.age.Get())

	var be *bindErrors.BindingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "Age", be.Member)
	assert.Equal(t, b.ID().String(), be.Binding)
	assert.Equal(t, bindErrors.KindUpdate, be.Kind)
}

func TestBinding_Modes(t *testing.T) {
	t.Run("one way", func(t *testing.T) {
		p := newPerson("Alice", 30)
		text := observable.NewValue("")
		b, err := New(text, p, nameMember, Options[string, string]{Mode: OneWay})
		require.NoError(t, err)
		require.NoError(t, b.Bind())
		assert.Equal(t, "Alice", text.Value())

		require.NoError(t, p.SetName("Bob"))
		assert.Equal(t, "Bob", text.Value())

		require.NoError(t, text.Set("Carol"))
		assert.Equal(t, "Bob", p.name.Get())
	})

	t.Run("one way to source", func(t *testing.T) {
		p := newPerson("Alice", 30)
		text := observable.NewValue("Init")
		b, err := New(text, p, nameMember, Options[string, string]{Mode: OneWayToSource})
		require.NoError(t, err)
		require.NoError(t, b.Bind())
		assert.Equal(t, "Init", p.name.Get(), "initial sync goes property to source")
		assert.Equal(t, "Init", text.Value())

		require.NoError(t, text.Set("Bob"))
		assert.Equal(t, "Bob", p.name.Get())

		require.NoError(t, p.SetName("Carol"))
		assert.Equal(t, "Bob", text.Value())
	})

	t.Run("one time", func(t *testing.T) {
		p := newPerson("Alice", 30)
		text := observable.NewValue("")
		b, err := New(text, p, nameMember, Options[string, string]{Mode: OneTime})
		require.NoError(t, err)
		require.NoError(t, b.Bind())
		assert.Equal(t, "Alice", text.Value())

		require.NoError(t, p.SetName("Bob"))
		assert.Equal(t, "Alice", text.Value())
		require.NoError(t, text.Set("Carol"))
		assert.Equal(t, "Bob", p.name.Get())

		// Explicit updates still work regardless of mode.
		require.NoError(t, b.UpdateProperty())
		assert.Equal(t, "Bob", text.Value())
	})
}

func TestBinding_MemberNameFilter(t *testing.T) {
	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	b, err := New(text, p, nameMember, Options[string, string]{Mode: OneWay})
	require.NoError(t, err)
	require.NoError(t, b.Bind())

	// Change the field without announcing it, then announce other members.
	p.name.Set(&observable.Notifier{}, "Bob", "Name")
	require.NoError(t, p.NotifyChanged("Age"))
	assert.Equal(t, "Alice", text.Value())

	require.NoError(t, p.NotifyChanged(""))
	assert.Equal(t, "Bob", text.Value(), "an empty member name matches every binding")
}

func TestBinding_DisposeIsolatesEndpoints(t *testing.T) {
	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	b, err := New(text, p, nameMember, Options[string, string]{})
	require.NoError(t, err)
	require.NoError(t, b.Bind())
	assert.Equal(t, 1, text.ListenerCount())
	assert.Equal(t, 1, p.ListenerCount())

	b.Dispose()
	assert.True(t, b.IsDisposed())
	assert.False(t, b.IsBound())
	assert.Zero(t, text.ListenerCount())
	assert.Zero(t, p.ListenerCount())

	require.NoError(t, p.SetName("Bob"))
	assert.Equal(t, "Alice", text.Value())
	require.NoError(t, text.Set("Carol"))
	assert.Equal(t, "Bob", p.name.Get())

	b.Dispose()
	b.Unbind()

	assert.ErrorIs(t, b.Bind(), bindErrors.ErrDisposed)
	assert.ErrorIs(t, b.UpdateProperty(), bindErrors.ErrDisposed)
	assert.ErrorIs(t, b.UpdateSource(), bindErrors.ErrDisposed)
}

func TestBinding_UnbindAndRebind(t *testing.T) {
	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	b, err := New(text, p, nameMember, Options[string, string]{})
	require.NoError(t, err)

	b.Unbind()

	require.NoError(t, b.Bind())
	require.NoError(t, b.Bind())
	assert.Equal(t, 1, p.ListenerCount(), "binding twice subscribes once")

	b.Unbind()
	require.NoError(t, p.SetName("Bob"))
	assert.Equal(t, "Alice", text.Value())

	require.NoError(t, b.Bind())
	assert.Equal(t, "Bob", text.Value())
}

func TestBinding_AssignableWithoutConverter(t *testing.T) {
	p := newPerson("Alice", 30)
	prop := observable.NewValue[any](nil)

	b, err := New(prop, p, nameMember, Options[any, string]{})
	require.NoError(t, err)
	require.NoError(t, b.Bind())
	assert.Equal(t, "Alice", prop.Value())

	require.NoError(t, prop.Set("Bob"))
	assert.Equal(t, "Bob", p.name.Get())

	require.NoError(t, prop.Set(5))
	assert.Equal(t, "", p.name.Get(), "values of another type fall back to the zero value")
}

func TestBinding_UpdateSourceReadOnly(t *testing.T) {
	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	readOnly := Member[*person, string]{Name: "Name", Get: nameMember.Get}
	b, err := New(text, p, readOnly, Options[string, string]{Mode: OneWay})
	require.NoError(t, err)
	assert.ErrorIs(t, b.UpdateSource(), bindErrors.ErrInvalidArgument)
}

func TestBinding_RecoversPanics(t *testing.T) {
	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	boom := Member[*person, string]{
		Name: "Name",
		Get:  func(*person) string { panic("boom") },
	}
	b, err := New(text, p, boom, Options[string, string]{Mode: OneWay})
	require.NoError(t, err)

	err = b.Bind()
	require.Error(t, err)
	assert.ErrorIs(t, err, bindErrors.ErrUpdate)
	var pe *bindErrors.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.True(t, b.IsBound(), "a failed sync leaves the binding bound")
}

func TestBinding_Collection(t *testing.T) {
	p := newPerson("Alice", 30)
	tags := observable.NewCollection[string]()
	initial := tags.Value()

	b, err := New(tags, p, tagsMember, Options[*observable.List[string], *observable.List[string]]{})
	require.NoError(t, err)
	require.NoError(t, b.Bind())

	// The source's nil list becomes a fresh list that flows back to the source.
	assert.NotNil(t, tags.Value())
	assert.NotSame(t, initial, tags.Value())
	assert.Same(t, tags.Value(), tagsMember.Get(p))

	replacement := observable.NewList("go", "bind")
	require.NoError(t, tags.Set(replacement))
	assert.Same(t, replacement, tagsMember.Get(p))
}

func TestBinding_Dispatcher(t *testing.T) {
	var queue []func()
	d := dispatch.Func(func(cb func()) { queue = append(queue, cb) })
	drain := func() {
		for len(queue) > 0 {
			cb := queue[0]
			queue = queue[1:]
			cb()
		}
	}

	var reported []error
	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	b, err := New(text, p, ageMember, Options[string, int]{
		Converter:  convert.Int(),
		Dispatcher: d,
		OnError:    func(err error) { reported = append(reported, err) },
	})
	require.NoError(t, err)

	require.NoError(t, b.Bind())
	assert.Equal(t, "", text.Value(), "the initial sync is posted")
	drain()
	assert.Equal(t, "30", text.Value())

	require.NoError(t, text.Set("x"), "posted failures are not returned to the setter")
	drain()
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], bindErrors.ErrFormat)

	require.NoError(t, p.SetAge(40))
	b.Dispose()
	drain()
	assert.Equal(t, "x", text.Value(), "updates posted before Dispose are dropped")
}

func TestBinding_ConcurrentTwoWay(t *testing.T) {
	const (
		sourceWriters   = 8
		propertyWriters = 8
		iterations      = 1000
	)

	serial := dispatch.NewSerial()
	defer serial.Close()

	var failures []error
	var mu sync.Mutex
	p := newPerson("Alice", 0)
	text := observable.NewValue("")
	b, err := New(text, p, ageMember, Options[string, int]{
		Converter:  convert.Int(),
		Dispatcher: serial,
		OnError: func(err error) {
			mu.Lock()
			failures = append(failures, err)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.NoError(t, b.Bind())

	var g errgroup.Group
	for w := range sourceWriters {
		g.Go(func() error {
			for i := range iterations {
				if err := p.SetAge(w*iterations + i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for w := range propertyWriters {
		g.Go(func() error {
			for i := range iterations {
				if err := text.Set(strconv.Itoa(-(w*iterations + i))); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	serial.Flush()

	assert.Empty(t, failures)
	assert.Equal(t, strconv.Itoa(p.age.Get()), text.Value())
}

func TestBinding_Events(t *testing.T) {
	rec := &eventRecorder{}
	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	b, err := New(text, p, nameMember, Options[string, string]{Observer: rec})
	require.NoError(t, err)

	require.NoError(t, b.Bind())
	require.NoError(t, text.Set("Bob"))
	b.Dispose()

	assert.Equal(t, []observability.EventType{
		observability.EventBind,
		observability.EventSkip,   // property listener sees the initial sync, source already equal
		observability.EventUpdate, // initial sync
		observability.EventSkip,   // source change comes back, property already equal
		observability.EventUpdate, // Bob to source
		observability.EventUnbind,
		observability.EventDispose,
	}, rec.types())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, e := range rec.events {
		assert.Equal(t, "Name", e.Data[observability.KeyMember])
		assert.Equal(t, b.ID().String(), e.Data[observability.KeyBinding])
		assert.Equal(t, "two_way", e.Data[observability.KeyMode])
	}
}

func TestBinding_SliceTwoWayConverges(t *testing.T) {
	var (
		mu     sync.Mutex
		scores []int
		writes int
	)
	src := &observable.Notifier{}
	scoresMember := Member[*observable.Notifier, []int]{
		Name: "Scores",
		Get: func(*observable.Notifier) []int {
			mu.Lock()
			defer mu.Unlock()
			return scores
		},
		Set: func(n *observable.Notifier, v []int) error {
			mu.Lock()
			scores = v
			writes++
			mu.Unlock()
			return n.NotifyChanged("Scores")
		},
	}

	prop := observable.NewValueWithEquality[[]int](nil, nil)
	propWrites := 0
	prop.AddListener(counting[[]int](&propWrites))

	b, err := New(prop, src, scoresMember, Options[[]int, []int]{})
	require.NoError(t, err)
	require.NoError(t, b.Bind())
	assert.Zero(t, writes, "nil on both sides is already in sync")

	next := []int{2}
	require.NoError(t, prop.Set(next))
	assert.Equal(t, 1, writes)
	assert.Equal(t, 1, propWrites)
	assert.Equal(t, next, scoresMember.Get(src))

	require.NoError(t, scoresMember.Set(src, []int{3, 4}))
	assert.Equal(t, 2, writes)
	assert.Equal(t, 2, propWrites)
	assert.Equal(t, []int{3, 4}, prop.Value())
}

func TestBinding_DisposeDuringPostedUpdate(t *testing.T) {
	var queue []func()
	d := dispatch.Func(func(cb func()) { queue = append(queue, cb) })

	var b *Binding[string, *person, int]
	disposing := convert.Funcs[string, int]{
		To: func(s string, _ convert.Params) (int, error) {
			b.Dispose()
			return strconv.Atoi(s)
		},
		Back: func(v int, _ convert.Params) (string, error) {
			b.Dispose()
			return strconv.Itoa(v), nil
		},
	}

	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	var err error
	b, err = New(text, p, ageMember, Options[string, int]{Converter: disposing, Dispatcher: d})
	require.NoError(t, err)
	require.NoError(t, b.Bind())
	require.Len(t, queue, 1)

	queue[0]()
	assert.True(t, b.IsDisposed())
	assert.Equal(t, "", text.Value(), "no property write after Dispose")

	b2, err := New(text, p, ageMember, Options[string, int]{Mode: OneWayToSource, Converter: disposing, Dispatcher: d})
	require.NoError(t, err)
	b = b2
	require.NoError(t, text.Set("41"))
	require.NoError(t, b.Bind())
	require.Len(t, queue, 2)
	queue[1]()
	assert.Equal(t, 30, ageMember.Get(p), "no source write after Dispose")
}

func TestBinding_SourceListenerErrorsReachSetter(t *testing.T) {
	p := newPerson("Alice", 30)
	text := observable.NewValue("")
	failing := errors.New("listener failed")
	text.AddListener(func(v string) error {
		if v == "Bob" {
			return failing
		}
		return nil
	})

	b, err := New(text, p, nameMember, Options[string, string]{Mode: OneWay})
	require.NoError(t, err)
	require.NoError(t, b.Bind())

	err = p.SetName("Bob")
	assert.ErrorIs(t, err, failing)
	assert.ErrorIs(t, err, bindErrors.ErrUpdate)
	assert.Equal(t, "Bob", text.Value())
}
