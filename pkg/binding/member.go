package binding

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	bindErrors "github.com/go-drift/bind/pkg/errors"
)

// Member is a typed accessor for one named member of a source object S.
//
// Get is required. Set is required for TwoWay and OneWayToSource bindings;
// it should announce the change through the source's ChangeNotifier. Equal
// decides whether a write to the source would change it; when nil,
// observable.DefaultEqual is used, which compares slices and maps by
// reference.
type Member[S, V any] struct {
	Name  string
	Get   func(S) V
	Set   func(S, V) error
	Equal func(a, b V) bool
}

// MemberName returns m.Name.
func (m Member[S, V]) MemberName() string { return m.Name }

// Writable reports whether m has a setter.
func (m Member[S, V]) Writable() bool { return m.Set != nil }

// TypeName returns the name of the member's value type.
func (m Member[S, V]) TypeName() string { return reflect.TypeFor[V]().String() }

// Accessor is the type-erased view of a Member used by Members.
type Accessor[S any] interface {
	MemberName() string
	Writable() bool
	TypeName() string
}

// Members is a table of the bindable members of a source type, resolved
// by name. Build it once per type and share it.
type Members[S any] struct {
	byName map[string]Accessor[S]
	names  []string
}

// NewMembers builds a table. Names must be non-empty and unique.
func NewMembers[S any](accessors ...Accessor[S]) (*Members[S], error) {
	const op = "binding.NewMembers"
	ms := &Members[S]{byName: make(map[string]Accessor[S], len(accessors))}
	for _, a := range accessors {
		if a == nil {
			return nil, bindErrors.InvalidArgument(op, "nil accessor")
		}
		name := a.MemberName()
		if name == "" {
			return nil, bindErrors.InvalidArgument(op, "member has no name")
		}
		if _, dup := ms.byName[name]; dup {
			return nil, bindErrors.InvalidArgument(op, "duplicate member %q", name)
		}
		ms.byName[name] = a
		ms.names = append(ms.names, name)
	}
	slices.Sort(ms.names)
	return ms, nil
}

// Names returns the member names in sorted order.
func (ms *Members[S]) Names() []string {
	return slices.Clone(ms.names)
}

// Lookup resolves the member called name with value type V. Unknown names
// and type mismatches are invalid-argument errors; unknown names carry a
// suggestion when a close match exists.
func Lookup[S, V any](ms *Members[S], name string) (Member[S, V], error) {
	const op = "binding.Lookup"
	a, ok := ms.byName[name]
	if !ok {
		err := bindErrors.InvalidArgument(op, "unknown member %q%s", name, ms.suggest(name))
		err.Member = name
		return Member[S, V]{}, err
	}
	m, ok := a.(Member[S, V])
	if !ok {
		err := bindErrors.InvalidArgument(op, "member %q has type %s, not %s", name, a.TypeName(), reflect.TypeFor[V]())
		err.Member = name
		return Member[S, V]{}, err
	}
	return m, nil
}

// suggest returns a " (did you mean ...)" hint for the closest known name.
func (ms *Members[S]) suggest(name string) string {
	best, bestDist := "", -1
	lower := strings.ToLower(name)
	for _, candidate := range ms.names {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(candidate))
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(name)/3) {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
