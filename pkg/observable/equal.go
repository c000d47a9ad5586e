package observable

import "reflect"

// DefaultEqual returns the comparison used when no custom equality is given.
// Comparable values compare with ==. Slices, maps, channels, functions and
// pointers compare by reference: two slices are equal when they share a
// backing array start and length. Structs and arrays holding such fields
// compare field by field under the same rules, and interface values compare
// their dynamic values.
func DefaultEqual[T any]() func(a, b T) bool {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Interface && t.Comparable() {
		return func(a, b T) bool { return any(a) == any(b) }
	}
	return func(a, b T) bool {
		return identical(reflect.ValueOf(any(a)), reflect.ValueOf(any(b)))
	}
}

func identical(x, y reflect.Value) bool {
	if !x.IsValid() || !y.IsValid() {
		return x.IsValid() == y.IsValid()
	}
	if x.Type() != y.Type() {
		return false
	}
	switch x.Kind() {
	case reflect.Slice:
		return x.Pointer() == y.Pointer() && x.Len() == y.Len()
	case reflect.Map, reflect.Chan, reflect.Func, reflect.Pointer, reflect.UnsafePointer:
		return x.Pointer() == y.Pointer()
	case reflect.Interface:
		if x.IsNil() || y.IsNil() {
			return x.IsNil() == y.IsNil()
		}
		return identical(x.Elem(), y.Elem())
	case reflect.Array:
		for i := range x.Len() {
			if !identical(x.Index(i), y.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := range x.NumField() {
			if !identical(x.Field(i), y.Field(i)) {
				return false
			}
		}
		return true
	default:
		return x.Equal(y)
	}
}
