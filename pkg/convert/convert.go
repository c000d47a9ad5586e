// Package convert defines the converter contract used by bindings and a set
// of string converters for primitive types.
//
// A Converter[T, V] sits between a property of type T and a source member of
// type V. Convert maps the property value to the source type, ConvertBack
// maps the source value to the property type:
//
//	c := convert.Int()                          // Converter[string, int]
//	n, _ := c.Convert("42", convert.Params{})    // 42
//	s, _ := c.ConvertBack(7, convert.Params{})   // "7"
//
// Converters must be stateless with respect to the binding that uses them;
// one instance may serve many bindings concurrently.
package convert

import (
	"fmt"

	"golang.org/x/text/language"
)

// Params carries per-binding conversion context.
type Params struct {
	// Parameter is an optional converter-specific argument. The primitive
	// converters accept a language.Tag (overrides Locale) and Time accepts a
	// layout string.
	Parameter any
	// Locale selects number separators. language.Und means invariant
	// formatting.
	Locale language.Tag
}

// Converter maps values between a property type T and a source type V.
// Either direction may fail; parse failures are *errors.FormatError.
type Converter[T, V any] interface {
	// Convert maps a property value to the source member type.
	Convert(value T, p Params) (V, error)
	// ConvertBack maps a source member value to the property type.
	ConvertBack(value V, p Params) (T, error)
}

// Funcs adapts a pair of functions to Converter.
type Funcs[T, V any] struct {
	To   func(T, Params) (V, error)
	Back func(V, Params) (T, error)
}

// Convert calls f.To.
func (f Funcs[T, V]) Convert(value T, p Params) (V, error) {
	if f.To == nil {
		var zero V
		return zero, fmt.Errorf("convert: no conversion to %T", zero)
	}
	return f.To(value, p)
}

// ConvertBack calls f.Back.
func (f Funcs[T, V]) ConvertBack(value V, p Params) (T, error) {
	if f.Back == nil {
		var zero T
		return zero, fmt.Errorf("convert: no conversion to %T", zero)
	}
	return f.Back(value, p)
}

// Reverse swaps the directions of c, turning a Converter[T, V] into a
// Converter[V, T].
func Reverse[T, V any](c Converter[T, V]) Converter[V, T] {
	return Funcs[V, T]{
		To:   func(v V, p Params) (T, error) { return c.ConvertBack(v, p) },
		Back: func(t T, p Params) (V, error) { return c.Convert(t, p) },
	}
}

func locale(p Params) language.Tag {
	if tag, ok := p.Parameter.(language.Tag); ok {
		return tag
	}
	return p.Locale
}
