package convert

import (
	"strconv"
	"strings"
	"time"

	bindErrors "github.com/go-drift/bind/pkg/errors"
)

// text is a Converter[string, V] built from a parse and a format function.
// Convert parses, ConvertBack formats.
type text[V any] struct {
	typ    string
	parse  func(s string, p Params) (V, error)
	format func(v V, p Params) string
}

func (c text[V]) Convert(s string, p Params) (V, error) {
	v, err := c.parse(s, p)
	if err != nil {
		var zero V
		return zero, &bindErrors.FormatError{Value: s, Type: c.typ, Err: err}
	}
	return v, nil
}

func (c text[V]) ConvertBack(v V, p Params) (string, error) {
	return c.format(v, p), nil
}

func signed[V int | int16 | int64](typ string, bits int) Converter[string, V] {
	return text[V]{
		typ: typ,
		parse: func(s string, p Params) (V, error) {
			n, err := strconv.ParseInt(normalize(s, separatorsFor(locale(p))), 10, bits)
			return V(n), err
		},
		format: func(v V, p Params) string {
			return localize(strconv.FormatInt(int64(v), 10), separatorsFor(locale(p)))
		},
	}
}

func floating[V float32 | float64](typ string, bits int) Converter[string, V] {
	return text[V]{
		typ: typ,
		parse: func(s string, p Params) (V, error) {
			f, err := strconv.ParseFloat(normalize(s, separatorsFor(locale(p))), bits)
			return V(f), err
		},
		format: func(v V, p Params) string {
			return localize(strconv.FormatFloat(float64(v), 'f', -1, bits), separatorsFor(locale(p)))
		},
	}
}

// Int converts between a string property and an int member.
func Int() Converter[string, int] { return signed[int]("int", strconv.IntSize) }

// Int64 converts between a string property and an int64 member.
func Int64() Converter[string, int64] { return signed[int64]("int64", 64) }

// Int16 converts between a string property and an int16 member.
func Int16() Converter[string, int16] { return signed[int16]("int16", 16) }

// Uint8 converts between a string property and a uint8 member.
func Uint8() Converter[string, uint8] {
	return text[uint8]{
		typ: "uint8",
		parse: func(s string, p Params) (uint8, error) {
			n, err := strconv.ParseUint(normalize(s, separatorsFor(locale(p))), 10, 8)
			return uint8(n), err
		},
		format: func(v uint8, p Params) string {
			return strconv.FormatUint(uint64(v), 10)
		},
	}
}

// Float64 converts between a string property and a float64 member.
func Float64() Converter[string, float64] { return floating[float64]("float64", 64) }

// Float32 converts between a string property and a float32 member.
func Float32() Converter[string, float32] { return floating[float32]("float32", 32) }

// Bool converts between a string property and a bool member. Parsing is
// case-insensitive and also accepts the forms strconv.ParseBool does.
func Bool() Converter[string, bool] {
	return text[bool]{
		typ: "bool",
		parse: func(s string, _ Params) (bool, error) {
			s = strings.TrimSpace(s)
			switch {
			case strings.EqualFold(s, "true"):
				return true, nil
			case strings.EqualFold(s, "false"):
				return false, nil
			}
			return strconv.ParseBool(s)
		},
		format: func(v bool, _ Params) string { return strconv.FormatBool(v) },
	}
}

// Time converts between a string property and a time.Time member using
// layout, or time.RFC3339 when layout is empty. A non-empty string
// Params.Parameter overrides the layout.
func Time(layout string) Converter[string, time.Time] {
	if layout == "" {
		layout = time.RFC3339
	}
	pick := func(p Params) string {
		if s, ok := p.Parameter.(string); ok && s != "" {
			return s
		}
		return layout
	}
	return text[time.Time]{
		typ: "time.Time",
		parse: func(s string, p Params) (time.Time, error) {
			return time.Parse(pick(p), strings.TrimSpace(s))
		},
		format: func(v time.Time, p Params) string { return v.Format(pick(p)) },
	}
}
