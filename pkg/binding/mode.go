package binding

import (
	"fmt"
	"strings"
)

// Mode selects the direction(s) in which a binding propagates changes.
// The zero value is TwoWay.
type Mode int

const (
	// TwoWay propagates source changes to the property and property changes
	// to the source.
	TwoWay Mode = iota
	// OneWay propagates source changes to the property only.
	OneWay
	// OneWayToSource propagates property changes to the source only.
	OneWayToSource
	// OneTime copies the source to the property once, at Bind.
	OneTime
)

func (m Mode) String() string {
	switch m {
	case TwoWay:
		return "two_way"
	case OneWay:
		return "one_way"
	case OneWayToSource:
		return "one_way_to_source"
	case OneTime:
		return "one_time"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the four defined modes.
func (m Mode) Valid() bool {
	return m >= TwoWay && m <= OneTime
}

// sourceToProperty reports whether source changes flow to the property
// after the initial sync.
func (m Mode) sourceToProperty() bool {
	return m == OneWay || m == TwoWay
}

// propertyToSource reports whether property changes flow to the source.
func (m Mode) propertyToSource() bool {
	return m == TwoWay || m == OneWayToSource
}

// writesSource reports whether the mode requires a writable source member.
func (m Mode) writesSource() bool {
	return m.propertyToSource()
}

// ParseMode parses a mode name. It accepts the String forms and the
// CamelCase names ("TwoWay", "OneWayToSource"), case-insensitively.
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	switch key {
	case "twoway":
		return TwoWay, nil
	case "oneway":
		return OneWay, nil
	case "onewaytosource":
		return OneWayToSource, nil
	case "onetime":
		return OneTime, nil
	}
	return 0, fmt.Errorf("binding: unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("binding: invalid mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Direction names the flow of a single update.
type Direction string

const (
	SourceToProperty Direction = "source_to_property"
	PropertyToSource Direction = "property_to_source"
)
