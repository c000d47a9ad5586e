package convert

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// separators are the digit-group and decimal marks of a locale.
type separators struct {
	group   rune
	decimal rune
}

var invariant = separators{group: 0, decimal: '.'}

var separatorCache sync.Map // language.Tag -> separators

// separatorsFor derives the marks of tag by formatting a known sample.
func separatorsFor(tag language.Tag) separators {
	if tag == language.Und {
		return invariant
	}
	if s, ok := separatorCache.Load(tag); ok {
		return s.(separators)
	}

	sample := []rune(message.NewPrinter(tag).Sprint(number.Decimal(1234567.5, number.MinFractionDigits(1))))
	sep := separators{decimal: '.'}
	seenDigit := false
	for i, r := range sample {
		if unicode.IsDigit(r) {
			seenDigit = true
			continue
		}
		if !seenDigit {
			continue
		}
		// The last non-digit mark is the decimal separator, any earlier
		// one groups thousands.
		if i == len(sample)-2 {
			sep.decimal = r
		} else {
			sep.group = r
		}
	}
	separatorCache.Store(tag, sep)
	return sep
}

// normalize rewrites a localized number into the form strconv parses.
func normalize(s string, sep separators) string {
	s = strings.TrimSpace(s)
	if sep == invariant {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case sep.group != 0 && (r == sep.group || (isSpaceMark(sep.group) && isSpaceMark(r))):
		case r == sep.decimal:
			b.WriteByte('.')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// localize rewrites strconv output ("-1234.5") using the locale's marks.
func localize(s string, sep separators) string {
	if sep == invariant {
		return s
	}
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && sep.group != 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(sep.group)
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteRune(sep.decimal)
		b.WriteString(frac)
	}
	return b.String()
}

func isSpaceMark(r rune) bool {
	return unicode.IsSpace(r) || r == ' ' || r == ' '
}
