// Package price turns listing price text into a monetary value.
//
// Listing pages mix European ("1.999,00") and US ("1,999.00") notation without
// saying which one they use. Parse resolves the ambiguity with a fixed rule
// order so the same text always yields the same value, and refuses to guess
// when the text cannot be read as a price at all.
package price

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// DefaultCeiling is the largest value accepted as a real price.
const DefaultCeiling = 999999.0

// Parser parses price text with an upper sanity bound.
type Parser struct {
	Ceiling float64
}

// Default is the parser used by Parse.
var Default = Parser{Ceiling: DefaultCeiling}

// Parse parses text with the default ceiling.
func Parse(text string) (float64, bool) {
	return Default.Parse(text)
}

// Parse returns the normalized value of text and whether it is a usable price.
// Percentages, empty text, non-positive values and values above the ceiling
// are all rejected.
func (p Parser) Parse(text string) (float64, bool) {
	if strings.Contains(text, "%") {
		return 0, false
	}

	s := strip(text)
	if s == "" {
		return 0, false
	}

	s = normalizeSeparators(s)
	for _, r := range s {
		if r != '.' && (r < '0' || r > '9') {
			return 0, false
		}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}

	ceiling := p.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if value <= 0 || value > ceiling {
		return 0, false
	}
	return value, true
}

// strip drops letters, whitespace and currency symbols. A separator that
// directly follows a dropped word ("Rs. 500") is dropped as well.
func strip(text string) string {
	var b strings.Builder
	afterWord := false
	for _, r := range text {
		switch {
		case unicode.IsLetter(r), unicode.Is(unicode.Sc, r):
			afterWord = true
			continue
		case unicode.IsSpace(r):
			continue
		case b.Len() == 0 && afterWord && (r == '.' || r == ','):
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalizeSeparators(s string) string {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		// the later separator is the decimal one
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.ReplaceAll(s, ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")

	case commas > 0:
		if commas == 1 && strings.Index(s, ",") > len(s)-4 {
			return strings.ReplaceAll(s, ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")

	case dots > 1:
		return strings.ReplaceAll(s, ".", "")

	case dots == 1:
		i := strings.Index(s, ".")
		if len(s)-i-1 == 3 && strings.TrimLeft(s[:i], "0") != "" {
			return s[:i] + s[i+1:]
		}
	}
	return s
}
