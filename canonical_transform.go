package codice

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Record is one row of a dataset. After CanonicalTransform every value is
// nil, a string or a float64.
type Record map[string]any

// Keys returns the record's field names in ascending byte order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// decimalLiteral is the only text accepted as a number: an optional sign,
// ASCII digits, and an optional "." followed by at least one digit.
// Exponents, thousands separators and bare fractions (".5") stay text.
var decimalLiteral = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// CanonicalTransform returns a copy of row with trimmed text, decimal
// literals converted to float64 and empty text, nil or NaN replaced by nil.
// Other value types pass through untouched.
func CanonicalTransform(row Record) Record {
	out := make(Record, len(row))
	for _, key := range row.Keys() {
		out[key] = canonicalValue(row[key])
	}
	return out
}

func canonicalValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		s := trimText(v)
		if s == "" {
			return nil
		}
		if n, ok := parseDecimal(s); ok {
			return n
		}
		return s
	case float64:
		if math.IsNaN(v) {
			return nil
		}
		return v
	case float32:
		if math.IsNaN(float64(v)) {
			return nil
		}
		return v
	default:
		return v
	}
}

// trimText strips surrounding white space: the Unicode White_Space set
// without NEL, plus the byte order mark so a BOM-prefixed file does not
// leak U+FEFF into its first header name.
func trimText(s string) string {
	return strings.TrimFunc(s, isTrimSpace)
}

func isTrimSpace(r rune) bool {
	return r == '\uFEFF' || (r != '\u0085' && unicode.IsSpace(r))
}

// parseDecimal converts a decimal literal to the nearest float64.
// Literals whose magnitude overflows float64 are reported as not numeric.
func parseDecimal(s string) (float64, bool) {
	if !decimalLiteral.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if n == 0 {
		// "-0" and "-0.00" serialize as 0
		n = 0
	}
	return n, true
}
