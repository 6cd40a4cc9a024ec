package citation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes and drops combining marks. It is not recomposed:
// once the marks are gone NFD and NFC agree for the text we care about.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Normalize removes diacritics and trims surrounding whitespace.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	result, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Invalid UTF-8 can make the transformer give up part way. Fall back
		// to the raw input rather than dropping text.
		result = s
	}
	return strings.TrimSpace(result)
}

// ordinalMarks are the characters written after a number to make it ordinal.
// U+00B0 (degree sign) is not an ordinal mark but is commonly typed for one.
const ordinalMarks = "ºª°"

// StripOrdinal removes trailing ordinal markers from a token ("5º" -> "5",
// "1o" -> "1") and trims it. The letter "o" is only removed when it directly
// follows a digit, so interior digits and words are never altered.
func StripOrdinal(token string) string {
	s := strings.TrimSpace(token)
	for {
		trimmed := strings.TrimRight(s, ordinalMarks)
		trimmed = strings.TrimSpace(trimmed)
		if n := len(trimmed); n >= 2 && (trimmed[n-1] == 'o' || trimmed[n-1] == 'O') && isDigit(trimmed[n-2]) {
			trimmed = trimmed[:n-1]
		}
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// foldKey is the lookup form shared by the alias table and the grammars:
// accent-free, lowercase, single-spaced, without trailing punctuation.
func foldKey(s string) string {
	s = strings.ToLower(Normalize(s))
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, ".;:,")
}

// digitsOnly drops every non-digit, so "13.709" becomes "13709".
func digitsOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
