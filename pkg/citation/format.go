package citation

import (
	"fmt"
	"strconv"
	"strings"
)

// Style selects one of the display grammars produced by Format.
type Style int

const (
	// StyleFull renders "Art. 5º, Lei nº 13.709/2018".
	StyleFull Style = iota
	// StyleShort renders "Art. 5º, Lei 13.709/2018" and "Art. 5º, CF/88".
	StyleShort
	// StylePinpoint renders only the provision, "Art. 5º, § 1º".
	StylePinpoint
)

// String returns the style name used on the command line and over HTTP.
func (s Style) String() string {
	switch s {
	case StyleFull:
		return "full"
	case StyleShort:
		return "short"
	case StylePinpoint:
		return "pinpoint"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// ParseStyle is the inverse of Style.String. The empty string selects
// StyleFull.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "full":
		return StyleFull, nil
	case "short":
		return StyleShort, nil
	case "pinpoint":
		return StylePinpoint, nil
	default:
		return StyleFull, fmt.Errorf("unknown citation style %q (want full, short or pinpoint)", name)
	}
}

// Format renders a citation as a display string. It is a best-effort display
// transform: invalid citations and citations without an article yield "".
func Format(c ParsedCitation, style Style) string {
	if !c.Valid || c.Article == "" {
		return ""
	}
	pinpoint := "Art. " + pinpointFragment(c)

	switch style {
	case StylePinpoint:
		return pinpoint
	case StyleShort:
		if c.Kind == KindConstituicao {
			return pinpoint + ", CF/88"
		}
		return fmt.Sprintf("%s, %s %s/%d", pinpoint, c.Kind.Label(), GroupThousands(c.Number), c.Year)
	default:
		if c.Kind == KindConstituicao {
			year := c.Year
			if year == 0 {
				year = ConstitutionYear
			}
			return fmt.Sprintf("%s, %s de %d", pinpoint, KindConstituicao.Label(), year)
		}
		return fmt.Sprintf("%s, %s nº %s/%d", pinpoint, c.Kind.Label(), GroupThousands(c.Number), c.Year)
	}
}

// pinpointFragment joins article, paragraph, inciso and alinea in that order.
func pinpointFragment(c ParsedCitation) string {
	parts := []string{ordinal(c.Article)}
	switch {
	case c.Paragraph == ParagraphUnico:
		parts = append(parts, "paragrafo unico")
	case c.Paragraph != "":
		parts = append(parts, "§ "+ordinal(c.Paragraph))
	}
	if c.Inciso != "" {
		parts = append(parts, "inciso "+strings.ToUpper(c.Inciso))
	}
	if c.Alinea != "" {
		parts = append(parts, "alinea "+strings.ToLower(c.Alinea))
	}
	return strings.Join(parts, ", ")
}

// ordinal appends "º" to numbers one through nine. From ten on, articles and
// paragraphs are cardinal ("Art. 10", "Art. 1.024").
func ordinal(number string) string {
	n, err := strconv.ParseUint(number, 10, 32)
	switch {
	case err != nil || n == 0:
		return number
	case n <= 9:
		return number + "º"
	default:
		return GroupThousands(uint(n))
	}
}

// GroupThousands renders n with dots between groups of three digits, the
// Brazilian convention: 13709 -> "13.709". It does not consult the process
// locale.
func GroupThousands(n uint) string {
	digits := strconv.FormatUint(uint64(n), 10)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
