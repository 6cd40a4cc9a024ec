// Package citation resolves freeform references to Brazilian federal legal
// provisions ("Art. 1º, Lei nº 13.709/2018", "Art. 5º, LGPD",
// "lei-13709-2018, art. 1") into a structured form, and renders structured
// citations back into canonical display strings.
//
// Every function in this package is pure and safe for concurrent use. Parsing
// never panics and never returns an error: failures are reported through
// ParsedCitation.Valid and ParsedCitation.Error.
package citation

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies the federal instrument a citation points at. The string
// value doubles as the kind segment of the canonical identifier.
type Kind string

const (
	KindLei              Kind = "lei"
	KindLeiComplementar  Kind = "lc"
	KindMedidaProvisoria Kind = "mp"
	KindDecreto          Kind = "decreto"
	KindConstituicao     Kind = "constituicao"
	KindUnknown          Kind = "unknown"
)

// ConstitutionYear is the year assumed for the Constitution when a citation
// does not carry one.
const ConstitutionYear = 1988

// ParagraphUnico is the sentinel stored in ParsedCitation.Paragraph for a
// "parágrafo único".
const ParagraphUnico = "unico"

// Label returns the display label for the kind, e.g. "Lei Complementar".
func (k Kind) Label() string {
	switch k {
	case KindLei:
		return "Lei"
	case KindLeiComplementar:
		return "Lei Complementar"
	case KindMedidaProvisoria:
		return "Medida Provisoria"
	case KindDecreto:
		return "Decreto"
	case KindConstituicao:
		return "Constituicao Federal"
	default:
		return ""
	}
}

// Known reports whether k is one of the instrument kinds.
func (k Kind) Known() bool {
	switch k {
	case KindLei, KindLeiComplementar, KindMedidaProvisoria, KindDecreto, KindConstituicao:
		return true
	default:
		return false
	}
}

// ParsedCitation is the structured form of a citation. Zero values stand for
// absent fields.
type ParsedCitation struct {
	// Raw is the original input, untrimmed.
	Raw string `json:"raw"`

	Valid bool `json:"valid"`
	Kind  Kind `json:"kind"`

	Number uint `json:"number,omitempty"`
	Year   uint `json:"year,omitempty"`

	// Article holds digits only.
	Article string `json:"article,omitempty"`

	// Pinpoints. They refine a citation but never decide its validity.
	Paragraph string `json:"paragraph,omitempty"`
	Inciso    string `json:"inciso,omitempty"`
	Alinea    string `json:"alinea,omitempty"`

	// Title is a human-readable instrument label used for substring lookups.
	Title string `json:"title,omitempty"`

	// Grammar names the grammar that matched.
	Grammar string `json:"grammar,omitempty"`

	Error string `json:"error,omitempty"`
}

// CanonicalID returns the store key for the cited instrument:
// "{kind}-{number}-{year}", or "constituicao-{year}" for the Constitution.
// It returns "" when the citation does not identify an instrument.
func (c ParsedCitation) CanonicalID() string {
	return CanonicalID(c.Kind, c.Number, c.Year)
}

// HasPinpoint reports whether any sub-article element is set.
func (c ParsedCitation) HasPinpoint() bool {
	return c.Paragraph != "" || c.Inciso != "" || c.Alinea != ""
}

// CanonicalID builds the canonical identifier from its parts.
func CanonicalID(kind Kind, number, year uint) string {
	switch kind {
	case KindConstituicao:
		if year == 0 {
			year = ConstitutionYear
		}
		return fmt.Sprintf("constituicao-%d", year)
	case KindLei, KindLeiComplementar, KindMedidaProvisoria, KindDecreto:
		if number == 0 || year == 0 {
			return ""
		}
		return fmt.Sprintf("%s-%d-%d", kind, number, year)
	default:
		return ""
	}
}

// ParseCanonicalID splits a canonical identifier into its parts. It accepts
// only the exact grammar: lowercase kind, no leading zeros, 4-digit year.
func ParseCanonicalID(id string) (kind Kind, number, year uint, ok bool) {
	parts := strings.Split(id, "-")
	switch {
	case len(parts) == 2 && parts[0] == string(KindConstituicao):
		y, good := parseYear4(parts[1])
		if !good {
			return "", 0, 0, false
		}
		return KindConstituicao, 0, y, true
	case len(parts) == 3:
		k := Kind(parts[0])
		if !k.Known() || k == KindConstituicao {
			return "", 0, 0, false
		}
		if parts[1] == "" || parts[1][0] == '0' || !allDigits(parts[1]) {
			return "", 0, 0, false
		}
		n, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return "", 0, 0, false
		}
		y, good := parseYear4(parts[2])
		if !good {
			return "", 0, 0, false
		}
		return k, uint(n), y, true
	default:
		return "", 0, 0, false
	}
}

func parseYear4(s string) (uint, bool) {
	if len(s) != 4 || !allDigits(s) {
		return 0, false
	}
	y, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(y), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// instrumentTitle is the label stored in ParsedCitation.Title for citations
// that name the instrument by number rather than by alias.
func instrumentTitle(kind Kind, number uint) string {
	if kind == KindConstituicao {
		return "Constituição Federal"
	}
	label := kind.Label()
	if kind == KindMedidaProvisoria {
		label = "Medida Provisória"
	}
	return label + " nº " + GroupThousands(number)
}
