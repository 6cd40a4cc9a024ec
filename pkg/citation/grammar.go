package citation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// grammar is one branch of the parse cascade. match receives the normalized
// input and fills the instrument and article fields of the result.
type grammar interface {
	name() string
	match(normalized string) (ParsedCitation, bool)
}

// Grammar names reported in ParsedCitation.Grammar.
const (
	GrammarIdentifier = "identifier"
	GrammarFull       = "full"
	GrammarShort      = "short"
	GrammarAlias      = "alias"
)

// cascade is tried in order and the first match wins. Full must precede
// short because both start with "Art. N, Lei ...", and alias goes last
// because it accepts any trailing text.
var cascade = []grammar{
	identifierGrammar{},
	fullGrammar{},
	shortGrammar{},
	aliasGrammar{},
}

// Instrument identifies a federal instrument without pointing at a provision.
type Instrument struct {
	Kind   Kind   `json:"kind"`
	Number uint   `json:"number,omitempty"`
	Year   uint   `json:"year"`
	Title  string `json:"title,omitempty"`
}

// CanonicalID returns the instrument's canonical identifier.
func (in Instrument) CanonicalID() string {
	return CanonicalID(in.Kind, in.Number, in.Year)
}

const (
	kindLabelPattern = `(lei complementar|lc|medida provisoria|mp|decreto-lei|decreto|lei)`
	numberMarker     = `(?:n(?:umero|\.?\s*[ºª°]|o|\.)\s*)?`
	ordinalSuffix    = `(?:[ºª°]|o\b)?`
)

var (
	articleHeadPattern = regexp.MustCompile(`(?i)^art(?:igo|\.)?\s*(\d[\d.]*)\s*` + ordinalSuffix + `\s*(?:[,;]\s*|\s+|$)`)

	identifierHeadPattern = regexp.MustCompile(`(?i)^(lei|lc|mp|decreto|constituicao)-(?:(\d+)-)?(\d{4})(?:\s*[,;]\s*|\s+)`)

	fullInstrumentPattern = regexp.MustCompile(`(?i)^` + kindLabelPattern + `\.?\s*` + numberMarker +
		`(\d[\d.]*)\s*,?\s*de\s+(\d{1,2})\s*` + ordinalSuffix + `\s+de\s+([a-z]+)\s+de\s+(\d{4})$`)

	shortInstrumentPattern = regexp.MustCompile(`(?i)^` + kindLabelPattern + `\.?\s*` + numberMarker +
		`(\d[\d.]*)\s*/\s*(\d{4}|\d{2})$`)

	// pinpointLeadPattern matches pinpoint tokens at the start of a segment,
	// e.g. "§ 1º inciso II" in "§ 1º inciso II da Lei 13.709/2018".
	pinpointLeadPattern = regexp.MustCompile(`(?i)^(?:(?:§{1,2}\s*(?:\d+\s*` + ordinalSuffix + `|unico)|paragrafo\s+(?:\d+\s*` + ordinalSuffix +
		`|unico)|par\.\s*(?:\d+|unico)|inciso\s+[ivxlcdm]+\b|alinea\s+["'“”‘’]?[a-z]\b["'“”‘’]?|caput\b)\s*)+`)

	connectiveLeadPattern = regexp.MustCompile(`(?i)^(?:da|do|de|na|no)\s+`)
)

// months maps accent-free Portuguese month names to their number.
var months = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"marco":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

func kindFromLabel(label string) Kind {
	switch strings.ToLower(label) {
	case "lei":
		return KindLei
	case "lei complementar", "lc":
		return KindLeiComplementar
	case "medida provisoria", "mp":
		return KindMedidaProvisoria
	case "decreto":
		return KindDecreto
	case "constituicao":
		return KindConstituicao
	default:
		return KindUnknown
	}
}

// identifierGrammar: "lei-13709-2018, art. 1" and "constituicao-1988, art. 5".
type identifierGrammar struct{}

func (identifierGrammar) name() string { return GrammarIdentifier }

func (identifierGrammar) match(normalized string) (ParsedCitation, bool) {
	m := identifierHeadPattern.FindStringSubmatch(normalized)
	if m == nil {
		return ParsedCitation{}, false
	}
	kind := kindFromLabel(m[1])
	var number uint
	if kind == KindConstituicao {
		if m[2] != "" {
			return ParsedCitation{}, false
		}
	} else {
		if strings.HasPrefix(m[2], "0") {
			return ParsedCitation{}, false
		}
		n, ok := parseNumber(m[2])
		if !ok {
			return ParsedCitation{}, false
		}
		number = n
	}
	year, ok := parseYear(m[3])
	if !ok {
		return ParsedCitation{}, false
	}
	article, _, ok := splitArticle(normalized[len(m[0]):])
	if !ok {
		return ParsedCitation{}, false
	}
	return ParsedCitation{
		Kind:    kind,
		Number:  number,
		Year:    year,
		Article: article,
		Title:   instrumentTitle(kind, number),
	}, true
}

// fullGrammar: "Art. 1º, Lei nº 13.709, de 14 de agosto de 2018".
type fullGrammar struct{}

func (fullGrammar) name() string { return GrammarFull }

func (fullGrammar) match(normalized string) (ParsedCitation, bool) {
	article, tail, ok := splitArticle(normalized)
	if !ok {
		return ParsedCitation{}, false
	}
	instrument, ok := matchFullInstrument(tail)
	if !ok {
		return ParsedCitation{}, false
	}
	return withInstrument(article, instrument), true
}

// shortGrammar: "Art. 1º, Lei 13.709/2018".
type shortGrammar struct{}

func (shortGrammar) name() string { return GrammarShort }

func (shortGrammar) match(normalized string) (ParsedCitation, bool) {
	article, tail, ok := splitArticle(normalized)
	if !ok {
		return ParsedCitation{}, false
	}
	instrument, ok := matchShortInstrument(tail)
	if !ok {
		return ParsedCitation{}, false
	}
	return withInstrument(article, instrument), true
}

// aliasGrammar: "Art. 5º, LGPD". An unknown alias fails the grammar.
type aliasGrammar struct{}

func (aliasGrammar) name() string { return GrammarAlias }

func (aliasGrammar) match(normalized string) (ParsedCitation, bool) {
	article, tail, ok := splitArticle(normalized)
	if !ok || tail == "" {
		return ParsedCitation{}, false
	}
	entry, ok := LookupAlias(tail)
	if !ok {
		return ParsedCitation{}, false
	}
	return ParsedCitation{
		Kind:    entry.Kind,
		Number:  entry.Number,
		Year:    entry.Year,
		Article: article,
		Title:   entry.Title,
	}, true
}

// ParseInstrument recognises an instrument reference without an article:
// "Lei nº 13.709, de 14 de agosto de 2018" or "Lei 13.709/2018".
func ParseInstrument(text string) (Instrument, bool) {
	tail := cleanTail(Normalize(text))
	if in, ok := matchFullInstrument(tail); ok {
		return in, true
	}
	return matchShortInstrument(tail)
}

func withInstrument(article string, in Instrument) ParsedCitation {
	return ParsedCitation{
		Kind:    in.Kind,
		Number:  in.Number,
		Year:    in.Year,
		Article: article,
		Title:   in.Title,
	}
}

func matchFullInstrument(tail string) (Instrument, bool) {
	m := fullInstrumentPattern.FindStringSubmatch(tail)
	if m == nil {
		return Instrument{}, false
	}
	kind := kindFromLabel(m[1])
	if kind == KindUnknown {
		return Instrument{}, false
	}
	number, ok := parseNumber(m[2])
	if !ok {
		return Instrument{}, false
	}
	day, err := strconv.Atoi(m[3])
	if err != nil {
		return Instrument{}, false
	}
	month, ok := months[strings.ToLower(m[4])]
	if !ok {
		return Instrument{}, false
	}
	year, ok := parseYear(m[5])
	if !ok {
		return Instrument{}, false
	}
	if !validDate(int(year), month, day) {
		return Instrument{}, false
	}
	return Instrument{Kind: kind, Number: number, Year: year, Title: instrumentTitle(kind, number)}, true
}

func matchShortInstrument(tail string) (Instrument, bool) {
	m := shortInstrumentPattern.FindStringSubmatch(tail)
	if m == nil {
		return Instrument{}, false
	}
	kind := kindFromLabel(m[1])
	if kind == KindUnknown {
		return Instrument{}, false
	}
	number, ok := parseNumber(m[2])
	if !ok {
		return Instrument{}, false
	}
	year, ok := parseYear(m[3])
	if !ok {
		return Instrument{}, false
	}
	return Instrument{Kind: kind, Number: number, Year: year, Title: instrumentTitle(kind, number)}, true
}

// splitArticle consumes the "Art. N" head of a citation. It returns the
// article digits and the instrument tail with pinpoint segments removed.
func splitArticle(normalized string) (article, tail string, ok bool) {
	loc := articleHeadPattern.FindStringSubmatchIndex(normalized)
	if loc == nil {
		return "", "", false
	}
	n, ok := parseNumber(StripOrdinal(normalized[loc[2]:loc[3]]))
	if !ok {
		return "", "", false
	}
	return strconv.FormatUint(uint64(n), 10), cleanTail(normalized[loc[1]:]), true
}

// cleanTail drops pinpoint segments, leading connectives ("da LGPD") and
// trailing punctuation from an instrument tail.
func cleanTail(tail string) string {
	segments := strings.Split(tail, ",")
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if m := romanSegmentPattern.FindStringSubmatch(segment); m != nil && m[1] != "" {
			continue
		}
		if lead := pinpointLeadPattern.FindString(segment); lead != "" {
			segment = connectiveLeadPattern.ReplaceAllString(strings.TrimSpace(segment[len(lead):]), "")
		}
		if segment != "" {
			kept = append(kept, segment)
		}
	}
	joined := strings.Join(kept, ", ")
	joined = connectiveLeadPattern.ReplaceAllString(joined, "")
	return strings.TrimRight(joined, " .;:")
}

// parseNumber converts a number that may carry thousands dots. Zero and
// values that do not fit in 32 bits are rejected.
func parseNumber(s string) (uint, bool) {
	digits := digitsOnly(s)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// parseYear accepts a four-digit year or a two-digit one, which is pivoted:
// 30..99 -> 19xx, 00..29 -> 20xx.
func parseYear(s string) (uint, bool) {
	if !allDigits(s) {
		return 0, false
	}
	y, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	switch len(s) {
	case 2:
		if y >= 30 {
			return uint(1900 + y), true
		}
		return uint(2000 + y), true
	case 4:
		if y < 1000 {
			return 0, false
		}
		return uint(y), true
	default:
		return 0, false
	}
}

func validDate(year int, month time.Month, day int) bool {
	if day < 1 || day > 31 {
		return false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Day() == day
}
