package citation

import (
	"regexp"
	"strings"
)

// Pinpoints holds the sub-article elements of a citation. Empty fields are
// absent.
type Pinpoints struct {
	Paragraph string `json:"paragraph,omitempty"`
	Inciso    string `json:"inciso,omitempty"`
	Alinea    string `json:"alinea,omitempty"`
}

// romanInciso is a Roman numeral below 100. Bare numerals are only read as
// incisos in this range so that aliases spelled with Roman letters (CC, CDC)
// are left alone.
const romanInciso = `(?:xc|xl|l?x{0,3})(?:ix|iv|v?i{0,3})`

var (
	paragraphMarkPattern = regexp.MustCompile(`(?i)§{1,2}\s*(\d+|unico)`)
	paragraphWordPattern = regexp.MustCompile(`(?i)\b(?:paragrafo|par\.)\s*(unico|\d+)`)
	incisoWordPattern    = regexp.MustCompile(`(?i)\binciso\s+([ivxlcdm]+)\b`)
	romanSegmentPattern  = regexp.MustCompile(`(?i)^(` + romanInciso + `)$`)
	alineaPattern        = regexp.MustCompile(`(?i)\balinea\s+["'“”‘’]?([a-z])\b`)
)

// ExtractPinpoints finds paragraph, inciso and alinea references anywhere in
// a normalized string. The three searches are independent.
func ExtractPinpoints(normalized string) Pinpoints {
	return Pinpoints{
		Paragraph: extractParagraph(normalized),
		Inciso:    extractInciso(normalized),
		Alinea:    extractAlinea(normalized),
	}
}

func extractParagraph(s string) string {
	m := paragraphMarkPattern.FindStringSubmatch(s)
	if m == nil {
		m = paragraphWordPattern.FindStringSubmatch(s)
	}
	if m == nil {
		return ""
	}
	value := strings.ToLower(strings.TrimSpace(m[1]))
	if value == ParagraphUnico {
		return ParagraphUnico
	}
	return StripOrdinal(value)
}

func extractInciso(s string) string {
	if m := incisoWordPattern.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1])
	}
	for _, segment := range strings.Split(s, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		if m := romanSegmentPattern.FindStringSubmatch(segment); m != nil && m[1] != "" {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

func extractAlinea(s string) string {
	m := alineaPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}
