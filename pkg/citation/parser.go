package citation

// Parse resolves a freeform citation into its structured form. It never
// panics and never returns an error: when no grammar matches, the result has
// Valid == false, Kind == KindUnknown and a diagnostic in Error.
//
// Grammars are tried in a fixed order (identifier, full, short, alias) and the
// first match wins. Pinpoints are extracted once from the whole input, so they
// are recognised whichever grammar matched.
func Parse(raw string) ParsedCitation {
	normalized := Normalize(raw)
	pinpoints := ExtractPinpoints(normalized)

	for _, g := range cascade {
		result, ok := g.match(normalized)
		if !ok || !result.Kind.Known() || result.Article == "" {
			continue
		}
		result.Raw = raw
		result.Valid = true
		result.Grammar = g.name()
		result.Paragraph = pinpoints.Paragraph
		result.Inciso = pinpoints.Inciso
		result.Alinea = pinpoints.Alinea
		return result
	}

	return ParsedCitation{
		Raw:       raw,
		Valid:     false,
		Kind:      KindUnknown,
		Paragraph: pinpoints.Paragraph,
		Inciso:    pinpoints.Inciso,
		Alinea:    pinpoints.Alinea,
		Error:     "could not parse citation: " + raw,
	}
}
