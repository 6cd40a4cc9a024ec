// Package search builds safe full-text query expressions from user input.
//
// User text is never handed to an index engine verbatim. BuildQueryVariants
// rewrites it into a small, fully quoted expression language (quoted terms,
// quoted phrases, prefix terms, AND/OR/NOT) that keeps deliberate boolean
// queries working while neutralising every other piece of engine syntax.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Boolean operators recognised in user input. They must be uppercase, as in
// SQLite FTS5.
const (
	opAnd = "AND"
	opOr  = "OR"
	opNot = "NOT"
)

type tokenKind int

const (
	tokenTerm tokenKind = iota
	tokenOperator
)

type token struct {
	kind   tokenKind
	words  []string
	prefix bool
	op     string
}

func (t token) render() string {
	if t.kind == tokenOperator {
		return t.op
	}
	rendered := `"` + strings.Join(t.words, " ") + `"`
	if t.prefix {
		rendered += "*"
	}
	return rendered
}

// BuildQueryVariants turns a raw user query into safe query strings, in the
// order callers should try them:
//
//  1. the sanitized query, keeping quoted phrases, prefix terms and
//     AND/OR/NOT between terms;
//  2. the whole input as a single quoted phrase, for when the first variant
//     is rejected by the search layer;
//  3. the terms of the first variant joined with OR, when it has several
//     terms and no explicit operators.
//
// Input is composed to NFC first so decomposed accents stay inside their
// word. Duplicates and empty variants are dropped, so an input without any
// letters or digits yields no variants.
func BuildQueryVariants(rawQuery string) []string {
	rawQuery = norm.NFC.String(rawQuery)
	tokens := tidyOperators(tokenize(rawQuery))

	variants := []string{renderTokens(tokens)}

	if words := alnumWords(strings.ReplaceAll(rawQuery, `"`, " ")); len(words) > 0 {
		variants = append(variants, `"`+strings.Join(words, " ")+`"`)
	}

	terms := make([]string, 0, len(tokens))
	hasOperator := false
	for _, t := range tokens {
		if t.kind == tokenOperator {
			hasOperator = true
			continue
		}
		terms = append(terms, t.render())
	}
	if !hasOperator && len(terms) > 1 {
		variants = append(variants, strings.Join(terms, " "+opOr+" "))
	}

	return dedupe(variants)
}

// tokenize splits raw input into terms and operators. Balanced double quotes
// delimit phrases; an unmatched quote is treated as a separator.
func tokenize(raw string) []token {
	var tokens []token
	quotes := strings.Count(raw, `"`)
	rest := raw
	for rest != "" {
		open := strings.IndexByte(rest, '"')
		if open < 0 || quotes < 2 {
			tokens = append(tokens, bareTokens(strings.ReplaceAll(rest, `"`, " "))...)
			break
		}
		closing := strings.IndexByte(rest[open+1:], '"')
		if closing < 0 {
			tokens = append(tokens, bareTokens(strings.ReplaceAll(rest, `"`, " "))...)
			break
		}
		closing += open + 1
		tokens = append(tokens, bareTokens(rest[:open])...)
		if words := alnumWords(rest[open+1 : closing]); len(words) > 0 {
			phrase := token{kind: tokenTerm, words: words}
			after := rest[closing+1:]
			if strings.HasPrefix(after, "*") {
				phrase.prefix = true
				after = after[1:]
			}
			tokens = append(tokens, phrase)
			rest = after
		} else {
			rest = rest[closing+1:]
		}
		quotes -= 2
	}
	return tokens
}

// bareTokens handles text outside quotes: whitespace-separated words, each
// either an operator or a run of terms split on non-alphanumeric runes.
func bareTokens(text string) []token {
	var tokens []token
	for _, field := range strings.Fields(text) {
		switch field {
		case opAnd, opOr, opNot:
			tokens = append(tokens, token{kind: tokenOperator, op: field})
			continue
		}
		words := alnumWords(field)
		if len(words) == 0 {
			continue
		}
		prefix := strings.HasSuffix(field, "*") && endsWithAlnumBeforeStar(field)
		for i, word := range words {
			tokens = append(tokens, token{
				kind:   tokenTerm,
				words:  []string{word},
				prefix: prefix && i == len(words)-1,
			})
		}
	}
	return tokens
}

func endsWithAlnumBeforeStar(field string) bool {
	trimmed := []rune(strings.TrimSuffix(field, "*"))
	if len(trimmed) == 0 {
		return false
	}
	last := trimmed[len(trimmed)-1]
	return unicode.IsLetter(last) || unicode.IsDigit(last)
}

// tidyOperators keeps an operator only when it sits between two terms. Of a
// run of operators the last one wins ("a AND NOT b" -> "a NOT b").
func tidyOperators(tokens []token) []token {
	result := make([]token, 0, len(tokens))
	var pending *token
	for i := range tokens {
		t := tokens[i]
		if t.kind == tokenOperator {
			if len(result) > 0 {
				pending = &tokens[i]
			}
			continue
		}
		if pending != nil {
			result = append(result, *pending)
			pending = nil
		}
		result = append(result, t)
	}
	return result
}

func renderTokens(tokens []token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.render())
	}
	return strings.Join(parts, " ")
}

// alnumWords returns the maximal runs of letters and digits in s.
func alnumWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		result = append(result, value)
	}
	return result
}
