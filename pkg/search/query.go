package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/coolbeans/lexref/pkg/citation"
)

// ErrSyntax is returned when a query variant is not a well-formed expression.
// Stores wrap it so callers can move on to the next variant.
var ErrSyntax = errors.New("search: query syntax error")

// Op joins a clause to the expression on its left.
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpNot
)

// Term is a quoted word or phrase. Words are lowercased and accent-free.
type Term struct {
	Words  []string
	Prefix bool
}

// Clause is a term with the operator that joins it to the preceding clauses.
// The operator of the first clause is ignored.
type Clause struct {
	Op   Op
	Term Term
}

// Query is a parsed variant. Evaluation is strictly left to right.
type Query struct {
	Clauses []Clause
}

// ParseVariant parses a string in the variant language produced by
// BuildQueryVariants. Bare words are accepted as single terms; any other
// syntax yields ErrSyntax.
func ParseVariant(variant string) (Query, error) {
	var q Query
	pendingOp := OpAnd
	expectTerm := true
	sawOp := false

	rest := strings.TrimSpace(norm.NFC.String(variant))
	if rest == "" {
		return Query{}, fmt.Errorf("%w: empty query", ErrSyntax)
	}
	for rest != "" {
		var field string
		if rest[0] == '"' {
			closing := strings.IndexByte(rest[1:], '"')
			if closing < 0 {
				return Query{}, fmt.Errorf("%w: unbalanced quote", ErrSyntax)
			}
			field = rest[:closing+2]
			rest = rest[closing+2:]
			if strings.HasPrefix(rest, "*") {
				field += "*"
				rest = rest[1:]
			}
		} else {
			end := strings.IndexAny(rest, " \t\n\r")
			if end < 0 {
				end = len(rest)
			}
			field = rest[:end]
			rest = rest[end:]
		}
		if rest != "" && !isSpace(rest[0]) {
			return Query{}, fmt.Errorf("%w: unexpected text after %q", ErrSyntax, field)
		}
		rest = strings.TrimLeft(rest, " \t\n\r")

		switch field {
		case opAnd, opOr, opNot:
			if expectTerm {
				return Query{}, fmt.Errorf("%w: operator %s without left operand", ErrSyntax, field)
			}
			pendingOp = opFromString(field)
			expectTerm = true
			sawOp = true
			continue
		}

		term, err := parseTerm(field)
		if err != nil {
			return Query{}, err
		}
		if !expectTerm {
			pendingOp = OpAnd
		}
		q.Clauses = append(q.Clauses, Clause{Op: pendingOp, Term: term})
		expectTerm = false
		sawOp = false
	}
	if sawOp {
		return Query{}, fmt.Errorf("%w: dangling operator", ErrSyntax)
	}
	return q, nil
}

func parseTerm(field string) (Term, error) {
	prefix := strings.HasSuffix(field, "*")
	body := strings.TrimSuffix(field, "*")
	if strings.HasPrefix(body, `"`) {
		if len(body) < 2 || !strings.HasSuffix(body, `"`) {
			return Term{}, fmt.Errorf("%w: malformed phrase %s", ErrSyntax, field)
		}
		body = body[1 : len(body)-1]
		if strings.ContainsRune(body, '"') {
			return Term{}, fmt.Errorf("%w: malformed phrase %s", ErrSyntax, field)
		}
	}
	words := strings.Fields(body)
	if len(words) == 0 {
		return Term{}, fmt.Errorf("%w: empty term", ErrSyntax)
	}
	for i, word := range words {
		if parts := alnumWords(word); len(parts) != 1 || parts[0] != word {
			return Term{}, fmt.Errorf("%w: invalid term %q", ErrSyntax, word)
		}
		words[i] = fold(word)
	}
	return Term{Words: words, Prefix: prefix}, nil
}

func opFromString(op string) Op {
	switch op {
	case opOr:
		return OpOr
	case opNot:
		return OpNot
	default:
		return OpAnd
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func fold(s string) string {
	return strings.ToLower(citation.Normalize(s))
}

// Match reports whether text satisfies the query. Text is compared word by
// word after lowercasing and accent folding; a phrase must appear as
// consecutive words.
func (q Query) Match(text string) bool {
	if len(q.Clauses) == 0 {
		return false
	}
	words := alnumWords(fold(text))
	result := q.Clauses[0].Term.matches(words)
	for _, clause := range q.Clauses[1:] {
		hit := clause.Term.matches(words)
		switch clause.Op {
		case OpOr:
			result = result || hit
		case OpNot:
			result = result && !hit
		default:
			result = result && hit
		}
	}
	return result
}

func (t Term) matches(words []string) bool {
	n := len(t.Words)
	for start := 0; start+n <= len(words); start++ {
		if t.matchesAt(words[start : start+n]) {
			return true
		}
	}
	return false
}

func (t Term) matchesAt(window []string) bool {
	last := len(t.Words) - 1
	for i, want := range t.Words {
		if i == last && t.Prefix {
			if !strings.HasPrefix(window[i], want) {
				return false
			}
			continue
		}
		if window[i] != want {
			return false
		}
	}
	return true
}

// Run executes fn with each variant of rawQuery in order. A variant rejected
// with ErrSyntax moves on to the next one; any other error stops the run. It
// returns the first successful result and the variant that produced it.
func Run[T any](ctx context.Context, rawQuery string, fn func(ctx context.Context, variant string) (T, error)) (T, string, error) {
	var zero T
	variants := BuildQueryVariants(rawQuery)
	if len(variants) == 0 {
		return zero, "", fmt.Errorf("%w: query %q has no searchable terms", ErrSyntax, rawQuery)
	}
	var lastErr error
	for _, variant := range variants {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		result, err := fn(ctx, variant)
		if err == nil {
			return result, variant, nil
		}
		if !errors.Is(err, ErrSyntax) {
			return zero, variant, err
		}
		lastErr = err
	}
	return zero, "", fmt.Errorf("all %d query variants rejected: %w", len(variants), lastErr)
}
