package search

import "strings"

// TSQuery renders the query for PostgreSQL's to_tsquery. Words are single
// quoted lexemes, phrases use <->, prefixes use :* and clauses nest to the
// left so evaluation order matches Match.
func (q Query) TSQuery() string {
	if len(q.Clauses) == 0 {
		return ""
	}
	expr := q.Clauses[0].Term.tsquery()
	for _, clause := range q.Clauses[1:] {
		term := clause.Term.tsquery()
		switch clause.Op {
		case OpOr:
			expr = "(" + expr + " | " + term + ")"
		case OpNot:
			expr = "(" + expr + " & !" + term + ")"
		default:
			expr = "(" + expr + " & " + term + ")"
		}
	}
	return expr
}

func (t Term) tsquery() string {
	lexemes := make([]string, len(t.Words))
	for i, word := range t.Words {
		lexemes[i] = "'" + word + "'"
	}
	if t.Prefix {
		lexemes[len(lexemes)-1] += ":*"
	}
	if len(lexemes) == 1 {
		return lexemes[0]
	}
	return "(" + strings.Join(lexemes, " <-> ") + ")"
}
