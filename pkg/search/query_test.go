package search

import (
	"context"
	"errors"
	"testing"
)

func TestParseVariantErrors(t *testing.T) {
	cases := []string{
		"",
		`"unbalanced`,
		`AND "dados"`,
		`"dados" OR`,
		`"dados" AND OR "x"`,
		`""`,
		`"a"b`,
		`dados;`,
		`col:value`,
	}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseVariant(input); !errors.Is(err, ErrSyntax) {
				t.Errorf("ParseVariant(%q) error = %v, want ErrSyntax", input, err)
			}
		})
	}
}

func TestQueryMatch(t *testing.T) {
	const text = "Dispõe sobre o tratamento de dados pessoais, inclusive nos meios digitais."

	cases := []struct {
		variant string
		want    bool
	}{
		{`"dados"`, true},
		{`"dados pessoais"`, true},
		{`"pessoais dados"`, false},
		{`"trata"*`, true},
		{`"trata"`, false},
		{`"dispoe"`, true},
		{`DADOS`, true},
		{`"dados" AND "digitais"`, true},
		{`"dados" AND "sensiveis"`, false},
		{`"sensiveis" OR "digitais"`, true},
		{`"dados" NOT "digitais"`, false},
		{`"dados" NOT "sensiveis"`, true},
		{`"sensiveis" OR "dados" NOT "meios"`, false},
		{`"meios digit"*`, true},
	}
	for _, tc := range cases {
		t.Run(tc.variant, func(t *testing.T) {
			q, err := ParseVariant(tc.variant)
			if err != nil {
				t.Fatalf("ParseVariant(%q) error: %v", tc.variant, err)
			}
			if got := q.Match(text); got != tc.want {
				t.Errorf("Match(%q) = %v, want %v", tc.variant, got, tc.want)
			}
		})
	}
}

func TestQueryTSQuery(t *testing.T) {
	cases := []struct {
		variant string
		want    string
	}{
		{`"dados"`, `'dados'`},
		{`"trata"*`, `'trata':*`},
		{`"dados pessoais"`, `('dados' <-> 'pessoais')`},
		{`"meios digit"*`, `('meios' <-> 'digit':*)`},
		{`"a" "b"`, `('a' & 'b')`},
		{`"a" OR "b" NOT "c"`, `(('a' | 'b') & !'c')`},
		{`"Proteção"`, `'protecao'`},
	}
	for _, tc := range cases {
		t.Run(tc.variant, func(t *testing.T) {
			q, err := ParseVariant(tc.variant)
			if err != nil {
				t.Fatalf("ParseVariant(%q) error: %v", tc.variant, err)
			}
			if got := q.TSQuery(); got != tc.want {
				t.Errorf("TSQuery() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRunFallsBackOnSyntaxErrors(t *testing.T) {
	var tried []string
	got, variant, err := Run(context.Background(), "dados pessoais", func(_ context.Context, v string) (int, error) {
		tried = append(tried, v)
		if len(tried) < 2 {
			return 0, ErrSyntax
		}
		return 7, nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got != 7 || variant != `"dados pessoais"` {
		t.Errorf("Run = (%d, %q), want (7, %q)", got, variant, `"dados pessoais"`)
	}
	if len(tried) != 2 {
		t.Errorf("tried %d variants, want 2", len(tried))
	}
}

func TestRunStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	_, _, err := Run(context.Background(), "dados pessoais", func(_ context.Context, _ string) (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRunWithoutTerms(t *testing.T) {
	_, _, err := Run(context.Background(), "--", func(_ context.Context, _ string) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("Run error = %v, want ErrSyntax", err)
	}
}
