package citation

import (
	"sort"
	"testing"
)

func TestLookupAlias(t *testing.T) {
	cases := []struct {
		name string
		id   string
	}{
		{"LGPD", "lei-13709-2018"},
		{"lgpd", "lei-13709-2018"},
		{"  Lei Geral de Proteção de Dados Pessoais ", "lei-13709-2018"},
		{"CDC", "lei-8078-1990"},
		{"Marco  Civil da Internet", "lei-12965-2014"},
		{"CF/88", "constituicao-1988"},
		{"Constituição Federal", "constituicao-1988"},
		{"CC", "lei-10406-2002"},
		{"Código Civil.", "lei-10406-2002"},
		{"CPC/2015", "lei-13105-2015"},
		{"LRF", "lc-101-2000"},
		{"Lei 8.666", "lei-8666-1993"},
		{"Nova Lei de Licitações", "lei-14133-2021"},
		{"Regulamento do Marco Civil", "decreto-8771-2016"},
		{"ICP-Brasil", "mp-2200-2001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry, ok := LookupAlias(tc.name)
			if !ok {
				t.Fatalf("LookupAlias(%q) not found", tc.name)
			}
			if entry.CanonicalID() != tc.id {
				t.Errorf("Expected %s, got %s", tc.id, entry.CanonicalID())
			}
			if entry.Title == "" {
				t.Error("Expected a title")
			}
		})
	}
}

func TestLookupAliasUnknown(t *testing.T) {
	for _, name := range []string{"", "XYZ", "lei", "GDPR"} {
		if _, ok := LookupAlias(name); ok {
			t.Errorf("Expected %q to be unknown", name)
		}
	}
}

func TestAliasesSortedAndResolvable(t *testing.T) {
	names := Aliases()
	if len(names) == 0 {
		t.Fatal("Expected aliases")
	}
	if !sort.StringsAreSorted(names) {
		t.Error("Expected sorted aliases")
	}
	for _, name := range names {
		entry, ok := LookupAlias(name)
		if !ok {
			t.Errorf("Alias %q does not resolve", name)
			continue
		}
		if _, _, _, ok := ParseCanonicalID(entry.CanonicalID()); !ok {
			t.Errorf("Alias %q maps to non-canonical %q", name, entry.CanonicalID())
		}
	}
}
