package statute

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/coolbeans/lexref/pkg/docstore"
)

type fakeLookup struct {
	ids      map[string]bool
	titles   map[string]string
	checked  []string
	existErr error
	titleErr error
}

func (f *fakeLookup) Exists(_ context.Context, id string) (bool, error) {
	f.checked = append(f.checked, id)
	if f.existErr != nil {
		return false, f.existErr
	}
	return f.ids[id], nil
}

func (f *fakeLookup) LookupByTitleSubstring(_ context.Context, fragment string) (*docstore.Document, error) {
	if f.titleErr != nil {
		return nil, f.titleErr
	}
	for id, title := range f.titles {
		if strings.Contains(strings.ToLower(title), strings.ToLower(fragment)) {
			return &docstore.Document{ID: id, Title: title}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", docstore.ErrNotFound, fragment)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func TestCandidates(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"lei 13.709/2018", []string{"lei 13.709/2018", "lei-13709-2018", "lei-13.709/2018"}},
		{"LGPD", []string{"lgpd", "LGPD", "lei-13709-2018"}},
		{"Lei nº 13.709, de 14 de agosto de 2018", []string{"lei-13709-2018"}},
		{"lei 13709 2018", []string{"lei 13709 2018", "lei-13709-2018"}},
		{"lei-13709-2018", []string{"lei-13709-2018", "lei 13709 2018"}},
		{"CF/88", []string{"constituicao-1988"}},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got := Candidates(tc.input)
			for _, want := range tc.want {
				if !contains(got, want) {
					t.Errorf("Candidates(%q) = %q, missing %q", tc.input, got, want)
				}
			}
		})
	}
}

func TestCandidatesOrderAndDedupe(t *testing.T) {
	got := Candidates("  LGPD ")
	want := []string{"lgpd", "LGPD", "lei-13709-2018"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Expected %q, got %q", want, got)
	}

	if got := Candidates("   "); len(got) != 0 {
		t.Errorf("Expected no candidates for blank input, got %q", got)
	}
}

func TestResolveExisting(t *testing.T) {
	lookup := &fakeLookup{
		ids: map[string]bool{"lei-13709-2018": true},
		titles: map[string]string{
			"lei-13709-2018": "Lei Geral de Proteção de Dados Pessoais",
		},
	}
	ctx := context.Background()

	res, found, err := ResolveExisting(ctx, "lei 13.709/2018", lookup)
	if err != nil || !found {
		t.Fatalf("Expected a match, got %v, %v", found, err)
	}
	if res.ID != "lei-13709-2018" || res.Approximate {
		t.Errorf("Unexpected resolution %+v", res)
	}
	if lookup.checked[0] != "lei 13.709/2018" {
		t.Errorf("Expected the lowercased input to be tried first, got %q", lookup.checked)
	}
}

func TestResolveExistingTitleFallback(t *testing.T) {
	lookup := &fakeLookup{
		ids: map[string]bool{},
		titles: map[string]string{
			"lei-13709-2018": "Lei Geral de Proteção de Dados Pessoais",
		},
	}

	res, found, err := ResolveExisting(context.Background(), "Proteção de Dados", lookup)
	if err != nil || !found {
		t.Fatalf("Expected an approximate match, got %v, %v", found, err)
	}
	if res.ID != "lei-13709-2018" || !res.Approximate || res.Candidate != "Proteção de Dados" {
		t.Errorf("Unexpected resolution %+v", res)
	}
}

func TestResolveExistingNotFound(t *testing.T) {
	lookup := &fakeLookup{ids: map[string]bool{}}

	_, found, err := ResolveExisting(context.Background(), "lei 1/1900", lookup)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if found {
		t.Error("Expected no match")
	}

	_, found, err = ResolveExisting(context.Background(), "", lookup)
	if err != nil || found {
		t.Errorf("Expected blank input to match nothing, got %v, %v", found, err)
	}
}

func TestResolveExistingPropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")

	_, _, err := ResolveExisting(context.Background(), "LGPD", &fakeLookup{existErr: boom})
	if !errors.Is(err, boom) {
		t.Errorf("Expected exists error to propagate, got %v", err)
	}

	_, _, err = ResolveExisting(context.Background(), "LGPD", &fakeLookup{ids: map[string]bool{}, titleErr: boom})
	if !errors.Is(err, boom) {
		t.Errorf("Expected title error to propagate, got %v", err)
	}
}

func FuzzCandidates(f *testing.F) {
	f.Add("lei 13.709/2018")
	f.Add("LGPD")
	f.Add("  -  ")
	f.Fuzz(func(t *testing.T, input string) {
		seen := make(map[string]bool)
		for _, candidate := range Candidates(input) {
			if candidate == "" {
				t.Fatal("empty candidate")
			}
			if seen[candidate] {
				t.Fatalf("duplicate candidate %q", candidate)
			}
			seen[candidate] = true
		}
	})
}
