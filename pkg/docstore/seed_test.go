package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/lexref/pkg/citation"
)

func TestDefaultCorpus(t *testing.T) {
	docs, err := DefaultCorpus()
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	byID := make(map[string]*Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
		assert.NotEmpty(t, doc.Title, doc.ID)
		assert.NotContains(t, doc.Title, "<", doc.ID)
	}

	lgpd := byID["lei-13709-2018"]
	require.NotNil(t, lgpd)
	assert.Equal(t, "Lei nº 13.709, de 14 de agosto de 2018 (Lei Geral de Proteção de Dados Pessoais)", lgpd.Title)
	assert.Equal(t, citation.KindLei, lgpd.Kind)
	assert.Equal(t, StatusActive, lgpd.Status)

	repealed := byID["lei-8666-1993"]
	require.NotNil(t, repealed)
	assert.Equal(t, StatusRepealed, repealed.Status)

	constitution := byID["constituicao-1988"]
	require.NotNil(t, constitution)
	assert.Equal(t, citation.KindConstituicao, constitution.Kind)
	assert.Equal(t, uint(1988), constitution.Year)
}

func TestDefaultCorpusCoversAliases(t *testing.T) {
	docs, err := DefaultCorpus()
	require.NoError(t, err)
	ids := make(map[string]bool, len(docs))
	for _, doc := range docs {
		ids[doc.ID] = true
	}

	for _, name := range []string{"LGPD", "CDC", "Marco Civil", "CC", "CPC", "LAI", "LRF", "CF"} {
		entry, ok := citation.LookupAlias(name)
		require.True(t, ok, name)
		assert.True(t, ids[entry.CanonicalID()], "alias %s -> %s missing from corpus", name, entry.CanonicalID())
	}
}

func TestParseCorpusErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"not yaml", "documents: ["},
		{"non canonical id", "documents:\n  - id: LGPD\n    title: x\n"},
		{"duplicate id", "documents:\n  - id: lei-1-2000\n    title: a\n  - id: lei-1-2000\n    title: b\n"},
		{"bad status", "documents:\n  - id: lei-1-2000\n    title: a\n    status: pending\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCorpus([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseCorpusStripsMarkup(t *testing.T) {
	docs, err := ParseCorpus([]byte(`
documents:
  - id: lei-1-2000
    title: "<a href='x'>Lei nº 1</a> &amp; <script>alert(1)</script>anexos"
    provisions:
      - ref: " 1 "
        text: "<p>Texto   do <i>artigo</i></p>"
`))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Lei nº 1 & anexos", docs[0].Title)
	assert.Equal(t, StatusActive, docs[0].Status)
	assert.Equal(t, Provision{Ref: "1", Text: "Texto do artigo"}, docs[0].Provisions[0])
}

func TestLoadCorpusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("documents:\n  - id: lc-101-2000\n    title: LRF\n"), 0644))

	docs, err := LoadCorpusFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, citation.KindLeiComplementar, docs[0].Kind)

	_, err = LoadCorpusFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeedLibrary(t *testing.T) {
	ctx := context.Background()
	lib, err := Init(filepath.Join(t.TempDir(), "lib"))
	require.NoError(t, err)

	docs, err := DefaultCorpus()
	require.NoError(t, err)

	report, err := Seed(ctx, lib, docs, false)
	require.NoError(t, err)
	assert.Equal(t, len(docs), report.TotalAttempted)
	assert.Equal(t, len(docs), report.Succeeded)
	assert.Zero(t, report.Failed)

	report, err = Seed(ctx, lib, docs, false)
	require.NoError(t, err)
	assert.Equal(t, len(docs), report.Skipped)

	report, err = Seed(ctx, lib, docs, true)
	require.NoError(t, err)
	assert.Equal(t, len(docs), report.Succeeded)

	exists, err := lib.ProvisionExists(ctx, "lei-13105-2015", []string{"1024", "1.024"})
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSeedRecordsFailures(t *testing.T) {
	ctx := context.Background()
	lib, err := Init(filepath.Join(t.TempDir(), "lib"))
	require.NoError(t, err)

	report, err := Seed(ctx, lib, []*Document{
		{ID: "lei-1-2000", Title: "ok"},
		{ID: "lei-2-2000", Title: "bad", Status: "pending"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "failed", report.Entries[1].Status)
	assert.NotEmpty(t, report.Entries[1].Error)
}
