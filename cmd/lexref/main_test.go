package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	cmd := rootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	a.teardown()
	return out.String(), err
}

func seededLibrary(t *testing.T) string {
	t.Helper()
	t.Setenv("LEXREF_STORE_DRIVER", "")
	t.Setenv("LEXREF_LIBRARY_PATH", "")
	path := filepath.Join(t.TempDir(), "lib")
	out, err := run(t, "--library", path, "seed")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Seed complete: 14 ingested, 0 skipped, 0 failed")
	return path
}

func TestSeedIsIdempotent(t *testing.T) {
	path := seededLibrary(t)

	out, err := run(t, "--library", path, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "[SKIP] lei-13709-2018")
	assert.Contains(t, out, "0 ingested, 14 skipped")

	out, err = run(t, "--library", path, "seed", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "14 ingested")
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "parse", "Art. 5º, inciso X, LGPD")
	require.NoError(t, err)
	assert.Contains(t, out, "Grammar:    alias")
	assert.Contains(t, out, "Inciso:     X")
	assert.Contains(t, out, "ID:         lei-13709-2018")

	out, err = run(t, "parse", "--format", "json", "lei-13709-2018, art. 7")
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, true, parsed["valid"])
	assert.Equal(t, "7", parsed["article"])

	out, err = run(t, "parse", "not a citation")
	require.Error(t, err)
	assert.Contains(t, out, "Invalid citation")
}

func TestFormatCommand(t *testing.T) {
	out, err := run(t, "format", "--style", "short", "Art. 5º, Constituição Federal")
	require.NoError(t, err)
	assert.Equal(t, "Art. 5º, CF/88\n", out)

	_, err = run(t, "format", "--style", "oscola", "Art. 5º, LGPD")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	path := seededLibrary(t)

	out, err := run(t, "--library", path, "validate", "Art. 5º, LGPD")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK]")

	out, err = run(t, "--library", path, "validate", "Art. 1º, Lei 8.666/1993")
	require.NoError(t, err)
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "repealed")

	_, err = run(t, "--library", path, "validate", "--fail-on-warn", "Art. 1º, Lei 8.666/1993")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	path := seededLibrary(t)

	out, err := run(t, "--library", path, "resolve", "LGPD")
	require.NoError(t, err)
	assert.Contains(t, out, "Resolved:   lei-13709-2018")

	_, err = run(t, "--library", path, "resolve", "lei 1/1900")
	assert.Error(t, err)
}

func TestSearchCommand(t *testing.T) {
	path := seededLibrary(t)

	out, err := run(t, "--library", path, "--format", "json", "search", "licitacoes")
	require.NoError(t, err)

	var body struct {
		Variant string `json:"variant"`
		Hits    []struct {
			DocumentID string `json:"document_id"`
		} `json:"hits"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, `"licitacoes"`, body.Variant)
	ids := make([]string, 0, len(body.Hits))
	for _, hit := range body.Hits {
		ids = append(ids, hit.DocumentID)
	}
	assert.Contains(t, ids, "lei-8666-1993")
}

func TestLibraryCommands(t *testing.T) {
	path := seededLibrary(t)

	out, err := run(t, "--library", path, "library", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "lei-8666-1993")
	assert.Contains(t, out, "repealed")

	_, err = run(t, "--library", path, "library", "remove", "lei-8666-1993")
	require.NoError(t, err)

	out, err = run(t, "--library", path, "library", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:  13")

	_, err = run(t, "--library", path, "library", "remove", "lei-8666-1993")
	assert.Error(t, err)
}

func TestAliasesCommand(t *testing.T) {
	out, err := run(t, "aliases", "--format", "json")
	require.NoError(t, err)

	var table map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &table))
	assert.Equal(t, "lei-13709-2018", table["lgpd"])
}

func TestInvalidGlobalFlags(t *testing.T) {
	_, err := run(t, "--format", "xml", "aliases")
	assert.Error(t, err)

	_, err = run(t, "--store", "sqlite", "aliases")
	assert.Error(t, err)
}
