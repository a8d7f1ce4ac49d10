package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDraft_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "spring.yaml", `
subject_line: Call for Papers
journal_name: Journal of Applied Ecology Methods
waiver_available: true
waiver_percentage: 140
submit_url: https://www.jaem-journal.org/submit
credibility_urls:
  - https://www.jaem-journal.org/about
body: |
  Dear Dr. Smith,
  Please submit.
`)

	drafts, err := LoadDraft(path)
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	d := drafts[0]
	assert.Equal(t, "spring", d.ID)
	assert.Equal(t, "Call for Papers", d.SubjectLine)
	assert.True(t, d.WaiverAvailable)
	assert.Equal(t, 100, d.WaiverPercentage, "percentage is clamped")
	assert.Equal(t, []string{"https://www.jaem-journal.org/about"}, d.CredibilityURLs)
	assert.Contains(t, d.Body, "Please submit.")
}

func TestLoadDraft_YAMLList(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "variants.yml", `
- subject_line: A
  body: first
- id: custom
  subject_line: B
  body: second
`)

	drafts, err := LoadDraft(path)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "variants-1", drafts[0].ID)
	assert.Equal(t, "custom", drafts[1].ID)
}

func TestLoadDraft_JSON(t *testing.T) {
	dir := t.TempDir()
	single := writeTemp(t, dir, "one.json", `{"subject_line": "A", "body": "x", "issn": "2345-6789"}`)
	list := writeTemp(t, dir, "many.json", `[{"subject_line": "A"}, {"subject_line": "B"}]`)

	drafts, err := LoadDraft(single)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "2345-6789", drafts[0].ISSN)

	drafts, err = LoadDraft(list)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)
}

func TestLoadDraft_PlainBody(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "email.txt", "Subject: Call for Papers\r\n\r\nDear Dr. Smith,\r\nPlease submit.\r\n")

	drafts, err := LoadDraft(path)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Call for Papers", drafts[0].SubjectLine)
	assert.Equal(t, "Dear Dr. Smith,\nPlease submit.\n", drafts[0].Body)
}

func TestLoadDraft_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDraft(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadDraft(writeTemp(t, dir, "bad.json", `{"subject_line": `))
	assert.Error(t, err)

	_, err = LoadDraft(writeTemp(t, dir, "empty.yaml", ""))
	assert.Error(t, err)
}

func TestDraftFiles(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "b.yaml", "body: x")
	writeTemp(t, dir, "a.html", "<p>x</p>")
	writeTemp(t, dir, "notes.md", "ignored")
	writeTemp(t, dir, ".hidden.yaml", "body: x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0755))

	paths, err := DraftFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.html"), filepath.Join(dir, "b.yaml")}, paths)

	drafts, err := LoadDrafts(paths)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)
	assert.Equal(t, "a", drafts[0].ID)
}
