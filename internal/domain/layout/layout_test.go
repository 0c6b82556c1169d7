package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreservesOrderAndFlattensGroups(t *testing.T) {
	doc := []byte(`
project_root: ${PROJECT_ROOT}
data:
  input: ${project_root}/data/input
  output: ${project_root}/data/output
models:
  base: ${project_root}/models
  cache: ${models.base}/cache
logs: ${project_root}/logs
`)

	l, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"project_root",
		"data.input",
		"data.output",
		"models.base",
		"models.cache",
		"logs",
	}, l.Keys())

	tpl, ok := l.Template("models.cache")
	require.True(t, ok)
	assert.Equal(t, "${models.base}/cache", tpl)
}

func TestParseRejectsNonStringLeaf(t *testing.T) {
	_, err := Parse([]byte("logs: 42\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logs")
}

func TestNewRejectsDuplicateKeys(t *testing.T) {
	_, err := New([]Entry{
		{"logs", "${PROJECT_ROOT}/logs"},
		{"logs", "${PROJECT_ROOT}/other"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRejectsInvalidKey(t *testing.T) {
	_, err := New([]Entry{{"Bad Key", "${PROJECT_ROOT}"}})
	require.Error(t, err)
}

func TestNewRejectsEmptyTemplate(t *testing.T) {
	_, err := New([]Entry{{"logs", ""}})
	require.Error(t, err)
}

func TestNewRejectsEmptyLayout(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestDefaultLayoutIsWellFormed(t *testing.T) {
	l := Default()
	assert.Equal(t, 13, l.Len())
	assert.True(t, l.Has("project_root"))
	assert.True(t, l.Has("models.pixtral"))
	assert.True(t, l.Has("data.input"))

	// project_root must come first so everything can reference it.
	assert.Equal(t, "project_root", l.Keys()[0])
}

func TestEntriesReturnsCopy(t *testing.T) {
	l := Default()
	entries := l.Entries()
	entries[0] = Entry{Key: "mutated", Template: "x"}

	assert.Equal(t, "project_root", l.Keys()[0])
}
