package results

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/go-research-agent/internal/taskspec"
)

func TestSaveWritesIndentedJSON(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	rs := taskspec.NewResultSet(
		[]taskspec.Record{{"title": "Widget", "position": "1st", "url": "u", "snippet": "s"}},
		"found one widget", true)

	path, err := store.Save(rs, "run.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded taskspec.ResultSet
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, rs.SearchSummary, loaded.SearchSummary)
	assert.True(t, loaded.SearchComplete)
	require.Len(t, loaded.FoundItems, 1)
	assert.Equal(t, "Widget", loaded.FoundItems[0]["title"])
}

func TestSaveDefaultFilename(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	path, err := store.Save(taskspec.NewResultSet(nil, "empty run", false), "")
	require.NoError(t, err)

	name := filepath.Base(path)
	assert.Regexp(t, `^research_\d{8}_\d{6}\.json$`, name)
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	store := NewStore(dir)

	path, err := store.Save(taskspec.NewResultSet(nil, "s", false), "x.json")
	require.NoError(t, err)
	assert.FileExists(t, path)
}
