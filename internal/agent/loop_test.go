package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-research-agent/internal/browser"
	"github.com/nbenliogludev/go-research-agent/internal/taskspec"
)

// fakeCollab returns a canned answer, fails, or blocks until cancelled.
type fakeCollab struct {
	answer string
	err    error
	block  bool
}

func (f *fakeCollab) Run(ctx context.Context, instructions, directive string, exec browser.Executor, maxTurns int) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.answer, f.err
}

func testSchema(t *testing.T) *taskspec.RecordSchema {
	t.Helper()
	s, err := taskspec.NewRecordSchema([]taskspec.FieldSpec{
		{Name: "price", Type: taskspec.FieldString, Description: "listed price"},
	})
	require.NoError(t, err)
	return s
}

func newTestSupervisor(collab Collaborator, timeout time.Duration) *Supervisor {
	return NewSupervisor(collab, 20, timeout, zap.NewNop())
}

const goodAnswer = `Here is what I found:
{
  "found_items": [
    {"title": "Widget", "position": "1st result", "url": "https://example.com", "snippet": "a widget", "price": "$9.99"}
  ],
  "search_summary": "Found one widget with a price",
  "search_complete": true
}`

func TestRunParsesFinalAnswer(t *testing.T) {
	sup := newTestSupervisor(&fakeCollab{answer: goodAnswer}, time.Minute)
	exec := browser.NewSimExecutor(1280, 720, zap.NewNop())

	rs := sup.Run(context.Background(), "instructions", testSchema(t), exec)

	assert.True(t, rs.SearchComplete)
	assert.Equal(t, "Found one widget with a price", rs.SearchSummary)
	require.Len(t, rs.FoundItems, 1)
	assert.Equal(t, "$9.99", rs.FoundItems[0]["price"])
	assert.NotEmpty(t, rs.Timestamp)
}

func TestRunAbsorbsCollaboratorError(t *testing.T) {
	sup := newTestSupervisor(&fakeCollab{err: errors.New("browser crashed")}, time.Minute)
	exec := browser.NewSimExecutor(1280, 720, zap.NewNop())

	rs := sup.Run(context.Background(), "instructions", testSchema(t), exec)

	assert.False(t, rs.SearchComplete)
	assert.Empty(t, rs.FoundItems)
	assert.Contains(t, rs.SearchSummary, "browser crashed")
}

func TestRunAbsorbsUnparseableAnswer(t *testing.T) {
	sup := newTestSupervisor(&fakeCollab{answer: "I could not find anything, sorry"}, time.Minute)
	exec := browser.NewSimExecutor(1280, 720, zap.NewNop())

	rs := sup.Run(context.Background(), "instructions", testSchema(t), exec)

	assert.False(t, rs.SearchComplete)
	assert.Empty(t, rs.FoundItems)
	assert.Contains(t, rs.SearchSummary, "could not be parsed")
}

func TestRunTimesOutWithinBound(t *testing.T) {
	sup := newTestSupervisor(&fakeCollab{block: true}, 50*time.Millisecond)
	exec := browser.NewSimExecutor(1280, 720, zap.NewNop())

	start := time.Now()
	rs := sup.Run(context.Background(), "instructions", testSchema(t), exec)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, rs.SearchComplete)
	assert.Contains(t, rs.SearchSummary, "time budget")
}

func TestParseFinalMalformedItemFailsWholeParse(t *testing.T) {
	// Second item misses the price field: the whole answer is rejected.
	answer := `{
  "found_items": [
    {"title": "a", "position": "1st", "url": "u", "snippet": "s", "price": "$1"},
    {"title": "b", "position": "2nd", "url": "u", "snippet": "s"}
  ],
  "search_summary": "two items",
  "search_complete": true
}`
	_, err := parseFinal(answer, testSchema(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found_items[1]")
}

func TestParseFinalSearchCompleteDefaultsFalse(t *testing.T) {
	rs, err := parseFinal(`{"found_items": [], "search_summary": "nothing"}`, testSchema(t))
	require.NoError(t, err)
	assert.False(t, rs.SearchComplete)
	assert.Equal(t, "nothing", rs.SearchSummary)
	assert.Empty(t, rs.FoundItems)
}

func TestParseFinalRequiresSearchSummary(t *testing.T) {
	_, err := parseFinal(`{"found_items": [], "search_complete": true}`, testSchema(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search_summary")
}

func TestParseFinalRejectsNonListItems(t *testing.T) {
	_, err := parseFinal(`{"found_items": "oops", "search_summary": "s"}`, testSchema(t))
	require.Error(t, err)
}
