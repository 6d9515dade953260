package taskspec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const goodResponse = "Here is your configuration:\n```json\n" + `{
  "task_name": "Pizza price research",
  "search_terms": ["margherita pizza prices", "order margherita pizza"],
  "data_to_extract": [
    {"field_name": "price", "field_type": "string", "description": "listed price"}
  ],
  "success_criteria": "STOP after finding FIRST item with a price",
  "example_output": {"price": "$12.99"}
}` + "\n```\nGood luck!"

// scriptedCompleter replays canned responses or errors in order.
type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (c *scriptedCompleter) CompleteJSON(ctx context.Context, schema map[string]any, prompt string) (string, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	return c.responses[i], nil
}

func TestGenerateSucceedsOnThirdAttempt(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{"not json at all", "```json\n{\"task_name\": \"x\"}\n```", goodResponse},
	}
	gen := NewGenerator(completer, zap.NewNop())

	instructions, schema, cfg, err := gen.Generate(context.Background(), "find pizza prices")
	require.NoError(t, err)
	assert.Equal(t, 3, completer.calls)
	assert.Equal(t, "Pizza price research", cfg.TaskName)
	assert.NotEmpty(t, instructions)
	assert.Contains(t, schema.FieldNames(), "price")
}

func TestGenerateFailsAfterThreeAttempts(t *testing.T) {
	boom := errors.New("boom")
	completer := &scriptedCompleter{
		responses: []string{"", "", ""},
		errs:      []error{boom, boom, boom},
	}
	gen := NewGenerator(completer, zap.NewNop())

	_, _, _, err := gen.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, 3, completer.calls)
}

func TestGenerateRejectsMissingRequiredFields(t *testing.T) {
	// Valid JSON, but no search_terms: still a malformed response.
	partial := "```json\n" + `{
  "task_name": "x",
  "data_to_extract": [{"field_name": "a", "field_type": "string", "description": "d"}],
  "success_criteria": "stop"
}` + "\n```"
	completer := &scriptedCompleter{responses: []string{partial, partial, partial}}
	gen := NewGenerator(completer, zap.NewNop())

	_, _, _, err := gen.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGenerateRejectsCollidingFieldNames(t *testing.T) {
	colliding := "```json\n" + `{
  "task_name": "x",
  "search_terms": ["a"],
  "data_to_extract": [{"field_name": "title", "field_type": "string", "description": "d"}],
  "success_criteria": "stop",
  "example_output": {}
}` + "\n```"
	completer := &scriptedCompleter{responses: []string{colliding}}
	gen := NewGenerator(completer, zap.NewNop())

	_, _, _, err := gen.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestExtractFenced(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced", "prose\n```json\n{\"a\": 1}\n```\nmore prose", `{"a": 1}`},
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"fence never closed", "```json\n{\"a\": 1}", "```json\n{\"a\": 1}"},
		{"last terminator wins", "```json\n{\"a\": \"``` inside\"}\n```", "{\"a\": \"``` inside\"}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractFenced(tt.in))
		})
	}
}
