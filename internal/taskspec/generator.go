package taskspec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const generateAttempts = 3

var (
	// ErrGeneration means the completion collaborator failed on every
	// attempt. Fatal: the task cannot be set up.
	ErrGeneration = errors.New("task generation failed")

	// ErrMalformedResponse means a single completion response was not
	// schema-conformant JSON. Retriable within the attempt budget.
	ErrMalformedResponse = errors.New("malformed completion response")
)

// Completer is the structured-completion collaborator: given a JSON schema
// and a prompt it returns free text expected to contain one conforming JSON
// object, optionally inside a markdown code fence.
type Completer interface {
	CompleteJSON(ctx context.Context, schema map[string]any, prompt string) (string, error)
}

// Generator produces the task specification for a user query: the parsed
// TaskConfig, the record schema derived from it, and the agent instructions.
type Generator struct {
	llm Completer
	log *zap.Logger
}

func NewGenerator(llm Completer, log *zap.Logger) *Generator {
	return &Generator{llm: llm, log: log}
}

// metaSchema is the fixed schema the completion collaborator must satisfy.
func metaSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"task_name": map[string]any{
				"type": "string", "description": "Short name for this research task",
			},
			"search_terms": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Keywords to search for",
			},
			"target_websites": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Optional specific websites to check",
			},
			"data_to_extract": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"field_name":  map[string]any{"type": "string"},
						"field_type":  map[string]any{"type": "string", "enum": []string{"string", "number", "integer", "boolean", "array"}},
						"description": map[string]any{"type": "string"},
					},
				},
				"description": "Fields to extract from results",
			},
			"success_criteria": map[string]any{
				"type": "string", "description": "When to stop searching",
			},
			"example_output": map[string]any{
				"type": "object", "description": "Example of expected output",
			},
		},
		"required": []string{"task_name", "search_terms", "data_to_extract", "success_criteria", "example_output"},
	}
}

const generationPrompt = `Based on this user request: %q

Generate a research task configuration that includes:
1. Clear search terms to use
2. What specific data fields to extract (with their types)
3. When to stop searching (success criteria - be flexible and achievable)
4. An example of the expected output structure

Important:
- Success criteria should be IMMEDIATELY achievable (e.g., "Found at least 1 relevant item")
- Include explicit instructions about extracting data AS SOON AS it's visible
- Emphasize recording partial data rather than waiting for perfect matches

Guidelines for success_criteria:
- Use phrases like: "IMMEDIATELY extract after finding ANY product with a visible price"
- Or: "STOP and extract data from the FIRST relevant result"
- Or: "Extract from the FIRST page showing products, do not navigate further"
- Success = Speed of extraction, not quality of results
- Never require more than 1 item or complete data

Remember: The agent should extract visible data immediately, not search endlessly for perfect matches.

Examples:
- For queries about FINDING LISTS OR COLLECTIONS:
  - search_terms: [main topic, topic + location/qualifier]
  - data_to_extract: relevant fields based on what user wants to know
  - success_criteria: "STOP and extract from FIRST page showing relevant items"

- For queries about INFORMATION OR RECOMMENDATIONS:
  - search_terms: [topic, topic + "best"/"top"/"reviews"]
  - data_to_extract: name/title (string), key details (string), any ratings if visible (string)
  - success_criteria: "Extract IMMEDIATELY upon finding ANY information about the topic"

- For queries about PRICES OR PRODUCTS:
  - search_terms: [product, product + "prices"/"buy"]
  - data_to_extract: name (string), price (string), details (string)
  - success_criteria: "STOP searching after finding FIRST item with a price"

Remember:
- Keep success criteria flexible and achievable
- Extract whatever useful data is visible
- Don't require specific data formats (like numeric ratings)
- If the query mentions reviews/ratings, make them optional string fields`

// Generate infers the task specification for userQuery. The completion call
// is retried up to three times on any failure; the third failure is fatal
// and surfaces as ErrGeneration.
func (g *Generator) Generate(ctx context.Context, userQuery string) (string, *RecordSchema, *TaskConfig, error) {
	prompt := fmt.Sprintf(generationPrompt, userQuery)
	schema := metaSchema()

	var cfg *TaskConfig
	var lastErr error
	for attempt := 1; attempt <= generateAttempts; attempt++ {
		cfg, lastErr = g.attempt(ctx, schema, prompt)
		if lastErr == nil {
			break
		}
		g.log.Warn("task generation attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", generateAttempts),
			zap.Error(lastErr))
	}
	if lastErr != nil {
		return "", nil, nil, fmt.Errorf("%w after %d attempts: %w", ErrGeneration, generateAttempts, lastErr)
	}

	recSchema, err := NewRecordSchema(cfg.Fields)
	if err != nil {
		return "", nil, nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	g.log.Info("task configuration generated",
		zap.String("task", cfg.TaskName),
		zap.Strings("search_terms", cfg.SearchTerms),
		zap.Int("fields", len(cfg.Fields)))

	return RenderInstructions(cfg), recSchema, cfg, nil
}

func (g *Generator) attempt(ctx context.Context, schema map[string]any, prompt string) (*TaskConfig, error) {
	text, err := g.llm.CompleteJSON(ctx, schema, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion call: %w", err)
	}

	doc := extractFenced(text)

	var cfg TaskConfig
	if err := json.Unmarshal([]byte(doc), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if err := checkRequired(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &cfg, nil
}

func checkRequired(cfg *TaskConfig) error {
	switch {
	case strings.TrimSpace(cfg.TaskName) == "":
		return errors.New("missing task_name")
	case len(cfg.SearchTerms) == 0:
		return errors.New("missing search_terms")
	case len(cfg.Fields) == 0:
		return errors.New("missing data_to_extract")
	case strings.TrimSpace(cfg.SuccessCriteria) == "":
		return errors.New("missing success_criteria")
	}
	return nil
}

// extractFenced pulls the JSON document out of a markdown code fence: the
// substring between the "```json" start marker and the last "```". Without a
// fence the whole response is the document.
func extractFenced(text string) string {
	const marker = "```json"
	start := strings.Index(text, marker)
	if start < 0 {
		return strings.TrimSpace(text)
	}
	end := strings.LastIndex(text, "```")
	if end <= start {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[start+len(marker) : end])
}
