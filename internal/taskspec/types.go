// Package taskspec turns a free-text research request into an extraction
// schema, a validated record shape and operating instructions for the
// browser-driving agent.
package taskspec

import "time"

// FieldType is the declared type of an extraction field. Unrecognized values
// degrade to string rather than failing the task.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
	FieldBoolean FieldType = "boolean"
	FieldList    FieldType = "array" // list of strings
)

// FieldSpec is one named, typed, described unit of data the task must
// extract. Immutable once created; names are unique within a task.
type FieldSpec struct {
	Name        string    `json:"field_name"`
	Type        FieldType `json:"field_type"`
	Description string    `json:"description"`
}

// TaskConfig is the schema-inference result for one research run. Read-only
// after creation; it drives both the instructions text and the record shape.
type TaskConfig struct {
	TaskName        string      `json:"task_name"`
	SearchTerms     []string    `json:"search_terms"`
	TargetSites     []string    `json:"target_websites,omitempty"`
	Fields          []FieldSpec `json:"data_to_extract"`
	SuccessCriteria string      `json:"success_criteria"`
	ExampleOutput   any         `json:"example_output,omitempty"`
}

// Record is one extracted item, validated against the task's RecordSchema.
type Record map[string]any

// ResultSet is the terminal artifact of one research run.
type ResultSet struct {
	FoundItems     []Record `json:"found_items"`
	SearchSummary  string   `json:"search_summary"`
	SearchComplete bool     `json:"search_complete"`
	Timestamp      string   `json:"timestamp"`
}

// NewResultSet builds a ResultSet stamped with the current time.
func NewResultSet(items []Record, summary string, complete bool) *ResultSet {
	return &ResultSet{
		FoundItems:     items,
		SearchSummary:  summary,
		SearchComplete: complete,
		Timestamp:      time.Now().Format(time.RFC3339),
	}
}
