package app

import (
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// eventSchema is the canonical schema every outbound payload is validated
// against just before signing. Ingress reuses it through ValidateEnvelope.
const eventSchema = `{
	"type": "object",
	"required": ["event_id", "event_type", "timestamp", "payload", "metadata", "created_at"],
	"additionalProperties": false,
	"properties": {
		"event_id":   {"type": "string", "minLength": 1, "maxLength": 255, "pattern": "^[A-Za-z0-9_-]+$"},
		"event_type": {"type": "string", "minLength": 1, "maxLength": 255, "pattern": "^[A-Za-z0-9_]+$"},
		"timestamp":  {"type": "string", "format": "date-time"},
		"payload":    {"type": "object", "maxProperties": 100},
		"metadata":   {"type": "object"},
		"created_at": {"type": "string", "format": "date-time"}
	}
}`

// ValidationIssue describes a single schema violation.
type ValidationIssue struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Constraint string `json:"constraint"`
}

// SchemaValidator validates event envelopes against the canonical schema.
type SchemaValidator struct {
	schema *gojsonschema.Schema
}

func NewSchemaValidator() (*SchemaValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(eventSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling event schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate checks serialized envelope bytes against the schema and returns
// any violations. A non-nil error means validation could not run at all.
func (v *SchemaValidator) Validate(doc []byte) ([]ValidationIssue, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, WrapError(KindInternal, "SCHEMA_VALIDATION_ERROR", "schema validation could not run", err)
	}

	var issues []ValidationIssue
	for _, re := range result.Errors() {
		issues = append(issues, ValidationIssue{
			Field:      re.Field(),
			Message:    re.Description(),
			Constraint: re.Type(),
		})
	}
	return issues, nil
}

// ValidateEnvelope serializes the envelope, runs the schema, and applies the
// timestamp round-trip checks the schema alone cannot express. Returns a
// validation Error listing every issue found.
func (v *SchemaValidator) ValidateEnvelope(env Envelope) error {
	doc, err := env.Marshal()
	if err != nil {
		return WrapError(KindInternal, "ENVELOPE_ENCODE_FAILED", "envelope could not be serialized", err)
	}

	issues, err := v.Validate(doc)
	if err != nil {
		return err
	}

	if issue := checkTimestampRoundTrip("timestamp", env.Timestamp); issue != nil {
		issues = append(issues, *issue)
	}
	if issue := checkTimestampRoundTrip("created_at", env.CreatedAt); issue != nil {
		issues = append(issues, *issue)
	}

	if len(issues) > 0 {
		return NewError(KindValidation, "SCHEMA_INVALID", formatIssues(issues))
	}
	return nil
}

// checkTimestampRoundTrip ensures a timestamp survives parse and re-serialize
// without drifting to a different instant.
func checkTimestampRoundTrip(field string, value string) *ValidationIssue {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return &ValidationIssue{Field: field, Message: "must be an ISO-8601 timestamp", Constraint: "format"}
	}
	reparsed, err := time.Parse(time.RFC3339Nano, parsed.Format(time.RFC3339Nano))
	if err != nil || !reparsed.Equal(parsed) {
		return &ValidationIssue{Field: field, Message: "timestamp does not round-trip through serialization", Constraint: "format"}
	}
	return nil
}

func formatIssues(issues []ValidationIssue) string {
	msg := "payload failed schema validation:"
	for _, issue := range issues {
		msg += fmt.Sprintf(" [%s: %s]", issue.Field, issue.Message)
	}
	return msg
}
