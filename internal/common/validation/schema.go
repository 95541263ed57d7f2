package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error joins all field errors into one line.
func (r *ValidationResult) Error() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Schema is a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

// Compile compiles a schema given as a Go value (usually map[string]interface{}).
func Compile(def map[string]interface{}) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(def map[string]interface{}) *Schema {
	s, err := Compile(def)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks doc against the schema. doc may be a struct with json tags
// or a map.
func (s *Schema) Validate(doc interface{}) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// ProposalSubmissionSchema describes the fields a company must supply when
// responding to a request.
func ProposalSubmissionSchema(minContentLength int) map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"requestId", "companyId", "estimatedCost", "estimatedDuration", "content"},
		"properties": map[string]interface{}{
			"requestId":         map[string]interface{}{"type": "string", "minLength": 1},
			"companyId":         map[string]interface{}{"type": "string", "minLength": 1},
			"estimatedCost":     map[string]interface{}{"type": "integer", "minimum": 1},
			"estimatedDuration": map[string]interface{}{"type": "string", "minLength": 1},
			"content":           map[string]interface{}{"type": "string", "minLength": minContentLength},
			"attachments": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
	}
}
