// Package schemas provides JSON Schema validation for documents fed to the CLI.
package schemas

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/rank-engine/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// Embedded schema names.
const (
	CandidatePool  = "candidate_pool"
	WeightProposal = "weight_proposal"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Names lists the embedded schemas.
func Names() []string {
	matches, _ := fs.Glob(schemas.FS, "*.schema.json")
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(m, ".schema.json"))
	}
	return names
}

// Embedded returns the content of an embedded schema by name.
func Embedded(name string) ([]byte, error) {
	data, err := fs.ReadFile(schemas.FS, name+".schema.json")
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "unknown schema", Cause: err}
	}
	return data, nil
}

// Validate checks a JSON document against the named embedded schema.
func Validate(name string, document []byte) error {
	schema, err := Embedded(name)
	if err != nil {
		return err
	}
	return validate(name, gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(document))
}

// ValidateJSON validates a JSON file against a JSON Schema file
func ValidateJSON(schemaPath, jsonPath string) error {
	// Resolve absolute paths to handle relative paths correctly
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}

	jsonAbsPath, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}

	if _, err := os.Stat(schemaAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbsPath)
	}

	if _, err := os.Stat(jsonAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", jsonAbsPath)
	}

	return validate(schemaAbsPath,
		gojsonschema.NewReferenceLoader("file://"+schemaAbsPath),
		gojsonschema.NewReferenceLoader("file://"+jsonAbsPath))
}

func validate(path string, schemaLoader, documentLoader gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		// Unresolvable $ref, invalid schema syntax or an unparsable document
		return &SchemaLoadError{
			Path:    path,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
