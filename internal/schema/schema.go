// Package schema checks a written type list against the output schema.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/canectors/typegen/internal/modules/output"
)

//go:embed schema/types-schema.json
var embeddedSchema []byte

const schemaURL = "https://canectors.io/schemas/typegen/v1/types-schema.json"

// recordKeys is the key order every record must have.
var recordKeys = []string{"id", "name", "groupID"}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaInitErr  error
)

// ValidationError describes one violation in the written document.
type ValidationError struct {
	// Path is the JSON pointer of the offending value.
	Path string `json:"path"`
	// Type is a short violation kind (required, type, additionalProperties, order...).
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Report is the outcome of validating one output file.
type Report struct {
	Path    string            `json:"path"`
	Valid   bool              `json:"valid"`
	Records int               `json:"records"`
	Bytes   int64             `json:"bytes"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// GetEmbeddedSchema returns the embedded output schema.
func GetEmbeddedSchema() []byte {
	return embeddedSchema
}

func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(embeddedSchema))
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			schemaInitErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiledSchema, err = compiler.Compile(schemaURL)
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to compile schema: %w", err)
		}
	})

	if schemaInitErr != nil {
		return nil, schemaInitErr
	}
	return compiledSchema, nil
}

// ValidateFile decompresses the file at path and validates its content.
// An error is returned only when the file cannot be read or decompressed;
// content problems are reported in Report.Errors.
func ValidateFile(path string) (*Report, error) {
	r, err := output.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %q: %w", path, err)
	}

	report := Validate(data)
	report.Path = path
	return report, nil
}

// Validate checks an uncompressed payload: valid JSON, matching the schema,
// compact, with record keys in id, name, groupID order.
func Validate(data []byte) *Report {
	report := &Report{Valid: true, Bytes: int64(len(data))}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		report.addError("/", "syntax", fmt.Sprintf("invalid JSON: %v", err))
		return report
	}

	sch, err := getCompiledSchema()
	if err != nil {
		report.addError("/", "schema", fmt.Sprintf("failed to load schema: %v", err))
		return report
	}

	if err := sch.Validate(doc); err != nil {
		var detailed *jsonschema.ValidationError
		if errors.As(err, &detailed) {
			for _, ve := range convertValidationErrors(detailed) {
				report.addError(ve.Path, ve.Type, ve.Message)
			}
		} else {
			report.addError("/", "validation", err.Error())
		}
	}

	if items, ok := doc.([]any); ok {
		report.Records = len(items)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err == nil && !bytes.Equal(compact.Bytes(), data) {
		report.addError("/", "format", "document is not compact JSON")
	}

	if report.Valid {
		for _, ve := range checkKeyOrder(data) {
			report.addError(ve.Path, ve.Type, ve.Message)
		}
	}
	return report
}

func (r *Report) addError(path, typ, msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Path: path, Type: typ, Message: msg})
}

// checkKeyOrder walks the top-level array and compares each record's keys
// with recordKeys. Only called on schema-valid documents.
func checkKeyOrder(data []byte) []ValidationError {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return []ValidationError{{Path: "/", Type: "syntax", Message: err.Error()}}
	}

	var errs []ValidationError
	for i, rec := range raw {
		keys, err := objectKeys(rec)
		if err != nil {
			errs = append(errs, ValidationError{Path: fmt.Sprintf("/%d", i), Type: "syntax", Message: err.Error()})
			continue
		}
		if strings.Join(keys, ",") != strings.Join(recordKeys, ",") {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("/%d", i),
				Type:    "order",
				Message: fmt.Sprintf("keys are %v, want %v", keys, recordKeys),
			})
		}
	}
	return errs
}

func objectKeys(rec json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(rec))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// convertValidationErrors flattens a jsonschema error tree.
func convertValidationErrors(err *jsonschema.ValidationError) []ValidationError {
	var out []ValidationError
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		out = append(out, ValidationError{
			Path:    formatInstanceLocation(err.InstanceLocation),
			Type:    extractErrorType(err),
			Message: err.Error(),
		})
	}
	for _, cause := range err.Causes {
		out = append(out, convertValidationErrors(cause)...)
	}
	return out
}

func formatInstanceLocation(loc []string) string {
	if len(loc) == 0 {
		return "/"
	}
	return "/" + strings.Join(loc, "/")
}

func extractErrorType(err *jsonschema.ValidationError) string {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "additional"):
		return "additionalProperties"
	case strings.Contains(msg, "missing"), strings.Contains(msg, "required"):
		return "required"
	case strings.Contains(msg, "want"):
		return "type"
	default:
		return "validation"
	}
}
