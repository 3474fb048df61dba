package validation

import (
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrSchemaInvalid reports a schema document that fails to compile.
	ErrSchemaInvalid = errors.New("validation: schema invalid")
	// ErrPayloadRejected reports a payload that fails schema validation.
	ErrPayloadRejected = errors.New("validation: payload rejected")
)

// ValidationIssue locates a single payload validation failure.
type ValidationIssue struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

// PayloadValidationError carries the per-location issues behind a rejected
// payload so transports can surface them without parsing error strings.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		if e != nil && e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrPayloadRejected.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrPayloadRejected
}

// Issues extracts validation issues from an error chain.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) && payloadErr != nil {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectIssues(validationErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

// Validator compiles one JSON Schema and checks decoded payloads against it.
// Payloads must be decoded JSON values (json.Unmarshal output; json.Number
// values from UseNumber decoders are handled).
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles source, a draft 2020-12 JSON Schema document,
// registered under the given resource name.
func NewValidator(name, source string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate checks a decoded payload. Rejections come back as a
// *PayloadValidationError carrying the flattened issue list.
func (v *Validator) Validate(payload any) error {
	if v == nil || v.schema == nil {
		return nil
	}
	if err := v.schema.Validate(payload); err != nil {
		return &PayloadValidationError{Issues: Issues(err), Cause: err}
	}
	return nil
}

// collectIssues flattens the jsonschema cause tree into leaf issues.
func collectIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
