package validation

import (
	"encoding/json"
	"errors"
	"testing"
)

const testSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "locale": {"type": "string", "minLength": 1},
    "reason": {"type": "string"}
  },
  "required": ["locale"],
  "additionalProperties": false
}`

func TestNewValidatorRejectsBadSchema(t *testing.T) {
	if _, err := NewValidator("bad.json", `{"type":`); !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}
}

func TestValidateAcceptsConformingPayload(t *testing.T) {
	validator, err := NewValidator("req.json", testSchema)
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	payload := map[string]any{"locale": "hi", "reason": "content change"}
	if err := validator.Validate(payload); err != nil {
		t.Fatalf("expected payload to validate, got %v", err)
	}
}

func TestValidateReportsIssuesWithLocations(t *testing.T) {
	validator, err := NewValidator("req.json", testSchema)
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}

	var payload any
	if err := json.Unmarshal([]byte(`{"reason": 7}`), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	err = validator.Validate(payload)
	if err == nil {
		t.Fatal("expected payload rejection")
	}
	if !errors.Is(err, ErrPayloadRejected) {
		t.Fatalf("expected ErrPayloadRejected, got %v", err)
	}

	issues := Issues(err)
	if len(issues) == 0 {
		t.Fatal("expected at least one issue")
	}
	var sawReason bool
	for _, issue := range issues {
		if issue.Location == "/reason" {
			sawReason = true
		}
	}
	if !sawReason {
		t.Fatalf("expected an issue at /reason, got %+v", issues)
	}
}

func TestIssuesFallsBackToMessage(t *testing.T) {
	issues := Issues(errors.New("boom"))
	if len(issues) != 1 || issues[0].Message != "boom" {
		t.Fatalf("expected single fallback issue, got %+v", issues)
	}
}
