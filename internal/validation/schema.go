package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-cms-admin/internal/domain"
	goerrors "github.com/goliatone/go-errors"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var ErrSchemaValidation = errors.New("schema validation failed")

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// PayloadValidationError surfaces validation issues with schema-aware context.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
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
	return ErrSchemaValidation
}

// Issues extracts validation issues from an error.
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
		return collectValidationIssues(validationErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

const orderSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["order"],
  "properties": {
    "order": {
      "type": "array",
      "items": {"type": ["string", "integer"]}
    }
  }
}`

const bulkSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["ids"],
  "properties": {
    "action": {"enum": ["toggle", "activate", "deactivate", "delete"]},
    "ids": {
      "oneOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}}
      ]
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func schemas() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = map[string]*jsonschema.Schema{}
		for name, source := range map[string]string{"order.json": orderSchema, "bulk.json": bulkSchema} {
			schema, err := compileSchema(name, source)
			if err != nil {
				compileErr = err
				return
			}
			compiled[name] = schema
		}
	})
	return compiled, compileErr
}

// OrderPayload is the body of a reorder request.
type OrderPayload struct {
	Order []string
}

// BulkPayload is the body of a bulk request. Ids may arrive as a
// comma-separated string or a list.
type BulkPayload struct {
	Action string
	IDs    []string
}

// DecodeOrderPayload validates {"order": [...]} and returns the raw ids in
// order. Numeric ids are kept in their decimal form.
func DecodeOrderPayload(raw []byte) (OrderPayload, error) {
	doc, err := validate("order.json", raw)
	if err != nil {
		return OrderPayload{}, err
	}
	items, _ := doc["order"].([]any)
	out := OrderPayload{Order: make([]string, 0, len(items))}
	for _, item := range items {
		out.Order = append(out.Order, fmt.Sprint(item))
	}
	return out, nil
}

// DecodeBulkPayload validates a bulk request body.
func DecodeBulkPayload(raw []byte) (BulkPayload, error) {
	doc, err := validate("bulk.json", raw)
	if err != nil {
		return BulkPayload{}, err
	}
	out := BulkPayload{}
	if action, ok := doc["action"].(string); ok {
		out.Action = action
	}
	switch ids := doc["ids"].(type) {
	case string:
		out.IDs = SplitIDs(ids)
	case []any:
		for _, id := range ids {
			out.IDs = append(out.IDs, fmt.Sprint(id))
		}
	}
	return out, nil
}

// SplitIDs splits a comma-separated id list, dropping blanks.
func SplitIDs(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func validate(name string, raw []byte) (map[string]any, error) {
	set, err := schemas()
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, domain.ValidationError("payload is not valid JSON").
			WithMetadata(map[string]any{"cause": err.Error()})
	}
	if err := set[name].Validate(doc); err != nil {
		payloadErr := &PayloadValidationError{Issues: Issues(err), Cause: err}
		return nil, goerrors.Wrap(payloadErr, goerrors.CategoryValidation, payloadErr.Error()).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(domain.TextCodeValidation).
			WithMetadata(map[string]any{"issues": payloadErr.Issues})
	}
	object, _ := doc.(map[string]any)
	return object, nil
}

func compileSchema(name, source string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
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
