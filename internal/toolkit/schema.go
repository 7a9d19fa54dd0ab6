// Package toolkit implements the Tool Registry & Dispatcher: a mapping from tool name to {description, JSON-Schema, handler}
// with argument validation and outcome mapping.
//
// Schema validation is hand-rolled over a small typed Schema rather than
// built on a JSON-Schema library: brennhill's own handler.go validates
// tool arguments the same way (see allowedToolArgumentKeys, which walks
// tool.InputSchema["properties"].(map[string]any) by hand), and
// google/jsonschema-go appears only as an indirect transitive dependency
// elsewhere, with no direct usage to imitate — see DESIGN.md.
package toolkit

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Schema is a minimal JSON-Schema subset sufficient for describing tool
// argument objects: object-of-properties with required fields, per-field
// type and enum checks. It intentionally does not support the full
// JSON-Schema grammar (nested $ref, oneOf, etc.) — tool argument objects
// are always flat-ish property tables.
type Schema struct {
	Type string `json:"type"`
	Properties map[string]Schema `json:"properties,omitempty"`
	Required []string `json:"required,omitempty"`
	Enum []string `json:"enum,omitempty"`
	Items *Schema `json:"items,omitempty"`
	Description string `json:"description,omitempty"`
}

// ValidationError names the first failing JSON-pointer-ish path.
type ValidationError struct {
	Pointer string
	Reason string
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Pointer, v.Reason)
}

// Validate checks raw against s, returning the first failing pointer.
func Validate(s Schema, raw json.RawMessage) *ValidationError {
	var v any
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return &ValidationError{Pointer: "/", Reason: "invalid JSON: " + err.Error()}
	}
	return validateValue("", s, v)
}

func validateValue(ptr string, s Schema, v any) *ValidationError {
	if s.Type == "" {
		return nil
	}
	switch s.Type {
	case "object":
		obj, ok := v.(map[string]any)
		if !ok {
			return &ValidationError{Pointer: ptrOr(ptr), Reason: "expected object"}
		}
		// Required fields checked in schema-declared order for a
		// deterministic "first failing pointer".
		for _, req := range s.Required {
			if _, present := obj[req]; !present {
				return &ValidationError{Pointer: ptrOr(ptr) + "/" + req, Reason: "missing required field"}
			}
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			propSchema, known := s.Properties[k]
			if !known {
				continue // unknown fields are ignored, not rejected
			}
			if err := validateValue(ptrOr(ptr)+"/"+k, propSchema, obj[k]); err != nil {
				return err
			}
		}
	case "string":
		str, ok := v.(string)
		if !ok {
			return &ValidationError{Pointer: ptrOr(ptr), Reason: "expected string"}
		}
		if len(s.Enum) > 0 && !contains(s.Enum, str) {
			return &ValidationError{Pointer: ptrOr(ptr), Reason: fmt.Sprintf("must be one of %v", s.Enum)}
		}
	case "number":
		if _, ok := v.(float64); !ok {
			return &ValidationError{Pointer: ptrOr(ptr), Reason: "expected number"}
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			return &ValidationError{Pointer: ptrOr(ptr), Reason: "expected boolean"}
		}
	case "array":
		arr, ok := v.([]any)
		if !ok {
			return &ValidationError{Pointer: ptrOr(ptr), Reason: "expected array"}
		}
		if s.Items != nil {
			for i, item := range arr {
				if err := validateValue(fmt.Sprintf("%s/%d", ptrOr(ptr), i), *s.Items, item); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func ptrOr(p string) string {
	if p == "" {
		return ""
	}
	return p
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
