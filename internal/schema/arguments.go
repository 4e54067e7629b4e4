// Package schema compiles tool input schemas, fills in declared defaults and
// validates tool arguments before a handler sees them. It also holds the
// naming rules for tools and resources.
// file: internal/schema/arguments.go
package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ArgumentError describes tool arguments that cannot be used: not a JSON
// object, or an object that fails schema validation.
type ArgumentError struct {
	// Schema names the tool whose schema rejected the arguments.
	Schema string
	// Detail is a short, client-safe description of what is wrong.
	Detail string
	// InstancePath points at the offending value, e.g. "/count".
	InstancePath string
	// Cause is the underlying decoder or validator error.
	Cause error
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	msg := "invalid arguments for " + e.Schema + ": " + e.Detail
	if e.InstancePath != "" {
		msg += " (at " + e.InstancePath + ")"
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ArgumentError) Unwrap() error {
	return e.Cause
}

// Arguments is a compiled input schema for one tool. It is immutable after
// Compile and safe for concurrent use.
type Arguments struct {
	name     string
	compiled *jsonschema.Schema
	defaults map[string]interface{}
}

// Compile compiles raw as a JSON Schema (draft 2020-12) and records the
// top-level property defaults. name is used in resource URLs and errors.
func Compile(name string, raw json.RawMessage) (*Arguments, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage(`{"type":"object"}`)
	}

	var doc struct {
		Properties map[string]struct {
			Default json.RawMessage `json:"default"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "input schema for %s is not a JSON object", name)
	}

	defaults := make(map[string]interface{})
	for prop, def := range doc.Properties {
		if len(def.Default) == 0 {
			continue
		}
		v, err := decodeJSON(def.Default)
		if err != nil {
			return nil, errors.Wrapf(err, "default for %s.%s", name, prop)
		}
		defaults[prop] = v
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	resourceID := "mem://tools/" + name + ".json"
	if err := compiler.AddResource(resourceID, bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrapf(err, "failed to add input schema for %s", name)
	}
	compiled, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile input schema for %s", name)
	}

	return &Arguments{name: name, compiled: compiled, defaults: defaults}, nil
}

// Prepare fills missing top-level properties with their declared defaults,
// validates the result and returns it re-encoded. Absent or null arguments
// are treated as an empty object.
func (a *Arguments) Prepare(raw json.RawMessage) (json.RawMessage, error) {
	args := map[string]interface{}{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		v, err := decodeJSON(trimmed)
		if err != nil {
			return nil, &ArgumentError{Schema: a.name, Detail: "arguments are not valid JSON", Cause: err}
		}
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, &ArgumentError{Schema: a.name, Detail: "arguments must be a JSON object"}
		}
		args = obj
	}

	for k, v := range a.defaults {
		if _, present := args[k]; !present {
			args[k] = v
		}
	}

	if err := a.compiled.Validate(args); err != nil {
		return nil, toArgumentError(a.name, err)
	}

	out, err := json.Marshal(normalizeNumbers(args))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to re-encode arguments for %s", a.name)
	}
	return out, nil
}

// Name returns the schema name given to Compile.
func (a *Arguments) Name() string {
	return a.name
}

func toArgumentError(name string, err error) error {
	var valErr *jsonschema.ValidationError
	if !errors.As(err, &valErr) {
		return &ArgumentError{Schema: name, Detail: "validation failed", Cause: err}
	}

	// The deepest cause carries the most specific message.
	leaf := valErr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	detail := strings.TrimSpace(leaf.Message)
	if detail == "" {
		detail = "validation failed"
	}
	return &ArgumentError{
		Schema:       name,
		Detail:       detail,
		InstancePath: leaf.InstanceLocation,
		Cause:        valErr,
	}
}

// maxExactInt is the largest magnitude a float64 holds without losing
// integer precision.
const maxExactInt = 1 << 53

// normalizeNumbers rewrites whole numbers written as 3.0 or 3e0 to plain
// integers, so they decode into Go integer fields after passing an
// "integer" schema.
func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return t
		}
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
			return t
		}
		return int64(f)
	default:
		return v
	}
}

func decodeJSON(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}
