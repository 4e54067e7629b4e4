// file: internal/mcp/helpers.go

package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// MustMarshalJSON marshals v to JSON and panics on error. Used for static
// input schemas declared at startup, where failure is a programming error.
func MustMarshalJSON(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal static JSON schema: %v", err))
	}
	return json.RawMessage(bytes)
}

// marshalResult encodes a handler result, naming the result type on failure.
func marshalResult(v interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %T", v)
	}
	return b, nil
}
