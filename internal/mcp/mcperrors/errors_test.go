package mcperrors

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSONRPC_MapsCodedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
		wantData map[string]interface{}
	}{
		{
			name:     "method not found",
			err:      NewMethodNotFoundError("foo/bar"),
			wantCode: -32601,
			wantMsg:  "Method not found: foo/bar",
			wantData: map[string]interface{}{"method": "foo/bar"},
		},
		{
			name:     "tool not found",
			err:      NewToolNotFoundError("nope"),
			wantCode: -32601,
			wantMsg:  "Tool not found: nope",
			wantData: map[string]interface{}{"toolName": "nope"},
		},
		{
			name:     "resource not found",
			err:      NewResourceNotFoundError("sample://other"),
			wantCode: -32602,
			wantMsg:  "Resource not found: sample://other",
			wantData: map[string]interface{}{"uri": "sample://other"},
		},
		{
			name:     "parse error",
			err:      NewParseError("Parse error", fmt.Errorf("unexpected EOF")),
			wantCode: -32700,
			wantMsg:  "Parse error",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, msg, data := ToJSONRPC(tc.err)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantMsg, msg)
			assert.Equal(t, tc.wantData, data)
		})
	}
}

func TestToJSONRPC_HidesInternalDetail(t *testing.T) {
	code, msg, data := ToJSONRPC(NewInternalError("db password is hunter2", errors.New("boom")))
	assert.Equal(t, -32603, code)
	assert.Equal(t, InternalErrorMessage, msg)
	assert.Nil(t, data)

	code, msg, _ = ToJSONRPC(errors.New("plain go error"))
	assert.Equal(t, -32603, code)
	assert.Equal(t, InternalErrorMessage, msg)
}

func TestToJSONRPC_FindsWrappedBaseError(t *testing.T) {
	wrapped := errors.Wrap(NewToolNotFoundError("x"), "while dispatching")
	assert.Equal(t, ErrMethodNotFound, CodeOf(wrapped))
}

func TestToJSONRPC_DropsUnsafeContext(t *testing.T) {
	err := NewInvalidParamsError("bad", nil, map[string]interface{}{"token": "secret", "uri": "a://b"})
	_, _, data := ToJSONRPC(err)
	assert.Equal(t, map[string]interface{}{"uri": "a://b"}, data)
}

func TestBaseError_UnwrapsCause(t *testing.T) {
	cause := errors.New("root cause")
	err := NewInvalidParamsError("bad args", cause, nil)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Code: -32602")
	assert.Contains(t, err.Error(), "root cause")
}
