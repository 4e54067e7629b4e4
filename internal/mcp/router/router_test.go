// file: internal/mcp/router/router_test.go
package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/mcp/mcperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockHandler = errors.New("mock handler error")

// mockHandler echoes the method and params, or fails.
func mockHandler(method string, shouldError bool) Handler {
	return func(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
		if shouldError {
			return nil, errMockHandler
		}
		resp := map[string]interface{}{
			"receivedMethod": method,
			"receivedParams": string(params),
		}
		resBytes, _ := json.Marshal(resp)
		return resBytes, nil
	}
}

func TestRouter_NewRouter_Succeeds(t *testing.T) {
	r, err := NewRouter(nil,
		Route{Method: "a", Handler: mockHandler("a", false)},
		Route{Method: "b", Handler: mockHandler("b", false)},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Methods())
}

func TestRouter_NewRouter_Fails_When_DuplicateMethod(t *testing.T) {
	_, err := NewRouter(logging.GetNoopLogger(),
		Route{Method: "duplicate", Handler: mockHandler("duplicate", false)},
		Route{Method: "duplicate", Handler: mockHandler("duplicate", false)},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRouter_NewRouter_Fails_When_NoHandler(t *testing.T) {
	_, err := NewRouter(logging.GetNoopLogger(), Route{Method: "nohandler"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no handler")
}

func TestRouter_NewRouter_Fails_When_EmptyMethod(t *testing.T) {
	_, err := NewRouter(logging.GetNoopLogger(), Route{Method: "", Handler: mockHandler("", false)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty method name")
}

func TestRouter_Route_Succeeds_When_MethodExists(t *testing.T) {
	method := "test/doSomething"
	r, err := NewRouter(logging.GetNoopLogger(), Route{Method: method, Handler: mockHandler(method, false)})
	require.NoError(t, err)

	resBytes, routeErr := r.Route(context.Background(), method, json.RawMessage(`{"arg": 1}`))

	require.NoError(t, routeErr)
	assert.JSONEq(t, `{"receivedMethod":"test/doSomething","receivedParams":"{\"arg\": 1}"}`, string(resBytes))
}

func TestRouter_Route_Fails_When_MethodNotFound(t *testing.T) {
	r, err := NewRouter(logging.GetNoopLogger())
	require.NoError(t, err)

	resBytes, routeErr := r.Route(context.Background(), "unknown/method", nil)

	require.Error(t, routeErr)
	assert.Nil(t, resBytes)
	assert.Equal(t, mcperrors.ErrMethodNotFound, mcperrors.CodeOf(routeErr))
}

func TestRouter_Route_Propagates_HandlerError(t *testing.T) {
	r, err := NewRouter(logging.GetNoopLogger(), Route{Method: "fails", Handler: mockHandler("fails", true)})
	require.NoError(t, err)

	resBytes, routeErr := r.Route(context.Background(), "fails", nil)
	assert.Nil(t, resBytes)
	assert.ErrorIs(t, routeErr, errMockHandler)
}

func TestRouter_Methods_EmptyWhenNoRoutes(t *testing.T) {
	r, err := NewRouter(logging.GetNoopLogger())
	require.NoError(t, err)
	assert.Empty(t, r.Methods())
}
