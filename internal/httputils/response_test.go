// file: internal/httputils/response_test.go
package httputils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteJSON(rec, http.StatusAccepted, map[string]string{"status": "ok"}))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWriteJSON_Fails_When_Unencodable(t *testing.T) {
	rec := httptest.NewRecorder()

	err := WriteJSON(rec, http.StatusOK, map[string]interface{}{"ch": make(chan int)})

	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForCode(-32700))
	assert.Equal(t, http.StatusBadRequest, StatusForCode(-32600))
	assert.Equal(t, http.StatusInternalServerError, StatusForCode(-32603))
	assert.Equal(t, http.StatusOK, StatusForCode(-32601))
}
