package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-tours-api/internal/apperror"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var e Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestRespondData(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondData(rec, map[string]string{"name": "test"}, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	e := decodeEnvelope(t, rec)
	assert.Equal(t, "success", e.Status)
	assert.Nil(t, e.Results)
	assert.NotNil(t, e.Data)
}

func TestRespondList_ZeroResults(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondList(rec, 0, map[string]any{"data": []string{}})

	assert.Equal(t, http.StatusOK, rec.Code)
	// A zero count must still appear in the body
	assert.Contains(t, rec.Body.String(), `"results":0`)
}

func TestRespondToken(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondToken(rec, "v4.local.abc", map[string]string{"name": "test"}, http.StatusOK)

	e := decodeEnvelope(t, rec)
	assert.Equal(t, "success", e.Status)
	assert.Equal(t, "v4.local.abc", e.Token)
}

func TestRespondNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondNoContent(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
		wantMsg    string
	}{
		{"validation", apperror.Validation("bad input"), http.StatusBadRequest, "fail", "bad input"},
		{"unauthenticated", apperror.Unauthenticated("log in"), http.StatusUnauthorized, "fail", "log in"},
		{"forbidden", apperror.Forbidden("no access"), http.StatusForbidden, "fail", "no access"},
		{"not found", apperror.NotFound("missing"), http.StatusNotFound, "fail", "missing"},
		{"duplicate", apperror.Duplicate("already there"), http.StatusBadRequest, "fail", "already there"},
		{"fatal", apperror.Fatal(errors.New("db exploded")), http.StatusInternalServerError, "error", "something went very wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			e := decodeEnvelope(t, rec)
			assert.Equal(t, tt.wantStatus, e.Status)
			assert.Equal(t, tt.wantMsg, e.Message)
		})
	}
}

// Internal details of unexpected errors must not reach the client.
func TestRespondError_OpaqueInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: connection refused at 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, rec.Body.String(), "something went very wrong")
}
