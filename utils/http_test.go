package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusOK, map[string]string{"message": "test"})
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusNoContent, nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteOK(w, map[string]string{"nickname": "gromit"}))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, float64(200), body["status"])
	assert.Equal(t, SuccessMessage, body["message"])
	assert.Equal(t, "gromit", body["data"].(map[string]interface{})["nickname"])
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteCreated(w, "ok"))

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, float64(201), body["status"])
	assert.Equal(t, "ok", body["data"])
}

func TestWriteFailure(t *testing.T) {
	t.Run("explicit message", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteFailure(w, http.StatusUnauthorized, "invalid access token"))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeEnvelope(t, w)
		assert.Equal(t, float64(401), body["status"])
		assert.Equal(t, "invalid access token", body["message"])
		assert.Contains(t, body, "data")
		assert.Nil(t, body["data"])
	})

	t.Run("default message", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteFailure(w, http.StatusForbidden, ""))
		assert.Equal(t, "Forbidden", decodeEnvelope(t, w)["message"])
	})
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Nickname string `json:"nickname"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"nickname":"gromit"}`},
		{name: "unknown field", body: `{"nickname":"gromit","admin":true}`, wantErr: true},
		{name: "trailing data", body: `{"nickname":"a"}{"nickname":"b"}`, wantErr: true},
		{name: "not json", body: `nickname=gromit`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(req, &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "gromit", p.Nickname)
		})
	}
}
