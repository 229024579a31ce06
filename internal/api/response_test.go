package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

func TestHandleError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"not found", trackrerrors.ErrProjectNotFound(3), http.StatusNotFound, "PROJECT_NOT_FOUND", "project 3 not found"},
		{"invalid with reason", trackrerrors.ErrInvalidInput("idea", "idea is required for skeleton mode"),
			http.StatusBadRequest, "INVALID_INPUT", "invalid idea: idea is required for skeleton mode"},
		{"timeout", trackrerrors.ErrCompletionTimeout("30s"), http.StatusGatewayTimeout, "COMPLETION_TIMEOUT", ""},
		{"unavailable", trackrerrors.ErrCompletionUnavailable("no key"), http.StatusServiceUnavailable, "COMPLETION_UNAVAILABLE", ""},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := rec.Body.String()
			assert.Equal(t, tt.code, gjson.Get(body, "code").String())
			if tt.msg != "" {
				assert.Equal(t, tt.msg, gjson.Get(body, "error").String())
			}
		})
	}
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
