package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Email string `json:"email"`
	Title string `json:"title"`
}

func (t testRequest) Validate() ValidationErrors {
	errs := ValidationErrors{}
	errs.Required("email", t.Email)
	errs.Email("email", t.Email)
	errs.MaxLength("title", t.Title, 5)
	return errs
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantOK      bool
		wantMessage string
		wantDetails map[string][]string
	}{
		{name: "valid", body: `{"email":"a@x.com","title":"Talk"}`, wantOK: true},
		{name: "empty body", body: ``, wantMessage: "request body is required"},
		{name: "malformed json", body: `{"email":`, wantMessage: "request body is not valid JSON"},
		{name: "unknown field", body: `{"email":"a@x.com","status":"ACCEPTED"}`, wantMessage: `unknown field "status"`},
		{name: "wrong type", body: `{"email":5}`, wantMessage: "email has the wrong type"},
		{name: "trailing data", body: `{"email":"a@x.com"}{}`, wantMessage: "single JSON object"},
		{
			name:        "field errors",
			body:        `{"email":"","title":"Too long"}`,
			wantMessage: "Validation failed",
			wantDetails: map[string][]string{
				"email": {"email is required"},
				"title": {"title must be at most 5 characters"},
			},
		},
		{
			name:        "display name is not a bare address",
			body:        `{"email":"Ann <a@x.com>"}`,
			wantMessage: "Validation failed",
			wantDetails: map[string][]string{"email": {"email must be a valid email address"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://test/x", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			var dest testRequest

			ok := DecodeAndValidate(rr, req, &dest)

			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "a@x.com", dest.Email)
				return
			}
			require.Equal(t, http.StatusBadRequest, rr.Code)
			var body APIError
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, ErrCodeBadRequest, body.Code)
			assert.Contains(t, body.Error, tt.wantMessage)
			if tt.wantDetails != nil {
				assert.Equal(t, ValidationErrors(tt.wantDetails), body.Details)
			}
		})
	}
}
