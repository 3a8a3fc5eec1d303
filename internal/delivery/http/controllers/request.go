package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"eventdesk/internal/delivery/http/helpers"
	"eventdesk/internal/delivery/http/middleware"
	"eventdesk/internal/domain"

	"github.com/google/uuid"
)

// Field limits shared by the request DTOs.
const (
	maxTitleLength     = 500
	maxContentLength   = 50000
	maxNameLength      = 100
	maxSpecialtyLength = 100
	maxNotesLength     = 10000
	minPasswordLength  = 8
	maxPasswordLength  = 256
)

// nullable distinguishes an omitted JSON field from an explicit null.
type nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (n *nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// StatusResponse is the data payload of writes that return no resource.
type StatusResponse struct {
	Status string `json:"status"`
}

func principal(w http.ResponseWriter, r *http.Request) (*domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return p, ok
}

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

func optionalUUID(errs helpers.ValidationErrors, field string, value *string) {
	if value != nil && !validUUID(*value) {
		errs.Add(field, field+" must be a valid UUID")
	}
}

func optionalText(errs helpers.ValidationErrors, field string, value *string, maxLen int) {
	if value == nil {
		return
	}
	if strings.TrimSpace(*value) == "" {
		errs.Add(field, field+" must not be empty")
	}
	errs.MaxLength(field, *value, maxLen)
}

func checkPassword(errs helpers.ValidationErrors, field, value string) {
	if value == "" {
		errs.Add(field, field+" is required")
		return
	}
	if len(value) < minPasswordLength {
		errs.Add(field, field+" must be at least 8 characters")
	}
	errs.MaxLength(field, value, maxPasswordLength)
}
