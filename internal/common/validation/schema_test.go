package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	Company      string `json:"company" validate:"notblank"`
	Status       string `json:"status" validate:"jobstatus"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	OfficeDays   *int   `json:"office_days" validate:"omitempty,min=0,max=7"`
}

func TestValidateStruct(t *testing.T) {
	res := ValidateStruct(form{Company: "Acme", Status: "Applied"})
	assert.True(t, res.Valid)

	days := 9
	res = ValidateStruct(form{Company: "  ", Status: "Ghosted", ContactEmail: "nope", OfficeDays: &days})
	require.False(t, res.Valid)

	byField := map[string]ValidationError{}
	for _, e := range res.Errors {
		byField[e.Field] = e
	}
	assert.Equal(t, "NOTBLANK_VIOLATION", byField["company"].Code)
	assert.Contains(t, byField["status"].Message, "Interview Scheduled")
	assert.Equal(t, "must be an email address", byField["contact_email"].Message)
	assert.Equal(t, "must be at most 7", byField["office_days"].Message)
	assert.Contains(t, res.Summary(), "company: required field missing")
}

func decode(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"empty sections", `{"cv_config":{"sections":{}}}`, true},
		{"extra top-level keys", `{"theme":"dark","cv_config":{"sections":{"a":{"enabled":false,"items":[{"x":1}]}}}}`, true},
		{"missing cv_config", `{"sections":{}}`, false},
		{"sections not a mapping", `{"cv_config":{"sections":[]}}`, false},
		{"missing sections", `{"cv_config":{}}`, false},
		{"items not a list", `{"cv_config":{"sections":{"a":{"items":{}}}}}`, false},
		{"top level not an object", `[]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ValidateDocument(decode(t, tt.doc), ProfileDocumentSchema)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid, res.Summary())
			if !tt.valid {
				assert.NotEmpty(t, res.Errors)
			}
		})
	}
}
