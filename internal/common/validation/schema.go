package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"jobvault/internal/models"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins every error as "field: message".
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		if e.Field == "" {
			parts = append(parts, e.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// ==========================
// Struct validation
// ==========================

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the job tags registered:
// jobstatus (closed status set) and notblank (non-empty after trimming).
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("jobstatus", func(fl validator.FieldLevel) bool {
			return models.Status(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validate = v
	})
	return validate
}

// ValidateStruct runs the validator tags of s.
func ValidateStruct(s interface{}) *ValidationResult {
	err := Validator().Struct(s)
	if err == nil {
		return &ValidationResult{Valid: true}
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return &ValidationResult{Errors: []ValidationError{{Message: err.Error(), Code: "INVALID_INPUT"}}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: tagMessage(fe),
			Code:    strings.ToUpper(fe.Tag()) + "_VIOLATION",
		})
	}
	return &ValidationResult{Errors: out}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "required field missing"
	case "jobstatus":
		return fmt.Sprintf("status must be one of %v", models.Statuses)
	case "email":
		return "must be an email address"
	case "url":
		return "must be a URL"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ==========================
// Document validation
// ==========================

// ProfileDocumentSchema is the required top-level shape of the per-user
// profile document. Other top-level keys are allowed and preserved.
var ProfileDocumentSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"cv_config"},
	"properties": map[string]interface{}{
		"cv_config": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"sections"},
			"properties": map[string]interface{}{
				"sections": map[string]interface{}{
					"type": "object",
					"additionalProperties": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"enabled":          map[string]interface{}{"type": "boolean"},
							"preselected":      map[string]interface{}{"type": "boolean"},
							"title_override":   map[string]interface{}{"type": "string"},
							"field_visibility": map[string]interface{}{"type": "object", "additionalProperties": map[string]interface{}{"type": "boolean"}},
							"items":            map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "object"}},
						},
					},
				},
			},
		},
	},
}

// ValidateDocument checks a decoded JSON document against schema.
func ValidateDocument(doc interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return &ValidationResult{Valid: true}, nil
	}

	errs := make([]ValidationError, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		}
	}
	return &ValidationResult{Errors: errs}, nil
}
