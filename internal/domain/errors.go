package domain

import "fmt"

// Problem types returned in the "type" member of error responses
const (
	ErrorTypeBadRequest         = "bad_request"
	ErrorTypeValidation         = "validation_error"
	ErrorTypeUnauthorized       = "unauthorized"
	ErrorTypeForbidden          = "forbidden"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeConflict           = "conflict"
	ErrorTypeAllocationConflict = "allocation_conflict"
	ErrorTypeTooLarge           = "payload_too_large"
	ErrorTypeUnsupportedMedia   = "unsupported_media_type"
	ErrorTypeUnprocessable      = "unprocessable_entity"
	ErrorTypeNoEligibleTargets  = "no_eligible_targets"
	ErrorTypeRateLimited        = "rate_limited"
	ErrorTypeInternal           = "internal_error"
)

// APIError is the JSON error body. Errors holds per-field messages for
// validation failures only.
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return e.Title
	}
	return e.Detail
}

// ValidationMessage turns a failed validator tag and its parameter into a
// message for the errors map.
func ValidationMessage(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", param)
	case "max":
		return fmt.Sprintf("Must be at most %s characters", param)
	case "uuid":
		return "Must be a valid UUID"
	default:
		return "Failed the " + tag + " rule"
	}
}
