package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationMessage(t *testing.T) {
	assert.Equal(t, "This field is required", ValidationMessage("required", ""))
	assert.Equal(t, "Must be at least 6 characters", ValidationMessage("min", "6"))
	assert.Equal(t, "Must be at most 255 characters", ValidationMessage("max", "255"))
	assert.Equal(t, "Failed the alphanum rule", ValidationMessage("alphanum", ""))
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "Not Found", (&APIError{Title: "Not Found"}).Error())
	assert.Equal(t, "batch missing", (&APIError{Title: "Not Found", Detail: "batch missing"}).Error())
}
