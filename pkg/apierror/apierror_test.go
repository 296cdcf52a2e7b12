package apierror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST: email is required (email)", BadRequest("email is required", "email").Error())
	assert.Equal(t, "NOT_FOUND: gone", New("NOT_FOUND", "gone", "", http.StatusNotFound).Error())

	var nilErr *APIError
	assert.Empty(t, nilErr.Error())
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("validate: %w", BadRequest("bad", "x"))
	assert.Equal(t, http.StatusBadRequest, StatusOf(wrapped))
	assert.Zero(t, StatusOf(fmt.Errorf("plain")))
}
