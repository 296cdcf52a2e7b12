package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"auth-service/internal/model"
)

const defaultRequestTimeout = 30 * time.Second

// Timeout bounds handler execution. http.TimeoutHandler also cancels the
// request context, which aborts in-flight database calls.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: "REQUEST_TIMEOUT", Message: "request timed out"},
	})

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}
