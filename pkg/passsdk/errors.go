package passsdk

import (
	"errors"
	"fmt"
)

// ErrorResponse is the JSON error body every failed API call returns.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// APIError is a server-reported failure with a stable machine code.
type APIError struct {
	Code       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("passsdk: api error %s (http %d)", e.Code, e.StatusCode)
}

// Is matches API errors by code so callers can compare against sentinels.
func (e *APIError) Is(target error) bool {
	var other *APIError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Sentinels for the error codes callers commonly branch on.
var (
	ErrInvalidSharedSecret = &APIError{Code: "Invalid-Shared-Secret", StatusCode: 400}
	ErrUserNotFound        = &APIError{Code: "User-404", StatusCode: 400}
	ErrDuplicated          = &APIError{Code: "Duplicated", StatusCode: 400}
	ErrInvalidToken        = &APIError{Code: "Invalid-Token", StatusCode: 401}
	ErrInvalidTwoFactor    = &APIError{Code: "Invalid-Two-Factor", StatusCode: 400}
	ErrEmailNotVerified    = &APIError{Code: "Email-Not-Verified", StatusCode: 401}
	ErrRateLimit           = &APIError{Code: "Rate-Limit", StatusCode: 429}
)
