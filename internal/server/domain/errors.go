package domain

import "net/http"

// APIError is a typed, machine-readable failure. Services return these for
// every validation and business-rule failure; the HTTP layer maps them to a
// status code and JSON body. Anything that is not an *APIError reaching the
// boundary is treated as an unexpected server fault.
type APIError struct {
	Code   string
	Status int
}

func (e *APIError) Error() string { return e.Code }

var (
	ErrInvalidSharedSecret = &APIError{Code: "Invalid-Shared-Secret", Status: http.StatusBadRequest}
	ErrUserNotFound        = &APIError{Code: "User-404", Status: http.StatusBadRequest}
	ErrCipherNotFound      = &APIError{Code: "Cipher-404", Status: http.StatusNotFound}
	ErrCollectionNotFound  = &APIError{Code: "Collection-404", Status: http.StatusNotFound}
	ErrNotFound            = &APIError{Code: "404", Status: http.StatusNotFound}
	ErrDuplicated          = &APIError{Code: "Duplicated", Status: http.StatusBadRequest}
	ErrInvalidBody         = &APIError{Code: "Invalid-Body", Status: http.StatusBadRequest}
	ErrInvalidCipher       = &APIError{Code: "Invalid-Cipher", Status: http.StatusBadRequest}
	ErrInvalidCollection   = &APIError{Code: "Invalid-Collection", Status: http.StatusBadRequest}
	ErrEmailNotVerified    = &APIError{Code: "Email-Not-Verified", Status: http.StatusUnauthorized}
	ErrEmailInvalidCode    = &APIError{Code: "Email-Invalid-Code", Status: http.StatusBadRequest}
	ErrInvalidTwoFactor    = &APIError{Code: "Invalid-Two-Factor", Status: http.StatusBadRequest}
	ErrInvalidToken        = &APIError{Code: "Invalid-Token", Status: http.StatusUnauthorized}
	ErrRateLimit           = &APIError{Code: "Rate-Limit", Status: http.StatusTooManyRequests}
	ErrDatabase            = &APIError{Code: "Database-Error", Status: http.StatusInternalServerError}
	ErrMail                = &APIError{Code: "Mail-Error", Status: http.StatusInternalServerError}
)
