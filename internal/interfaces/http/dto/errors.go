package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>

const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used for request validation failures
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeUnknownPlatform is used when no adapter serves the platform
	ErrCodeUnknownPlatform = "ERR_UNKNOWN_PLATFORM"
	// ErrCodeSyncIncomplete is used when a cross-platform pass left failures behind
	ErrCodeSyncIncomplete = "ERR_SYNC_INCOMPLETE"
	// ErrCodeSweepBusy is used when a manual sweep collides with a running one
	ErrCodeSweepBusy = "ERR_SWEEP_BUSY"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeAlreadyExists:   http.StatusConflict,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeUnknownPlatform: http.StatusBadRequest,
	ErrCodeSyncIncomplete:  http.StatusBadGateway,
	ErrCodeSweepBusy:       http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodeMapping maps domain error codes to the API error codes
var domainErrorCodeMapping = map[string]string{
	"NOT_FOUND":         ErrCodeNotFound,
	"ALREADY_EXISTS":    ErrCodeAlreadyExists,
	"ALREADY_SOLD":      ErrCodeInvalidState,
	"NOT_LISTABLE":      ErrCodeInvalidState,
	"INVALID_TITLE":     ErrCodeValidation,
	"INVALID_PRICE":     ErrCodeValidation,
	"INVALID_FEES":      ErrCodeValidation,
	"INVALID_PRODUCT":   ErrCodeValidation,
	"INVALID_PLATFORM":  ErrCodeUnknownPlatform,
	"INVALID_STATE":     ErrCodeInvalidState,
	"DELIST_INCOMPLETE": ErrCodeSyncIncomplete,
}

// NormalizeErrorCode converts a domain error code to the API error format.
// Codes without a mapping pass through unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
