package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"
)

// Short aliases used throughout the codebase.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeNotImplemented = ErrCodeNotImplemented
	CodeUnknown        = ErrorCode("UNKNOWN")
	CodeOK             = ErrorCode("OK")

	CodeBadQuery        = ErrCodeQueryInvalid
	CodeBadConfig       = ErrCodeWrapperBadConfig
	CodeReviewNotFound  = ErrCodeReviewNotFound
	CodeResultNotFound  = ErrCodeResultNotFound
	CodeDBQueryError    = ErrCodeDatabaseError
	CodeDBConnectionError = ErrCodeDatabaseError
	CodeCacheError      = ErrCodeCacheError
)

// Query Module Error Codes — canonical query construction and translation.
const (
	ErrCodeQueryInvalid          ErrorCode = "QRY_001"
	ErrCodeQueryEmptyGroup       ErrorCode = "QRY_002"
	ErrCodeQueryEmptyTerm        ErrorCode = "QRY_003"
	ErrCodeQueryOrNot            ErrorCode = "QRY_004"
	ErrCodeQueryUnknownField     ErrorCode = "QRY_005"
	ErrCodeQueryUnknownMatch     ErrorCode = "QRY_006"
	ErrCodeQueryIllegalFieldValue ErrorCode = "QRY_007"
)

// Wrapper Configuration Error Codes.
const (
	ErrCodeWrapperBadConfig         ErrorCode = "CFG_001"
	ErrCodeWrapperUnknownCollection ErrorCode = "CFG_002"
	ErrCodeWrapperIllegalFormat     ErrorCode = "CFG_003"
)

// Provider Call Error Codes — transport and vendor responses.
const (
	ErrCodeProviderHTTP          ErrorCode = "PRV_001"
	ErrCodeProviderConnection    ErrorCode = "PRV_002"
	ErrCodeProviderTimeout       ErrorCode = "PRV_003"
	ErrCodeProviderRequest       ErrorCode = "PRV_004"
	ErrCodeProviderUnimplemented ErrorCode = "PRV_005"
	ErrCodeProviderBadResponse   ErrorCode = "PRV_006"
	ErrCodeProviderNoCredentials ErrorCode = "PRV_007"
)

// Review / Result Store Error Codes.
const (
	ErrCodeReviewNotFound    ErrorCode = "REV_001"
	ErrCodeReviewExists      ErrorCode = "REV_002"
	ErrCodeQuerySessionNotFound ErrorCode = "REV_003"
	ErrCodeResultNotFound    ErrorCode = "RES_001"
	ErrCodeResultMissingDOI  ErrorCode = "RES_002"
	ErrCodeScoreInvalid      ErrorCode = "RES_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeQueryInvalid:           http.StatusBadRequest,
	ErrCodeQueryEmptyGroup:        http.StatusBadRequest,
	ErrCodeQueryEmptyTerm:         http.StatusBadRequest,
	ErrCodeQueryOrNot:             http.StatusBadRequest,
	ErrCodeQueryUnknownField:      http.StatusBadRequest,
	ErrCodeQueryUnknownMatch:      http.StatusBadRequest,
	ErrCodeQueryIllegalFieldValue: http.StatusBadRequest,

	ErrCodeWrapperBadConfig:         http.StatusBadRequest,
	ErrCodeWrapperUnknownCollection: http.StatusBadRequest,
	ErrCodeWrapperIllegalFormat:     http.StatusBadRequest,

	ErrCodeProviderHTTP:          http.StatusBadGateway,
	ErrCodeProviderConnection:    http.StatusBadGateway,
	ErrCodeProviderTimeout:       http.StatusGatewayTimeout,
	ErrCodeProviderRequest:       http.StatusBadGateway,
	ErrCodeProviderUnimplemented: http.StatusNotImplemented,
	ErrCodeProviderBadResponse:   http.StatusBadGateway,
	ErrCodeProviderNoCredentials: http.StatusServiceUnavailable,

	ErrCodeReviewNotFound:       http.StatusNotFound,
	ErrCodeReviewExists:         http.StatusConflict,
	ErrCodeQuerySessionNotFound: http.StatusNotFound,
	ErrCodeResultNotFound:       http.StatusNotFound,
	ErrCodeResultMissingDOI:     http.StatusUnprocessableEntity,
	ErrCodeScoreInvalid:         http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeQueryInvalid:           "invalid search query",
	ErrCodeQueryEmptyGroup:        "no search groups specified",
	ErrCodeQueryEmptyTerm:         "no search terms specified",
	ErrCodeQueryOrNot:             "only AND NOT supported",
	ErrCodeQueryUnknownField:      "unsupported search field",
	ErrCodeQueryUnknownMatch:      "unknown match connector",
	ErrCodeQueryIllegalFieldValue: "illegal value for search field",

	ErrCodeWrapperBadConfig:         "invalid wrapper configuration",
	ErrCodeWrapperUnknownCollection: "unknown collection",
	ErrCodeWrapperIllegalFormat:     "illegal result format for collection",

	ErrCodeProviderHTTP:          "provider returned an HTTP error",
	ErrCodeProviderConnection:    "failed to establish a connection to provider",
	ErrCodeProviderTimeout:       "provider request timed out",
	ErrCodeProviderRequest:       "provider request failed",
	ErrCodeProviderUnimplemented: "collection not implemented",
	ErrCodeProviderBadResponse:   "provider returned an unparsable response",
	ErrCodeProviderNoCredentials: "no API key configured for provider",

	ErrCodeReviewNotFound:       "review not found",
	ErrCodeReviewExists:         "review already exists",
	ErrCodeQuerySessionNotFound: "query session not found",
	ErrCodeResultNotFound:       "result not found",
	ErrCodeResultMissingDOI:     "result record has no DOI",
	ErrCodeScoreInvalid:         "invalid score evaluation",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
