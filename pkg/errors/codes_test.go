package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
	assert.Equal(t, "QRY_004", ErrCodeQueryOrNot.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{ErrCodeBadRequest, 400},
		{ErrCodeNotFound, 404},
		{ErrCodeQueryOrNot, 400},
		{ErrCodeWrapperBadConfig, 400},
		{ErrCodeProviderHTTP, 502},
		{ErrCodeProviderTimeout, 504},
		{ErrCodeProviderUnimplemented, 501},
		{ErrCodeReviewNotFound, 404},
		{ErrorCode("UNKNOWN"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code), string(tt.code))
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal server error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "only AND NOT supported", DefaultMessageForCode(ErrCodeQueryOrNot))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE")))
}

func TestIsClientServerError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.True(t, IsClientError(ErrCodeQueryUnknownField))
	assert.False(t, IsClientError(ErrCodeProviderHTTP))
	assert.True(t, IsServerError(ErrCodeProviderHTTP))
	assert.False(t, IsServerError(ErrCodeValidation))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "QRY", ModuleForCode(ErrCodeQueryInvalid))
	assert.Equal(t, "PRV", ModuleForCode(ErrCodeProviderTimeout))
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
}
