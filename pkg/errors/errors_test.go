package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyCodesMapToStatus(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, ErrTooManyRequests.HTTPStatus)
	assert.Equal(t, http.StatusPaymentRequired, ErrInsufficientCredits.HTTPStatus)
	assert.Equal(t, http.StatusForbidden, ErrGuestQuotaExhausted.HTTPStatus)
	assert.Equal(t, http.StatusUnauthorized, ErrAuthRequired.HTTPStatus)
	assert.Equal(t, http.StatusBadGateway, New(CodeCollaboratorError, "x").HTTPStatus)
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	e := ErrInsufficientCredits.WithDetail("need 2, have 1")
	assert.Equal(t, "need 2, have 1", e.Detail)
	assert.Empty(t, ErrInsufficientCredits.Detail)
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("gate: %w", ErrGuestQuotaExhausted)
	assert.True(t, IsAppError(wrapped))
	assert.True(t, HasCode(wrapped, CodeGuestQuotaExhausted))
	assert.True(t, AsAppError(wrapped).IsPolicyRejection())

	plain := AsAppError(stderrors.New("boom"))
	assert.Equal(t, CodeUnknown, plain.Code)
	assert.False(t, plain.IsPolicyRejection())
}
