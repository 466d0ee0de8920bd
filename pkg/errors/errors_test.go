package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectionErrorMatchesErrRejected(t *testing.T) {
	err := Reject(ReasonAlreadyRedeemed)

	assert.ErrorIs(t, err, ErrRejected)

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, ReasonAlreadyRedeemed, rejection.Reason)
	assert.Equal(t, "redemption rejected: already redeemed", err.Error())
}

func TestRejectionErrorDoesNotMatchOtherSentinels(t *testing.T) {
	err := Reject(ReasonExpired)

	assert.False(t, errors.Is(err, ErrCouponNotFound))
	assert.False(t, errors.Is(err, ErrInvalidInput))
}

func TestRejectionSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("redeem: %w", Reject(ReasonUsageLimitExceeded))

	assert.ErrorIs(t, err, ErrRejected)
	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, ReasonUsageLimitExceeded, rejection.Reason)
}

func TestInvalidWrapsSentinel(t *testing.T) {
	err := Invalid("discount_value must be a positive number")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "discount_value")
}
