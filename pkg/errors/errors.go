package errors

import (
	"errors"
	"fmt"
)

// Domain errors for the coupon engine
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCodeTaken         = errors.New("coupon code already exists")
	ErrStoreUnavailable  = errors.New("store unavailable")

	// ErrRejected is the match target for every RejectionError.
	ErrRejected = errors.New("redemption rejected")
)

// Fixed rejection reasons. These are business outcomes, not faults,
// and are surfaced to callers verbatim.
const (
	ReasonNotForRecipient    = "not available for this recipient"
	ReasonInvalidRecipient   = "invalid recipient"
	ReasonAlreadyRedeemed    = "already redeemed"
	ReasonNotYetActive       = "not yet active"
	ReasonExpired            = "expired"
	ReasonUsageLimitExceeded = "usage limit exceeded"
	ReasonPerRecipientLimit  = "per-recipient limit exceeded"
)

// RejectionError reports that a redemption was refused by coupon
// policy. It matches ErrRejected under errors.Is.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "redemption rejected: " + e.Reason
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

// Reject builds a RejectionError with one of the fixed reasons.
func Reject(reason string) error {
	return &RejectionError{Reason: reason}
}

// Invalid wraps ErrInvalidInput with a field-level message.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
