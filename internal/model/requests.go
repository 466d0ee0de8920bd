package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// IssueSingleRecipientRequest creates a coupon bound to one
// recipient, single use.
type IssueSingleRecipientRequest struct {
	RecipientID   string          `json:"recipient_id" binding:"required"`
	DiscountType  DiscountType    `json:"discount_type" binding:"required"`
	DiscountValue decimal.Decimal `json:"discount_value" binding:"required"`
	CreatedBy     string          `json:"created_by" binding:"required"`
}

// IssueWindowedRequest creates a coupon valid inside a time window
// with per-recipient and optional global usage caps.
type IssueWindowedRequest struct {
	DiscountType        DiscountType    `json:"discount_type" binding:"required"`
	DiscountValue       decimal.Decimal `json:"discount_value" binding:"required"`
	ValidFrom           time.Time       `json:"valid_from" binding:"required"`
	ValidUntil          time.Time       `json:"valid_until" binding:"required"`
	MaxUsesPerRecipient int             `json:"max_uses_per_recipient" binding:"required"`
	TotalUsageLimit     *int            `json:"total_usage_limit"`
	CreatedBy           string          `json:"created_by" binding:"required"`
}

// ValidateRequest asks for an advisory eligibility decision.
type ValidateRequest struct {
	Code        string `json:"code" binding:"required"`
	RecipientID string `json:"recipient_id" binding:"required"`
}

// RedeemRequest performs an atomic redemption.
type RedeemRequest struct {
	Code           string `json:"code" binding:"required"`
	RecipientID    string `json:"recipient_id" binding:"required"`
	OrderReference string `json:"order_reference"`
}

// IssuedCouponResponse is the issuance payload. Window fields are
// only present for windowed coupons, RecipientID only for
// single-recipient ones.
type IssuedCouponResponse struct {
	CouponID            string          `json:"coupon_id"`
	Code                string          `json:"code"`
	CouponType          CouponType      `json:"coupon_type"`
	DiscountType        DiscountType    `json:"discount_type"`
	DiscountValue       decimal.Decimal `json:"discount_value"`
	RecipientID         string          `json:"recipient_id,omitempty"`
	ValidFrom           *time.Time      `json:"valid_from,omitempty"`
	ValidUntil          *time.Time      `json:"valid_until,omitempty"`
	MaxUsesPerRecipient int             `json:"max_uses_per_recipient,omitempty"`
	TotalUsageLimit     *int            `json:"total_usage_limit,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Decision is the advisory result of Validate. It is for display
// only; Redeem re-verifies everything inside its own transaction.
type Decision struct {
	CouponID      string          `json:"coupon_id"`
	Code          string          `json:"code"`
	CouponType    CouponType      `json:"coupon_type"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	CanRedeem     bool            `json:"can_redeem"`
	Message       string          `json:"message"`
}

// RedemptionResponse is the payload for a successful redemption.
type RedemptionResponse struct {
	RedemptionID    string          `json:"redemption_id"`
	CouponID        string          `json:"coupon_id"`
	Code            string          `json:"code"`
	RecipientID     string          `json:"recipient_id"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	RedeemedAt      time.Time       `json:"redeemed_at"`
	OrderReference  string          `json:"order_reference,omitempty"`
}
