package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CouponType selects which policy variant governs a coupon. Exactly
// one policy record of the matching kind exists per coupon.
type CouponType string

const (
	CouponTypeSingleRecipient CouponType = "SINGLE_RECIPIENT"
	CouponTypeWindowed        CouponType = "WINDOWED"
)

// DiscountType is how the recorded discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "PERCENTAGE"
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
)

// Coupon is the catalog record: identity, discount terms, status.
// Code is immutable once set and unique across all coupons.
type Coupon struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Code          string               `bson:"code" json:"code"`
	Type          CouponType           `bson:"coupon_type" json:"coupon_type"`
	DiscountType  DiscountType         `bson:"discount_type" json:"discount_type"`
	DiscountValue primitive.Decimal128 `bson:"discount_value" json:"discount_value"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	CreatedBy     string               `bson:"created_by" json:"created_by"`
	IsActive      bool                 `bson:"is_active" json:"is_active"`
}

// SingleRecipientPolicy restricts a coupon to one recipient with a
// binary redeemed flag. IsRedeemed only ever transitions false to
// true; a unique index on (coupon_id, recipient_id) guarantees one
// row per pairing.
type SingleRecipientPolicy struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CouponID    primitive.ObjectID `bson:"coupon_id" json:"coupon_id"`
	RecipientID string             `bson:"recipient_id" json:"recipient_id"`
	IsRedeemed  bool               `bson:"is_redeemed" json:"is_redeemed"`
	RedeemedAt  *time.Time         `bson:"redeemed_at" json:"redeemed_at"`
}

// WindowedPolicy restricts a coupon to a validity window with a
// per-recipient cap and an optional global cap. CurrentUsageCount
// starts at zero and is incremented only inside a successful
// redemption; it never exceeds TotalUsageLimit when that is set.
type WindowedPolicy struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CouponID            primitive.ObjectID `bson:"coupon_id" json:"coupon_id"`
	ValidFrom           time.Time          `bson:"valid_from" json:"valid_from"`
	ValidUntil          time.Time          `bson:"valid_until" json:"valid_until"`
	MaxUsesPerRecipient int                `bson:"max_uses_per_recipient" json:"max_uses_per_recipient"`
	TotalUsageLimit     *int               `bson:"total_usage_limit" json:"total_usage_limit"` // nil = unbounded
	CurrentUsageCount   int                `bson:"current_usage_count" json:"current_usage_count"`
}

// Redemption is one immutable ledger entry recording a completed
// redemption. DiscountApplied snapshots the coupon's discount at
// redemption time, decoupled from later coupon mutation.
type Redemption struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	CouponID        primitive.ObjectID   `bson:"coupon_id" json:"coupon_id"`
	RecipientID     string               `bson:"recipient_id" json:"recipient_id"`
	RedeemedAt      time.Time            `bson:"redeemed_at" json:"redeemed_at"`
	OrderReference  string               `bson:"order_reference,omitempty" json:"order_reference,omitempty"`
	DiscountApplied primitive.Decimal128 `bson:"discount_applied" json:"discount_applied"`
}
