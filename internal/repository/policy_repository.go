package repository

import (
	"context"
	"time"

	"coupon-engine/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PolicyRepository defines data operations for both policy variants.
type PolicyRepository interface {
	// CreateSingleRecipient inserts the policy row for a
	// single-recipient coupon.
	CreateSingleRecipient(ctx context.Context, policy *model.SingleRecipientPolicy) error

	// GetSingleRecipient retrieves the policy row for the pair, or
	// (nil, nil) when the coupon is not available to the recipient.
	GetSingleRecipient(ctx context.Context, couponID primitive.ObjectID, recipientID string) (*model.SingleRecipientPolicy, error)

	// MarkRedeemed flips is_redeemed false->true for the policy row.
	// The update is conditional on is_redeemed being false; a lost
	// race surfaces as a rejection with ReasonAlreadyRedeemed.
	MarkRedeemed(ctx context.Context, policyID primitive.ObjectID, at time.Time) error

	// CreateWindowed inserts the policy row for a windowed coupon.
	CreateWindowed(ctx context.Context, policy *model.WindowedPolicy) error

	// GetWindowed retrieves the windowed policy for a coupon.
	GetWindowed(ctx context.Context, couponID primitive.ObjectID) (*model.WindowedPolicy, error)

	// IncrementUsage adds exactly 1 to current_usage_count. When
	// limit is non-nil the update is conditional on the counter
	// still being below it; no match surfaces as a rejection with
	// ReasonUsageLimitExceeded.
	IncrementUsage(ctx context.Context, couponID primitive.ObjectID, limit *int) error
}
