package repository

import (
	"context"

	"coupon-engine/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RedemptionRepository defines operations on the append-only
// redemption ledger.
type RedemptionRepository interface {
	// Append writes one ledger entry. Entries are never updated or
	// deleted.
	Append(ctx context.Context, redemption *model.Redemption) error

	// CountForRecipient returns how many times the recipient has
	// redeemed the coupon, per the ledger.
	CountForRecipient(ctx context.Context, couponID primitive.ObjectID, recipientID string) (int, error)
}
