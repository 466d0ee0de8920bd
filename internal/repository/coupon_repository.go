package repository

import (
	"context"

	"coupon-engine/internal/model"
)

// CouponRepository defines catalog data operations.
type CouponRepository interface {
	// Create inserts a new coupon; the unique index on code rejects
	// duplicates with errors.ErrCodeTaken.
	Create(ctx context.Context, coupon *model.Coupon) error

	// GetActiveByCode retrieves an active coupon by its code.
	// Returns errors.ErrCouponNotFound when the code is unknown or
	// the coupon is inactive.
	GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error)

	// CodeExists reports whether any coupon, active or not, carries
	// the code.
	CodeExists(ctx context.Context, code string) (bool, error)
}
