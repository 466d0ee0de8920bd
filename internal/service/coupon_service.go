package service

import (
	"context"
	"errors"
	"fmt"

	"coupon-engine/internal/directory"
	"coupon-engine/internal/metrics"
	"coupon-engine/internal/model"
	"coupon-engine/internal/repository"
	apperrors "coupon-engine/pkg/errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CodeGenerator produces unique coupon codes.
type CodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// TxRunner runs fn inside one atomic store transaction. All
// repository calls made with the context passed to fn commit
// together or not at all.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CouponService is the redemption engine: it issues coupons and
// enforces every redemption invariant atomically. All dependencies
// are injected; there are no ambient globals and no in-process
// locks. Correctness under concurrency is delegated to the store's
// transaction isolation plus the conditional updates in the
// repositories.
type CouponService struct {
	coupons    repository.CouponRepository
	policies   repository.PolicyRepository
	ledger     repository.RedemptionRepository
	recipients directory.RecipientDirectory
	codes      CodeGenerator
	tx         TxRunner
	clock      Clock
	log        zerolog.Logger
}

// NewCouponService creates a new coupon service
func NewCouponService(
	coupons repository.CouponRepository,
	policies repository.PolicyRepository,
	ledger repository.RedemptionRepository,
	recipients directory.RecipientDirectory,
	codes CodeGenerator,
	tx TxRunner,
	clock Clock,
	log zerolog.Logger,
) *CouponService {
	return &CouponService{
		coupons:    coupons,
		policies:   policies,
		ledger:     ledger,
		recipients: recipients,
		codes:      codes,
		tx:         tx,
		clock:      clock,
		log:        log,
	}
}

// IssueSingleRecipient creates a coupon bound to one recipient. The
// coupon and its policy row are committed together or not at all.
func (s *CouponService) IssueSingleRecipient(ctx context.Context, req *model.IssueSingleRecipientRequest) (*model.Coupon, error) {
	if err := validateDiscount(req.DiscountType, req.DiscountValue); err != nil {
		return nil, err
	}

	exists, err := s.recipients.Exists(ctx, req.RecipientID)
	if err != nil {
		return nil, storeFault(err)
	}
	if !exists {
		return nil, apperrors.ErrRecipientNotFound
	}

	coupon, err := s.newCoupon(ctx, model.CouponTypeSingleRecipient, req.DiscountType, req.DiscountValue, req.CreatedBy)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.coupons.Create(ctx, coupon); err != nil {
			return err
		}
		return s.policies.CreateSingleRecipient(ctx, &model.SingleRecipientPolicy{
			ID:          primitive.NewObjectID(),
			CouponID:    coupon.ID,
			RecipientID: req.RecipientID,
			IsRedeemed:  false,
			RedeemedAt:  nil,
		})
	})
	if err != nil {
		return nil, storeFault(err)
	}

	metrics.CouponsIssued.WithLabelValues(string(model.CouponTypeSingleRecipient)).Inc()
	s.log.Info().
		Str("code", coupon.Code).
		Str("recipient_id", req.RecipientID).
		Msg("issued single-recipient coupon")

	return coupon, nil
}

// IssueWindowed creates a coupon valid inside a time window with a
// per-recipient cap and an optional global cap.
func (s *CouponService) IssueWindowed(ctx context.Context, req *model.IssueWindowedRequest) (*model.Coupon, error) {
	if err := validateDiscount(req.DiscountType, req.DiscountValue); err != nil {
		return nil, err
	}
	if !req.ValidFrom.Before(req.ValidUntil) {
		return nil, apperrors.Invalid("valid_from must be before valid_until")
	}
	if req.MaxUsesPerRecipient <= 0 {
		return nil, apperrors.Invalid("max_uses_per_recipient must be a positive integer")
	}
	if req.TotalUsageLimit != nil && *req.TotalUsageLimit <= 0 {
		return nil, apperrors.Invalid("total_usage_limit must be a positive integer or null")
	}

	coupon, err := s.newCoupon(ctx, model.CouponTypeWindowed, req.DiscountType, req.DiscountValue, req.CreatedBy)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.coupons.Create(ctx, coupon); err != nil {
			return err
		}
		return s.policies.CreateWindowed(ctx, &model.WindowedPolicy{
			ID:                  primitive.NewObjectID(),
			CouponID:            coupon.ID,
			ValidFrom:           req.ValidFrom,
			ValidUntil:          req.ValidUntil,
			MaxUsesPerRecipient: req.MaxUsesPerRecipient,
			TotalUsageLimit:     req.TotalUsageLimit,
			CurrentUsageCount:   0,
		})
	})
	if err != nil {
		return nil, storeFault(err)
	}

	metrics.CouponsIssued.WithLabelValues(string(model.CouponTypeWindowed)).Inc()
	s.log.Info().Str("code", coupon.Code).Msg("issued windowed coupon")

	return coupon, nil
}

func (s *CouponService) newCoupon(ctx context.Context, ct model.CouponType, dt model.DiscountType, value decimal.Decimal, createdBy string) (*model.Coupon, error) {
	code, err := s.codes.Generate(ctx)
	if err != nil {
		return nil, storeFault(err)
	}

	stored, err := model.ToDecimal128(value)
	if err != nil {
		return nil, apperrors.Invalid("discount_value is not a valid decimal")
	}

	return &model.Coupon{
		ID:            primitive.NewObjectID(),
		Code:          code,
		Type:          ct,
		DiscountType:  dt,
		DiscountValue: stored,
		CreatedAt:     s.clock.Now(),
		CreatedBy:     createdBy,
		IsActive:      true,
	}, nil
}

// Validate produces a read-only eligibility projection. It performs
// no mutation and its result is advisory only: state can change
// between Validate and Redeem, so Redeem re-verifies everything.
func (s *CouponService) Validate(ctx context.Context, code, recipientID string) (*model.Decision, error) {
	coupon, err := s.coupons.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, storeFault(err)
	}

	decision, err := newDecision(coupon)
	if err != nil {
		return nil, err
	}

	switch coupon.Type {
	case model.CouponTypeSingleRecipient:
		policy, err := s.policies.GetSingleRecipient(ctx, coupon.ID, recipientID)
		if err != nil {
			return nil, storeFault(err)
		}
		switch {
		case policy == nil:
			decision.Message = apperrors.ReasonNotForRecipient
		case policy.IsRedeemed:
			decision.Message = apperrors.ReasonAlreadyRedeemed
		default:
			decision.CanRedeem = true
		}

	case model.CouponTypeWindowed:
		policy, err := s.policies.GetWindowed(ctx, coupon.ID)
		if err != nil {
			return nil, storeFault(err)
		}
		reason, err := s.checkWindowed(ctx, policy, recipientID)
		if err != nil {
			return nil, storeFault(err)
		}
		if reason == "" {
			decision.CanRedeem = true
		} else {
			decision.Message = reason
		}

	default:
		return nil, fmt.Errorf("unknown coupon type %q", coupon.Type)
	}

	if decision.CanRedeem {
		decision.Message = "coupon is valid and ready to use"
	}

	return decision, nil
}

// Redeem executes one atomic redemption. Every eligibility check
// runs inside the same transaction as the mutation; a prior Validate
// result is never trusted. On any rejection or fault the transaction
// aborts and no partial write is visible.
func (s *CouponService) Redeem(ctx context.Context, code, recipientID, orderReference string) (*model.Redemption, error) {
	var redemption *model.Redemption

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		coupon, err := s.coupons.GetActiveByCode(ctx, code)
		if err != nil {
			return err
		}

		now := s.clock.Now()

		switch coupon.Type {
		case model.CouponTypeSingleRecipient:
			policy, err := s.policies.GetSingleRecipient(ctx, coupon.ID, recipientID)
			if err != nil {
				return err
			}
			if policy == nil {
				return apperrors.Reject(apperrors.ReasonInvalidRecipient)
			}
			if policy.IsRedeemed {
				return apperrors.Reject(apperrors.ReasonAlreadyRedeemed)
			}
			if err := s.policies.MarkRedeemed(ctx, policy.ID, now); err != nil {
				return err
			}

		case model.CouponTypeWindowed:
			policy, err := s.policies.GetWindowed(ctx, coupon.ID)
			if err != nil {
				return err
			}
			reason, err := s.checkWindowed(ctx, policy, recipientID)
			if err != nil {
				return err
			}
			if reason != "" {
				return apperrors.Reject(reason)
			}
			// Conditional increment: the cap lives in the update
			// filter, so the counter cannot pass the limit even if
			// the check above raced with another transaction.
			if err := s.policies.IncrementUsage(ctx, policy.CouponID, policy.TotalUsageLimit); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unknown coupon type %q", coupon.Type)
		}

		redemption = &model.Redemption{
			ID:              primitive.NewObjectID(),
			CouponID:        coupon.ID,
			RecipientID:     recipientID,
			RedeemedAt:      now,
			OrderReference:  orderReference,
			DiscountApplied: coupon.DiscountValue,
		}
		return s.ledger.Append(ctx, redemption)
	})
	if err != nil {
		err = storeFault(err)
		metrics.Redemptions.WithLabelValues(redemptionResult(err)).Inc()
		return nil, err
	}

	metrics.Redemptions.WithLabelValues("success").Inc()
	s.log.Info().
		Str("code", code).
		Str("recipient_id", recipientID).
		Str("redemption_id", redemption.ID.Hex()).
		Msg("coupon redeemed")

	return redemption, nil
}

// checkWindowed evaluates the windowed-policy checks in order and
// returns the first failing reason, or "" when eligible. Callers in
// a transaction get ledger counts consistent with their snapshot.
func (s *CouponService) checkWindowed(ctx context.Context, policy *model.WindowedPolicy, recipientID string) (string, error) {
	now := s.clock.Now()
	if now.Before(policy.ValidFrom) {
		return apperrors.ReasonNotYetActive, nil
	}
	if now.After(policy.ValidUntil) {
		return apperrors.ReasonExpired, nil
	}
	if policy.TotalUsageLimit != nil && policy.CurrentUsageCount >= *policy.TotalUsageLimit {
		return apperrors.ReasonUsageLimitExceeded, nil
	}

	used, err := s.ledger.CountForRecipient(ctx, policy.CouponID, recipientID)
	if err != nil {
		return "", err
	}
	if used >= policy.MaxUsesPerRecipient {
		return apperrors.ReasonPerRecipientLimit, nil
	}

	return "", nil
}

func newDecision(coupon *model.Coupon) (*model.Decision, error) {
	value, err := model.FromDecimal128(coupon.DiscountValue)
	if err != nil {
		return nil, fmt.Errorf("decode discount for coupon %s: %w", coupon.Code, err)
	}
	return &model.Decision{
		CouponID:      coupon.ID.Hex(),
		Code:          coupon.Code,
		CouponType:    coupon.Type,
		DiscountType:  coupon.DiscountType,
		DiscountValue: value,
	}, nil
}

func validateDiscount(dt model.DiscountType, value decimal.Decimal) error {
	if dt != model.DiscountPercentage && dt != model.DiscountFixedAmount {
		return apperrors.Invalid("discount_type must be either PERCENTAGE or FIXED_AMOUNT")
	}
	if !value.IsPositive() {
		return apperrors.Invalid("discount_value must be a positive number")
	}
	return nil
}

// storeFault maps anything outside the business taxonomy to
// ErrStoreUnavailable so callers know the whole call is safe to
// retry: the aborted transaction committed nothing.
func storeFault(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrRejected) ||
		errors.Is(err, apperrors.ErrCouponNotFound) ||
		errors.Is(err, apperrors.ErrRecipientNotFound) ||
		errors.Is(err, apperrors.ErrInvalidInput) ||
		errors.Is(err, apperrors.ErrCodeTaken) {
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
}

func redemptionResult(err error) string {
	var rejection *apperrors.RejectionError
	switch {
	case errors.As(err, &rejection):
		return rejection.Reason
	case errors.Is(err, apperrors.ErrCouponNotFound):
		return "not found"
	default:
		return "error"
	}
}
