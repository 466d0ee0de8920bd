package repository

import (
	"context"
	"time"

	"coupon-engine/internal/model"
	apperrors "coupon-engine/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongodbPolicyRepository implements PolicyRepository using MongoDB
type mongodbPolicyRepository struct {
	single   *mongo.Collection
	windowed *mongo.Collection
}

// NewPolicyRepository creates a new MongoDB-based policy repository
func NewPolicyRepository(db *mongo.Database) PolicyRepository {
	return &mongodbPolicyRepository{
		single:   db.Collection("single_recipient_policies"),
		windowed: db.Collection("windowed_policies"),
	}
}

func (r *mongodbPolicyRepository) CreateSingleRecipient(ctx context.Context, policy *model.SingleRecipientPolicy) error {
	_, err := r.single.InsertOne(ctx, policy)
	return err
}

func (r *mongodbPolicyRepository) GetSingleRecipient(ctx context.Context, couponID primitive.ObjectID, recipientID string) (*model.SingleRecipientPolicy, error) {
	var policy model.SingleRecipientPolicy
	err := r.single.FindOne(ctx, bson.M{
		"coupon_id":    couponID,
		"recipient_id": recipientID,
	}).Decode(&policy)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &policy, nil
}

// MarkRedeemed only matches while is_redeemed is still false, so two
// transactions racing on the same row cannot both flip it.
func (r *mongodbPolicyRepository) MarkRedeemed(ctx context.Context, policyID primitive.ObjectID, at time.Time) error {
	result, err := r.single.UpdateOne(
		ctx,
		bson.M{"_id": policyID, "is_redeemed": false},
		bson.M{"$set": bson.M{"is_redeemed": true, "redeemed_at": at}},
	)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return apperrors.Reject(apperrors.ReasonAlreadyRedeemed)
	}

	return nil
}

func (r *mongodbPolicyRepository) CreateWindowed(ctx context.Context, policy *model.WindowedPolicy) error {
	_, err := r.windowed.InsertOne(ctx, policy)
	return err
}

func (r *mongodbPolicyRepository) GetWindowed(ctx context.Context, couponID primitive.ObjectID) (*model.WindowedPolicy, error) {
	var policy model.WindowedPolicy
	err := r.windowed.FindOne(ctx, bson.M{"coupon_id": couponID}).Decode(&policy)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrCouponNotFound
		}
		return nil, err
	}

	return &policy, nil
}

// IncrementUsage guards the increment with the cap in the filter, so
// the counter can never pass the limit even outside a transaction.
func (r *mongodbPolicyRepository) IncrementUsage(ctx context.Context, couponID primitive.ObjectID, limit *int) error {
	filter := bson.M{"coupon_id": couponID}
	if limit != nil {
		filter["current_usage_count"] = bson.M{"$lt": *limit}
	}

	result, err := r.windowed.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"current_usage_count": 1}})
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return apperrors.Reject(apperrors.ReasonUsageLimitExceeded)
	}

	return nil
}
