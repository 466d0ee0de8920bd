package repository

import (
	"context"

	"coupon-engine/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongodbRedemptionRepository implements RedemptionRepository using MongoDB
type mongodbRedemptionRepository struct {
	collection *mongo.Collection
}

// NewRedemptionRepository creates a new MongoDB-based ledger repository
func NewRedemptionRepository(db *mongo.Database) RedemptionRepository {
	return &mongodbRedemptionRepository{
		collection: db.Collection("redemptions"),
	}
}

func (r *mongodbRedemptionRepository) Append(ctx context.Context, redemption *model.Redemption) error {
	_, err := r.collection.InsertOne(ctx, redemption)
	return err
}

func (r *mongodbRedemptionRepository) CountForRecipient(ctx context.Context, couponID primitive.ObjectID, recipientID string) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"coupon_id":    couponID,
		"recipient_id": recipientID,
	})
	if err != nil {
		return 0, err
	}

	return int(count), nil
}
