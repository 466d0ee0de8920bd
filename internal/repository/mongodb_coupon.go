package repository

import (
	"context"

	"coupon-engine/internal/model"
	apperrors "coupon-engine/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongodbCouponRepository implements CouponRepository using MongoDB
type mongodbCouponRepository struct {
	collection *mongo.Collection
}

// NewCouponRepository creates a new MongoDB-based coupon repository
func NewCouponRepository(db *mongo.Database) CouponRepository {
	return &mongodbCouponRepository{
		collection: db.Collection("coupons"),
	}
}

func (r *mongodbCouponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.collection.InsertOne(ctx, coupon)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrCodeTaken
		}
		return err
	}

	return nil
}

func (r *mongodbCouponRepository) GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.collection.FindOne(ctx, bson.M{"code": code, "is_active": true}).Decode(&coupon)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrCouponNotFound
		}
		return nil, err
	}

	return &coupon, nil
}

func (r *mongodbCouponRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
