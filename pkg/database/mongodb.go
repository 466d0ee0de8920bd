package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect establishes a connection to MongoDB
func Connect(ctx context.Context, uri, dbName string) (*MongoDB, error) {
	clientOptions := options.Client().ApplyURI(uri)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)

	mongoDB := &MongoDB{
		Client:   client,
		Database: db,
	}

	if err := mongoDB.CreateIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return mongoDB, nil
}

// CreateIndexes creates the unique constraints the redemption engine
// relies on plus the lookup indexes for ledger counting.
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	// Unique index on coupons.code: codes are unique across all
	// coupons regardless of variant or active status.
	coupons := m.Database.Collection("coupons")
	codeIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("coupon_code_unique"),
	}
	if _, err := coupons.Indexes().CreateOne(ctx, codeIndex); err != nil {
		return fmt.Errorf("failed to create coupon code index: %w", err)
	}

	// Unique compound index on single-recipient policies: exactly
	// one policy row per (coupon_id, recipient_id) pair.
	singlePolicies := m.Database.Collection("single_recipient_policies")
	pairIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "coupon_id", Value: 1},
			{Key: "recipient_id", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("coupon_recipient_unique"),
	}
	if _, err := singlePolicies.Indexes().CreateOne(ctx, pairIndex); err != nil {
		return fmt.Errorf("failed to create coupon_recipient unique index: %w", err)
	}

	// One windowed policy per coupon.
	windowedPolicies := m.Database.Collection("windowed_policies")
	windowedIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "coupon_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("windowed_coupon_unique"),
	}
	if _, err := windowedPolicies.Indexes().CreateOne(ctx, windowedIndex); err != nil {
		return fmt.Errorf("failed to create windowed coupon index: %w", err)
	}

	// Ledger lookup index for per-recipient usage counting.
	redemptions := m.Database.Collection("redemptions")
	ledgerIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "coupon_id", Value: 1},
			{Key: "recipient_id", Value: 1},
		},
		Options: options.Index().SetName("redemption_coupon_recipient"),
	}
	if _, err := redemptions.Indexes().CreateOne(ctx, ledgerIndex); err != nil {
		return fmt.Errorf("failed to create redemption index: %w", err)
	}

	return nil
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
