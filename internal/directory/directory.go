package directory

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RecipientDirectory is the external recipient-account surface the
// engine consumes. Only existence checks are needed here; account
// management belongs to another service.
type RecipientDirectory interface {
	Exists(ctx context.Context, recipientID string) (bool, error)
}

type mongodbDirectory struct {
	collection *mongo.Collection
}

// NewRecipientDirectory creates a directory client backed by the
// shared recipients collection.
func NewRecipientDirectory(db *mongo.Database) RecipientDirectory {
	return &mongodbDirectory{
		collection: db.Collection("recipients"),
	}
}

func (d *mongodbDirectory) Exists(ctx context.Context, recipientID string) (bool, error) {
	err := d.collection.FindOne(ctx, bson.M{"_id": recipientID}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
