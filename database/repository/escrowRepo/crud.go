package escrowRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hireflow/database"
	"hireflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoEscrowRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "bookingId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "escrowStatus", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create escrow indexes: %w", err)
	}
	return nil
}

func (r *mongoEscrowRepo) Create(ctx context.Context, acc *models.EscrowAccount) error {
	_, err := r.coll.InsertOne(ctx, acc)
	if mongo.IsDuplicateKeyError(err) {
		return database.ErrDuplicate
	}
	return err
}

func (r *mongoEscrowRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.EscrowAccount, error) {
	var acc models.EscrowAccount
	err := r.coll.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&acc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// Update replaces the account only if the stored version still matches.
func (r *mongoEscrowRepo) Update(ctx context.Context, acc *models.EscrowAccount) error {
	expected := acc.Version
	next := *acc
	next.Version = expected + 1

	res, err := r.coll.ReplaceOne(ctx, bson.M{"bookingId": acc.BookingID, "version": expected}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return database.ErrVersionConflict
	}
	acc.Version = next.Version
	return nil
}
