package bookingRepo

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

func (r *mongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "employerId", Value: 1}}},
		{Keys: bson.D{{Key: "freelancerId", Value: 1}}},
		{Keys: bson.D{{Key: "offerId", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

func (r *mongoBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	_, err := r.coll.InsertOne(ctx, b)
	if mongo.IsDuplicateKeyError(err) {
		return database.ErrDuplicate
	}
	return err
}

func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Update replaces the booking only if the stored version still matches.
func (r *mongoBookingRepo) Update(ctx context.Context, b *models.Booking) error {
	expected := b.Version
	next := *b
	next.Version = expected + 1

	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": b.ID, "version": expected}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return database.ErrVersionConflict
	}
	b.Version = next.Version
	return nil
}

func (r *mongoBookingRepo) ListByParticipant(ctx context.Context, userID string) ([]models.Booking, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"employerId": userID},
		bson.M{"freelancerId": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *mongoBookingRepo) ListStale(ctx context.Context, status models.BookingStatus, before time.Time, limit int64) ([]models.Booking, error) {
	filter := bson.M{"status": status, "createdAt": bson.M{"$lt": before}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
