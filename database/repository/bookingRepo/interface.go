package bookingRepo

import (
	"context"
	"time"

	"hireflow/database"
	"hireflow/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository persists bookings. Update is conditional on the caller's
// Version and bumps it on success.
type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	Update(ctx context.Context, b *models.Booking) error
	ListByParticipant(ctx context.Context, userID string) ([]models.Booking, error)
	// ListStale returns up to limit bookings in status created before the cutoff, oldest first.
	ListStale(ctx context.Context, status models.BookingStatus, before time.Time, limit int64) ([]models.Booking, error)
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a BookingRepository backed by MongoDB.
func NewMongoBookingRepo() BookingRepository {
	repo := &mongoBookingRepo{
		coll: database.DB().Collection("bookings"),
	}
	if err := repo.ensureIndexes(); err != nil {
		panic(err)
	}
	return repo
}
