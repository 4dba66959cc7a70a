package offerRepo

import (
	"context"

	"hireflow/database"
	"hireflow/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// OfferRecordRepository stores the audit trail of resolved offers.
type OfferRecordRepository interface {
	Create(ctx context.Context, rec models.OfferRecord) (string, error)
	ListByFreelancer(ctx context.Context, freelancerID string, limit int64) ([]models.OfferRecord, error)
}

type mongoOfferRecordRepo struct {
	coll *mongo.Collection
}

// NewMongoOfferRecordRepo returns an OfferRecordRepository backed by MongoDB.
func NewMongoOfferRecordRepo() OfferRecordRepository {
	return &mongoOfferRecordRepo{
		coll: database.DB().Collection("offer_records"),
	}
}
