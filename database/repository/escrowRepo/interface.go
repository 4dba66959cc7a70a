package escrowRepo

import (
	"context"

	"hireflow/database"
	"hireflow/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// EscrowRepository persists escrow accounts keyed by booking id.
type EscrowRepository interface {
	Create(ctx context.Context, acc *models.EscrowAccount) error
	GetByBookingID(ctx context.Context, bookingID string) (*models.EscrowAccount, error)
	Update(ctx context.Context, acc *models.EscrowAccount) error
}

type mongoEscrowRepo struct {
	coll *mongo.Collection
}

// NewMongoEscrowRepo returns an EscrowRepository backed by MongoDB.
func NewMongoEscrowRepo() EscrowRepository {
	repo := &mongoEscrowRepo{
		coll: database.DB().Collection("escrow_accounts"),
	}
	if err := repo.ensureIndexes(); err != nil {
		panic(err)
	}
	return repo
}
