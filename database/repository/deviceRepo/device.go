package deviceRepo

import (
	"context"
	"errors"
	"sync"
	"time"

	"hireflow/database"
	"hireflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeviceRepository keeps the latest push token per user.
type DeviceRepository interface {
	Upsert(ctx context.Context, token models.DeviceToken) error
	GetByUserID(ctx context.Context, userID string) (*models.DeviceToken, error)
}

type mongoDeviceRepo struct {
	coll *mongo.Collection
}

// NewMongoDeviceRepo returns a DeviceRepository backed by MongoDB.
func NewMongoDeviceRepo() DeviceRepository {
	return &mongoDeviceRepo{coll: database.DB().Collection("device_tokens")}
}

func (r *mongoDeviceRepo) Upsert(ctx context.Context, token models.DeviceToken) error {
	token.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"userId": token.UserID},
		token,
		options.Replace().SetUpsert(true))
	return err
}

func (r *mongoDeviceRepo) GetByUserID(ctx context.Context, userID string) (*models.DeviceToken, error) {
	var token models.DeviceToken
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// MemoryDeviceRepo is an in-process DeviceRepository.
type MemoryDeviceRepo struct {
	mu     sync.Mutex
	tokens map[string]models.DeviceToken
}

func NewMemoryDeviceRepo() *MemoryDeviceRepo {
	return &MemoryDeviceRepo{tokens: make(map[string]models.DeviceToken)}
}

func (r *MemoryDeviceRepo) Upsert(_ context.Context, token models.DeviceToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.UpdatedAt = time.Now()
	r.tokens[token.UserID] = token
	return nil
}

func (r *MemoryDeviceRepo) GetByUserID(_ context.Context, userID string) (*models.DeviceToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &t, nil
}
