package offerRepo

import (
	"context"
	"sort"
	"sync"

	"hireflow/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a new audit record and returns its ID.
func (r *mongoOfferRecordRepo) Create(ctx context.Context, rec models.OfferRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// ListByFreelancer returns the newest records first.
func (r *mongoOfferRecordRepo) ListByFreelancer(ctx context.Context, freelancerID string, limit int64) ([]models.OfferRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "resolvedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.coll.Find(ctx, bson.M{"freelancerId": freelancerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.OfferRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MemoryOfferRecordRepo is an in-process OfferRecordRepository.
type MemoryOfferRecordRepo struct {
	mu      sync.Mutex
	records []models.OfferRecord
}

func NewMemoryOfferRecordRepo() *MemoryOfferRecordRepo {
	return &MemoryOfferRecordRepo{}
}

func (r *MemoryOfferRecordRepo) Create(_ context.Context, rec models.OfferRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	r.records = append(r.records, rec)
	return rec.ID, nil
}

func (r *MemoryOfferRecordRepo) ListByFreelancer(_ context.Context, freelancerID string, limit int64) ([]models.OfferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.OfferRecord
	for _, rec := range r.records {
		if rec.FreelancerID == freelancerID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ResolvedAt.After(out[j].ResolvedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// All returns every record in insertion order.
func (r *MemoryOfferRecordRepo) All() []models.OfferRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.OfferRecord(nil), r.records...)
}
