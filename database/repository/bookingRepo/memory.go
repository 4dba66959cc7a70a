package bookingRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"hireflow/database"
	"hireflow/models"
)

// MemoryBookingRepo is an in-process BookingRepository used by tests and
// local runs without MongoDB.
type MemoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]models.Booking

	// FailNextUpdate makes the next Update return this error once.
	FailNextUpdate error
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]models.Booking)}
}

func (r *MemoryBookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; ok {
		return database.ErrDuplicate
	}
	r.bookings[b.ID] = *b
	return nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &b, nil
}

func (r *MemoryBookingRepo) Update(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailNextUpdate; err != nil {
		r.FailNextUpdate = nil
		return err
	}
	stored, ok := r.bookings[b.ID]
	if !ok {
		return database.ErrNotFound
	}
	if stored.Version != b.Version {
		return database.ErrVersionConflict
	}
	b.Version++
	r.bookings[b.ID] = *b
	return nil
}

func (r *MemoryBookingRepo) ListByParticipant(_ context.Context, userID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.EmployerID == userID || b.FreelancerID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryBookingRepo) ListStale(_ context.Context, status models.BookingStatus, before time.Time, limit int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.Status == status && b.CreatedAt.Before(before) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
