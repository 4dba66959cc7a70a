package escrowRepo

import (
	"context"
	"sync"

	"hireflow/database"
	"hireflow/models"
)

// MemoryEscrowRepo is an in-process EscrowRepository.
type MemoryEscrowRepo struct {
	mu       sync.Mutex
	accounts map[string]models.EscrowAccount

	// FailNextUpdate makes the next Update return this error once.
	FailNextUpdate error
}

func NewMemoryEscrowRepo() *MemoryEscrowRepo {
	return &MemoryEscrowRepo{accounts: make(map[string]models.EscrowAccount)}
}

func (r *MemoryEscrowRepo) Create(_ context.Context, acc *models.EscrowAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[acc.BookingID]; ok {
		return database.ErrDuplicate
	}
	r.accounts[acc.BookingID] = *acc
	return nil
}

func (r *MemoryEscrowRepo) GetByBookingID(_ context.Context, bookingID string) (*models.EscrowAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[bookingID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &acc, nil
}

func (r *MemoryEscrowRepo) Update(_ context.Context, acc *models.EscrowAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailNextUpdate; err != nil {
		r.FailNextUpdate = nil
		return err
	}
	stored, ok := r.accounts[acc.BookingID]
	if !ok {
		return database.ErrNotFound
	}
	if stored.Version != acc.Version {
		return database.ErrVersionConflict
	}
	acc.Version++
	r.accounts[acc.BookingID] = *acc
	return nil
}
