package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"hireflow/models"

	"github.com/go-redis/redis/v8"
)

// Store keeps hashed codes per booking and phase. Put starts a new TTL;
// Update keeps the remaining one.
type Store interface {
	Get(ctx context.Context, bookingID string, phase models.OTPPhase) (*models.OTPRecord, error)
	Put(ctx context.Context, rec *models.OTPRecord, ttl time.Duration) error
	Update(ctx context.Context, rec *models.OTPRecord) error
}

func otpKey(bookingID string, phase models.OTPPhase) string {
	return fmt.Sprintf("otp:booking:%s:%s", bookingID, phase)
}

// RedisStore keeps records as JSON with a Redis TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, bookingID string, phase models.OTPPhase) (*models.OTPRecord, error) {
	raw, err := s.client.Get(ctx, otpKey(bookingID, phase)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve OTP: %w", err)
	}
	var rec models.OTPRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("corrupt OTP record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Put(ctx context.Context, rec *models.OTPRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, otpKey(rec.BookingID, rec.Phase), raw, ttl).Err()
}

func (s *RedisStore) Update(ctx context.Context, rec *models.OTPRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// XX: never resurrect a record that expired between Get and Update.
	ok, err := s.client.SetArgs(ctx, otpKey(rec.BookingID, rec.Phase), raw, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Result()
	if errors.Is(err, redis.Nil) || (err == nil && ok != "OK") {
		return errNoRecord
	}
	return err
}

// MemoryStore is an in-process Store with the same expiry behaviour.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	rec       models.OTPRecord
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, bookingID string, phase models.OTPPhase) (*models.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[otpKey(bookingID, phase)]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, errNoRecord
	}
	rec := e.rec
	return &rec, nil
}

func (s *MemoryStore) Put(_ context.Context, rec *models.OTPRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[otpKey(rec.BookingID, rec.Phase)] = memoryEntry{rec: *rec, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Update(_ context.Context, rec *models.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := otpKey(rec.BookingID, rec.Phase)
	e, ok := s.records[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return errNoRecord
	}
	e.rec = *rec
	s.records[key] = e
	return nil
}
