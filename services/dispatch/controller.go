// Package dispatch runs the instant-offer handshake: an offer is announced to
// one freelancer and resolves exactly once, by decision or by deadline.
package dispatch

import (
	"context"
	"sync"
	"time"

	"hireflow/database/repository/offerRepo"
	"hireflow/models"
	"hireflow/services/notification"
	"hireflow/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingCreator turns an accepted offer into a pending booking.
type BookingCreator interface {
	CreateFromOffer(ctx context.Context, offer models.BookingOffer) (*models.Booking, error)
}

type Config struct {
	// Deadline is how long the freelancer has to decide.
	Deadline time.Duration
	// Retention is how long resolved offer ids are remembered, so a late
	// decision is told the offer was resolved rather than not found.
	Retention time.Duration
}

// Resolution is the outcome of a successful Decide.
type Resolution struct {
	OfferID string              `json:"offerId"`
	Outcome models.OfferOutcome `json:"outcome"`
	Booking *models.Booking     `json:"booking,omitempty"`
}

type activeOffer struct {
	offer models.BookingOffer
	timer *time.Timer
}

type resolvedOffer struct {
	outcome models.OfferOutcome
	at      time.Time
}

// Controller holds every open offer in memory. Removing an offer from the
// active set under mu is the only way to resolve it, so a decision and the
// deadline timer can never both win.
type Controller struct {
	mu           sync.Mutex
	active       map[string]*activeOffer
	byFreelancer map[string]string
	resolved     map[string]resolvedOffer
	closed       bool

	notifier notification.Notifier
	bookings BookingCreator
	records  offerRepo.OfferRecordRepository
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewController(
	notifier notification.Notifier,
	bookings BookingCreator,
	records offerRepo.OfferRecordRepository,
	cfg Config,
	logger *zap.Logger,
) *Controller {
	if cfg.Deadline <= 0 {
		cfg.Deadline = 30 * time.Second
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 10 * time.Minute
	}
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Controller{
		active:       make(map[string]*activeOffer),
		byFreelancer: make(map[string]string),
		resolved:     make(map[string]resolvedOffer),
		notifier:     notifier,
		bookings:     bookings,
		records:      records,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Announce registers the offer, starts its deadline and sends the alert.
func (c *Controller) Announce(ctx context.Context, offer models.BookingOffer) (*models.BookingOffer, error) {
	if offer.FreelancerID == "" || offer.ServiceRef == "" || offer.Budget <= 0 {
		return nil, ErrInvalidOffer
	}
	if offer.PaymentMethod == "" {
		offer.PaymentMethod = models.PaymentPlatform
	}
	if !offer.PaymentMethod.Valid() {
		return nil, ErrInvalidOffer
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrShuttingDown
	}
	c.pruneLocked()
	if _, busy := c.byFreelancer[offer.FreelancerID]; busy {
		c.mu.Unlock()
		return nil, ErrFreelancerBusy
	}
	offer.ID = uuid.New().String()
	offer.CreatedAt = c.now()
	offer.Deadline = offer.CreatedAt.Add(c.cfg.Deadline)

	id := offer.ID
	entry := &activeOffer{offer: offer}
	c.active[id] = entry
	c.byFreelancer[offer.FreelancerID] = id
	entry.timer = time.AfterFunc(c.cfg.Deadline, func() { c.expire(id) })
	c.mu.Unlock()

	c.logger.Info("offer announced",
		zap.String("offerID", id),
		zap.String("freelancerID", offer.FreelancerID),
		zap.Time("deadline", offer.Deadline))

	if err := c.notifier.DeliverOffer(ctx, offer); err != nil {
		if a, claimErr := c.claim(id, nil, models.OfferExpired); claimErr == nil {
			a.timer.Stop()
			c.record(a.offer, models.OfferExpired, "", "alert delivery failed")
		}
		c.logger.Error("offer delivery failed", zap.String("offerID", id), zap.Error(err))
		return nil, err
	}
	return &offer, nil
}

// Decide resolves an open offer on behalf of its freelancer. The first
// resolution wins; later calls get ErrOfferAlreadyResolved. A decision at or
// past the deadline loses to the expiry even if its timer has not fired yet.
func (c *Controller) Decide(ctx context.Context, p models.Principal, offerID string, outcome models.OfferOutcome) (*Resolution, error) {
	if outcome != models.OfferAccepted && outcome != models.OfferRejected {
		return nil, ErrInvalidOutcome
	}
	a, err := c.claim(offerID, func(o models.BookingOffer) error {
		if p.ID != o.FreelancerID {
			return ErrNotTarget
		}
		if !c.now().Before(o.Deadline) {
			return ErrOfferAlreadyResolved
		}
		return nil
	}, outcome)
	if err != nil {
		return nil, err
	}
	a.timer.Stop()

	res := &Resolution{OfferID: offerID, Outcome: outcome}
	if outcome == models.OfferRejected {
		c.logger.Info("offer rejected", zap.String("offerID", offerID))
		c.record(a.offer, outcome, "", "")
		return res, nil
	}

	b, err := c.bookings.CreateFromOffer(ctx, a.offer)
	if err != nil {
		c.logger.Error("accepted offer could not become a booking", zap.String("offerID", offerID), zap.Error(err))
		c.record(a.offer, outcome, "", "booking creation failed: "+err.Error())
		return nil, err
	}
	c.logger.Info("offer accepted", zap.String("offerID", offerID), zap.String("bookingID", b.ID))
	c.record(a.offer, outcome, b.ID, "")
	res.Booking = b
	return res, nil
}

// Pending returns the freelancer's open offer, if any.
func (c *Controller) Pending(freelancerID string) (*models.BookingOffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byFreelancer[freelancerID]
	if !ok {
		return nil, false
	}
	offer := c.active[id].offer
	return &offer, true
}

// History lists resolved offers for a freelancer, newest first.
func (c *Controller) History(ctx context.Context, freelancerID string, limit int64) ([]models.OfferRecord, error) {
	return c.records.ListByFreelancer(ctx, freelancerID, limit)
}

// Shutdown stops every deadline timer and expires the open offers.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	c.closed = true
	var open []*activeOffer
	for id, a := range c.active {
		a.timer.Stop()
		open = append(open, a)
		delete(c.active, id)
		delete(c.byFreelancer, a.offer.FreelancerID)
		c.resolved[id] = resolvedOffer{outcome: models.OfferExpired, at: c.now()}
	}
	c.mu.Unlock()

	for _, a := range open {
		c.record(a.offer, models.OfferExpired, "", "dispatch shut down")
	}
}

func (c *Controller) expire(offerID string) {
	a, err := c.claim(offerID, nil, models.OfferExpired)
	if err != nil {
		// Lost the race to a decision.
		return
	}
	c.logger.Info("offer expired",
		zap.String("offerID", offerID),
		zap.String("freelancerID", a.offer.FreelancerID))
	c.record(a.offer, models.OfferExpired, "", "")
}

// claim removes an open offer from the active set and marks it resolved.
// check runs under the lock before anything changes.
func (c *Controller) claim(offerID string, check func(models.BookingOffer) error, outcome models.OfferOutcome) (*activeOffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.active[offerID]
	if !ok {
		if _, done := c.resolved[offerID]; done {
			return nil, ErrOfferAlreadyResolved
		}
		return nil, ErrOfferNotFound
	}
	if check != nil {
		if err := check(a.offer); err != nil {
			return nil, err
		}
	}
	delete(c.active, offerID)
	delete(c.byFreelancer, a.offer.FreelancerID)
	c.resolved[offerID] = resolvedOffer{outcome: outcome, at: c.now()}
	return a, nil
}

func (c *Controller) pruneLocked() {
	cutoff := c.now().Add(-c.cfg.Retention)
	for id, r := range c.resolved {
		if r.at.Before(cutoff) {
			delete(c.resolved, id)
		}
	}
}

func (c *Controller) record(offer models.BookingOffer, outcome models.OfferOutcome, bookingID, note string) {
	if c.records == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.records.Create(ctx, models.OfferRecord{
		OfferID:      offer.ID,
		FreelancerID: offer.FreelancerID,
		EmployerID:   offer.EmployerID,
		ServiceRef:   offer.ServiceRef,
		Budget:       offer.Budget,
		Outcome:      outcome,
		BookingID:    bookingID,
		Note:         note,
		AnnouncedAt:  offer.CreatedAt,
		ResolvedAt:   c.now(),
	})
	if err != nil {
		c.logger.Error("failed to write offer record", zap.String("offerID", offer.ID), zap.Error(err))
	}
}
