package models

import "time"

type OfferOutcome string

const (
	OfferAnnounced OfferOutcome = "announced"
	OfferAccepted  OfferOutcome = "accepted"
	OfferRejected  OfferOutcome = "rejected"
	OfferExpired   OfferOutcome = "expired"
)

// BookingOffer is an instant booking proposal awaiting the freelancer's
// decision. It only lives in memory until it resolves.
type BookingOffer struct {
	ID            string        `json:"id"`
	ServiceRef    string        `json:"serviceRef" binding:"required"`
	Budget        int64         `json:"budget" binding:"required"`
	FreelancerID  string        `json:"freelancerId" binding:"required"`
	EmployerID    string        `json:"employerId"`
	Schedule      Schedule      `json:"schedule"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CreatedAt     time.Time     `json:"createdAt"`
	Deadline      time.Time     `json:"deadline"`
}

// OfferRecord is the audit row written once an offer resolves.
type OfferRecord struct {
	ID           string       `bson:"id" json:"id"`
	OfferID      string       `bson:"offerId" json:"offerId"`
	FreelancerID string       `bson:"freelancerId" json:"freelancerId"`
	EmployerID   string       `bson:"employerId" json:"employerId"`
	ServiceRef   string       `bson:"serviceRef" json:"serviceRef"`
	Budget       int64        `bson:"budget" json:"budget"`
	Outcome      OfferOutcome `bson:"outcome" json:"outcome"`
	BookingID    string       `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	Note         string       `bson:"note,omitempty" json:"note,omitempty"`
	AnnouncedAt  time.Time    `bson:"announcedAt" json:"announcedAt"`
	ResolvedAt   time.Time    `bson:"resolvedAt" json:"resolvedAt"`
}
