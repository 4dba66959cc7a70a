package models

import "time"

// BookingStatus is the lifecycle position of a booking.
type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// Schedule is when and where the service is delivered.
type Schedule struct {
	Date     string `bson:"date" json:"date"`                             // "YYYY-MM-DD"
	Time     string `bson:"time" json:"time"`                             // "HH:MM", local to the location
	Location string `bson:"location,omitempty" json:"location,omitempty"` // free-form address
}

// Evidence collected on a booking that feeds the escrow release gate.
type BookingEvidence struct {
	Rating          int        `bson:"rating,omitempty" json:"rating,omitempty"`
	RatingSubmitted bool       `bson:"ratingSubmitted" json:"ratingSubmitted"`
	AdminApproved   bool       `bson:"adminApproved" json:"adminApproved"`
	ApprovedBy      string     `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
}

// Booking is the durable unit of work between an employer and a freelancer.
type Booking struct {
	ID           string          `bson:"id" json:"id"`
	OfferID      string          `bson:"offerId,omitempty" json:"offerId,omitempty"`
	ServiceRef   string          `bson:"serviceRef" json:"serviceRef"`
	FreelancerID string          `bson:"freelancerId" json:"freelancerId"`
	EmployerID   string          `bson:"employerId" json:"employerId"`
	Schedule     Schedule        `bson:"schedule" json:"schedule"`
	Status       BookingStatus   `bson:"status" json:"status"`
	Payment      PaymentDetails  `bson:"payment" json:"payment"`
	OTP          OTPDetails      `bson:"otp" json:"otp"`
	Evidence     BookingEvidence `bson:"evidence" json:"evidence"`
	CancelReason string          `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CreatedAt    time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt" json:"updatedAt"`
	CompletedAt  *time.Time      `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt  *time.Time      `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	Version      int             `bson:"version" json:"version"`
}

// BookingRequest carries what is needed to open a booking, usually taken
// from an accepted offer.
type BookingRequest struct {
	OfferID       string        `json:"offerId,omitempty"`
	ServiceRef    string        `json:"serviceRef" binding:"required"`
	FreelancerID  string        `json:"freelancerId" binding:"required"`
	EmployerID    string        `json:"employerId" binding:"required"`
	Schedule      Schedule      `json:"schedule"`
	TotalAmount   int64         `json:"totalAmount" binding:"required"`
	PaymentMethod PaymentMethod `json:"paymentMethod" binding:"required"`
}
