package models

import "time"

type OTPPhase string

const (
	OTPStart OTPPhase = "start"
	OTPEnd   OTPPhase = "end"
)

// Valid reports whether p names a known phase.
func (p OTPPhase) Valid() bool {
	return p == OTPStart || p == OTPEnd
}

// Other returns the opposite phase.
func (p OTPPhase) Other() OTPPhase {
	if p == OTPStart {
		return OTPEnd
	}
	return OTPStart
}

// OTPDetails is the booking-side view of the service-delivery codes. The
// codes themselves never leave the OTP gate.
type OTPDetails struct {
	OTPGenerated    bool       `bson:"otpGenerated" json:"otpGenerated"`
	StartIssuedAt   *time.Time `bson:"startIssuedAt,omitempty" json:"startIssuedAt,omitempty"`
	StartVerifiedAt *time.Time `bson:"startVerifiedAt,omitempty" json:"startVerifiedAt,omitempty"`
	EndIssuedAt     *time.Time `bson:"endIssuedAt,omitempty" json:"endIssuedAt,omitempty"`
	EndVerifiedAt   *time.Time `bson:"endVerifiedAt,omitempty" json:"endVerifiedAt,omitempty"`
}

// OTPRecord is what the gate stores per booking and phase.
type OTPRecord struct {
	BookingID  string     `json:"bookingId"`
	Phase      OTPPhase   `json:"phase"`
	CodeHash   string     `json:"codeHash"`
	Attempts   int        `json:"attempts"`
	Consumed   bool       `json:"consumed"`
	Locked     bool       `json:"locked"`
	IssuedAt   time.Time  `json:"issuedAt"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
}
