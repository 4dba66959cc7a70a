package models

// PaymentMethod is how the employer settles a booking.
type PaymentMethod string

const (
	// PaymentPlatform routes the whole amount through platform escrow.
	PaymentPlatform PaymentMethod = "platform"
	// PaymentAdvance routes an advance through escrow; the rest is paid directly.
	PaymentAdvance PaymentMethod = "advance"
	// PaymentCash is settled in person; only the platform share is escrowed.
	PaymentCash PaymentMethod = "cash"
)

// Valid reports whether m is one of the supported methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentPlatform, PaymentAdvance, PaymentCash:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusAdvancePaid PaymentStatus = "advance_paid"
	PaymentStatusFullyPaid   PaymentStatus = "fully_paid"
)

// PaymentDetails is the money view of a booking. Amounts are in the smallest
// currency unit.
type PaymentDetails struct {
	TotalAmount       int64         `bson:"totalAmount" json:"totalAmount"`
	AdvanceAmount     int64         `bson:"advanceAmount" json:"advanceAmount"`
	RemainingAmount   int64         `bson:"remainingAmount" json:"remainingAmount"`
	PaymentMethod     PaymentMethod `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus     PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	PlatformFee       int64         `bson:"platformFee" json:"platformFee"`
	FreelancerEarning int64         `bson:"freelancerEarning" json:"freelancerEarning"`
	GatewayRef        string        `bson:"gatewayRef,omitempty" json:"gatewayRef,omitempty"`
}

// PaymentEvent is the single terminal outcome a gateway reports for one
// payment attempt.
type PaymentEvent struct {
	BookingID  string `json:"bookingId"`
	Amount     int64  `json:"amount"`
	GatewayRef string `json:"gatewayRef,omitempty"`
	Succeeded  bool   `json:"succeeded"`
	Reason     string `json:"reason,omitempty"`
}
