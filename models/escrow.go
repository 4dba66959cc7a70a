package models

import "time"

type EscrowStatus string

const (
	EscrowHolding        EscrowStatus = "holding"
	EscrowPartialRelease EscrowStatus = "partial_release"
	EscrowReleased       EscrowStatus = "released"
	EscrowDisputed       EscrowStatus = "disputed"
	EscrowVoided         EscrowStatus = "voided"
)

// ReleaseConditions are the gates an escrow account must clear before the
// platform-held amount is paid out.
type ReleaseConditions struct {
	RequiresOTP            bool `bson:"requiresOtp" json:"requiresOTP"`
	RequiresRating         bool `bson:"requiresRating" json:"requiresRating"`
	RequiresAdminApproval  bool `bson:"requiresAdminApproval" json:"requiresAdminApproval"`
	DirectPaymentConfirmed bool `bson:"directPaymentConfirmed" json:"directPaymentConfirmed"`
}

// ReleaseEvidence is presented by the caller on a release attempt.
type ReleaseEvidence struct {
	OTPSatisfied    bool `json:"otpSatisfied"`
	RatingSubmitted bool `json:"ratingSubmitted"`
	AdminApproved   bool `json:"adminApproved"`
}

// EscrowAccount holds the platform side of one booking's money. Rates are
// stored as decimal strings so the payout can be recomputed exactly.
type EscrowAccount struct {
	BookingID          string            `bson:"bookingId" json:"bookingId"`
	TotalBookingAmount int64             `bson:"totalBookingAmount" json:"totalBookingAmount"`
	PlatformAmount     int64             `bson:"platformAmount" json:"platformAmount"`
	DirectAmount       int64             `bson:"directAmount" json:"directAmount"`
	CommissionAmount   int64             `bson:"commissionAmount" json:"commissionAmount"`
	GSTOnCommission    int64             `bson:"gstOnCommission" json:"gstOnCommission"`
	NetPayoutAmount    int64             `bson:"netPayoutAmount" json:"netPayoutAmount"`
	CommissionRate     string            `bson:"commissionRate" json:"commissionRate"`
	GSTRate            string            `bson:"gstRate" json:"gstRate"`
	SplitMethod        string            `bson:"splitMethod" json:"splitMethod"`
	PlatformRatio      string            `bson:"platformRatio,omitempty" json:"platformRatio,omitempty"`
	EscrowStatus       EscrowStatus      `bson:"escrowStatus" json:"escrowStatus"`
	ReleaseConditions  ReleaseConditions `bson:"releaseConditions" json:"releaseConditions"`
	GatewayRef         string            `bson:"gatewayRef,omitempty" json:"gatewayRef,omitempty"`
	ReleasedAt         *time.Time        `bson:"releasedAt,omitempty" json:"releasedAt,omitempty"`
	ReleaseNotes       string            `bson:"releaseNotes,omitempty" json:"releaseNotes,omitempty"`
	DisputeNotes       string            `bson:"disputeNotes,omitempty" json:"disputeNotes,omitempty"`
	CreatedAt          time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time         `bson:"updatedAt" json:"updatedAt"`
	Version            int               `bson:"version" json:"version"`
}
