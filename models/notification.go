package models

import "time"

// NotificationTarget selects which audience a push is formatted for.
type NotificationTarget string

const (
	TargetEmployer   NotificationTarget = "employer"
	TargetFreelancer NotificationTarget = "freelancer"
)

// NotificationPayload is the body of a queued push notification.
type NotificationPayload struct {
	UserID    string             `json:"userId"`
	Target    NotificationTarget `json:"target"`
	Type      string             `json:"type"` // "offer", "otp", "booking_update", "escrow"
	Title     string             `json:"title"`
	Body      string             `json:"body"`
	Data      map[string]string  `json:"data,omitempty"`
	Urgent    bool               `json:"urgent,omitempty"`
	ExpiresAt *time.Time         `json:"expiresAt,omitempty"`
}
