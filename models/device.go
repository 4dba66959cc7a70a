package models

import "time"

// DeviceToken maps a user to the FCM registration token of their device.
type DeviceToken struct {
	UserID    string    `bson:"userId" json:"userId"`
	Role      Role      `bson:"role" json:"role"`
	FCMToken  string    `bson:"fcmToken" json:"fcmToken" binding:"required"`
	Platform  string    `bson:"platform,omitempty" json:"platform,omitempty"` // "android", "ios", "web"
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
