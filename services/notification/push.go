package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hireflow/database"
	"hireflow/database/repository/deviceRepo"
	"hireflow/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Messenger is the part of *messaging.Client used to push.
type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSender turns queued payloads into FCM messages.
type PushSender struct {
	devices deviceRepo.DeviceRepository
	fcm     Messenger
	logger  *zap.Logger
}

func NewPushSender(devices deviceRepo.DeviceRepository, fcm Messenger, logger *zap.Logger) (*PushSender, error) {
	if devices == nil || fcm == nil {
		return nil, fmt.Errorf("push sender initialization error: device repo or FCM client is nil")
	}
	return &PushSender{devices: devices, fcm: fcm, logger: logger}, nil
}

// Send pushes one payload. A user without a registered device is skipped.
func (s *PushSender) Send(ctx context.Context, p models.NotificationPayload) error {
	device, err := s.devices.GetByUserID(ctx, p.UserID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && device.FCMToken == "") {
		s.logger.Warn("no push target", zap.String("userID", p.UserID), zap.String("type", p.Type))
		return nil
	}
	if err != nil {
		return fmt.Errorf("Send: could not load device for %s: %w", p.UserID, err)
	}

	if _, err := s.fcm.Send(ctx, BuildMessage(device.FCMToken, p, time.Now())); err != nil {
		return fmt.Errorf("Send: failed to send FCM message: %w", err)
	}
	s.logger.Debug("push sent", zap.String("userID", p.UserID), zap.String("type", p.Type))
	return nil
}

// BuildMessage renders a payload for FCM. Urgent payloads use the high
// priority channel with sound, and carry a TTL so stale alerts are dropped.
func BuildMessage(token string, p models.NotificationPayload, now time.Time) *messaging.Message {
	data := make(map[string]string, len(p.Data)+2)
	for k, v := range p.Data {
		data[k] = v
	}
	data["type"] = p.Type
	data["role"] = string(p.Target)

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: data,
	}
	if !p.Urgent {
		return msg
	}

	android := &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			ChannelID: "high_priority",
			Sound:     "default",
		},
	}
	headers := map[string]string{
		"apns-priority":  "10",
		"apns-push-type": "alert",
	}
	if p.ExpiresAt != nil {
		ttl := p.ExpiresAt.Sub(now)
		if ttl < 0 {
			ttl = 0
		}
		android.TTL = &ttl
		headers["apns-expiration"] = fmt.Sprintf("%d", p.ExpiresAt.Unix())
	}
	msg.Android = android
	msg.APNS = &messaging.APNSConfig{
		Headers: headers,
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound: "default",
			},
		},
	}
	return msg
}
