package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"inkpost/internal/model"
)

// Messenger sends single-target pushes through FCM.
type Messenger struct {
	client *messaging.Client
	retry  retryPolicy
}

func NewMessenger(client *messaging.Client, maxAttempts uint) *Messenger {
	return &Messenger{client: client, retry: newRetryPolicy(maxAttempts)}
}

// Send returns the FCM message name on acceptance. There is no delivery receipt.
func (m *Messenger) Send(ctx context.Context, msg model.NotificationMessage) (string, error) {
	fcm := &messaging.Message{
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	switch msg.TargetKind {
	case model.TargetTopic:
		fcm.Topic = msg.Target
	case model.TargetDevice:
		fcm.Token = msg.Target
	default:
		return "", fmt.Errorf("unknown push target kind %q", msg.TargetKind)
	}

	var id string
	err := m.retry.do(ctx, "send", func() error {
		var err error
		id, err = m.client.Send(ctx, fcm)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("fcm send: %w", err)
	}
	return id, nil
}
