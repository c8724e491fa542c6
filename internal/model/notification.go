package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Push target kinds.
const (
	TargetTopic  = "topic"
	TargetDevice = "token"
)

// NotificationMessage is a push message. It is never persisted.
type NotificationMessage struct {
	TargetKind string
	Target     string
	Title      string
	Body       string
	Data       map[string]string
}

// TopicNotificationRequest is the request body for POST /notification/send-topic-notification.
type TopicNotificationRequest struct {
	Topic string                     `json:"topic"`
	Title string                     `json:"title"`
	Body  string                     `json:"body"`
	Data  map[string]json.RawMessage `json:"data"`
}

// DeviceNotificationRequest is the request body for POST /notification/send-device-notification.
type DeviceNotificationRequest struct {
	DeviceToken string `json:"devicetoken"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

// NotificationContent is the visible part of a push.
type NotificationContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// DispatchAck confirms gateway acceptance. There is no delivery confirmation.
type DispatchAck struct {
	MessageID    string              `json:"message_id"`
	Topic        string              `json:"topic,omitempty"`
	Token        string              `json:"token,omitempty"`
	Notification NotificationContent `json:"notification"`
	Data         map[string]string   `json:"data,omitempty"`
}

// StringifyData flattens arbitrary JSON values into the string map FCM expects.
// JSON strings are unquoted; every other value keeps its JSON encoding.
func StringifyData(raw map[string]json.RawMessage) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		v = bytes.TrimSpace(v)
		// Unmarshalling null into a string succeeds, so drop it first.
		if len(v) == 0 || string(v) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		if !json.Valid(v) {
			return nil, fmt.Errorf("data.%s: invalid JSON value", k)
		}
		out[k] = string(v)
	}
	return out, nil
}
