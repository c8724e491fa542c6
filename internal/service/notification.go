package service

import (
	"context"
	"log/slog"
	"strings"

	"inkpost/internal/metrics"
	"inkpost/internal/model"
)

// Messenger is the push gateway. Send returns the gateway's message id.
type Messenger interface {
	Send(ctx context.Context, msg model.NotificationMessage) (string, error)
}

// NotificationService validates push requests and hands them to the gateway.
// Nothing is stored and acceptance is the only confirmation.
type NotificationService struct {
	messenger Messenger
}

func NewNotificationService(messenger Messenger) *NotificationService {
	return &NotificationService{messenger: messenger}
}

func (s *NotificationService) SendToTopic(ctx context.Context, req model.TopicNotificationRequest) (*model.DispatchAck, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, model.NewValidationError("topic", "the topic field is required")
	}
	if err := validateNotificationContent(req.Title, req.Body); err != nil {
		return nil, err
	}
	data, err := model.StringifyData(req.Data)
	if err != nil {
		return nil, model.NewValidationError("data", err.Error())
	}

	msg := model.NotificationMessage{
		TargetKind: model.TargetTopic,
		Target:     topic,
		Title:      req.Title,
		Body:       req.Body,
		Data:       data,
	}
	id, err := s.dispatch(ctx, msg)
	if err != nil {
		return nil, err
	}

	return &model.DispatchAck{
		MessageID:    id,
		Topic:        topic,
		Notification: model.NotificationContent{Title: req.Title, Body: req.Body},
		Data:         data,
	}, nil
}

func (s *NotificationService) SendToDevice(ctx context.Context, req model.DeviceNotificationRequest) (*model.DispatchAck, error) {
	token := strings.TrimSpace(req.DeviceToken)
	if token == "" {
		return nil, model.NewValidationError("devicetoken", "the devicetoken field is required")
	}
	if err := validateNotificationContent(req.Title, req.Body); err != nil {
		return nil, err
	}

	msg := model.NotificationMessage{
		TargetKind: model.TargetDevice,
		Target:     token,
		Title:      req.Title,
		Body:       req.Body,
	}
	id, err := s.dispatch(ctx, msg)
	if err != nil {
		return nil, err
	}

	return &model.DispatchAck{
		MessageID:    id,
		Token:        token,
		Notification: model.NotificationContent{Title: req.Title, Body: req.Body},
	}, nil
}

func (s *NotificationService) dispatch(ctx context.Context, msg model.NotificationMessage) (string, error) {
	id, err := s.messenger.Send(ctx, msg)
	metrics.ObserveDispatch(msg.TargetKind, err)
	if err != nil {
		slog.ErrorContext(ctx, "push dispatch failed", "component", "notifications", "target", msg.TargetKind, "error", err)
		return "", &model.DispatchError{Target: msg.TargetKind, Err: err}
	}
	slog.InfoContext(ctx, "push dispatched", "component", "notifications", "target", msg.TargetKind, "message_id", id)
	return id, nil
}

func validateNotificationContent(title, body string) error {
	if strings.TrimSpace(title) == "" {
		return model.NewValidationError("title", "the title field is required")
	}
	if strings.TrimSpace(body) == "" {
		return model.NewValidationError("body", "the body field is required")
	}
	return nil
}
