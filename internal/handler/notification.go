package handler

import (
	"net/http"

	"inkpost/internal/httputil"
	"inkpost/internal/model"
	"inkpost/internal/service"
)

type NotificationHandler struct {
	notifService *service.NotificationService
}

func NewNotificationHandler(notifService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notifService: notifService,
	}
}

// SendToTopic handles POST /notification/send-topic-notification
func (h *NotificationHandler) SendToTopic(w http.ResponseWriter, r *http.Request) {
	var req model.TopicNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ack, err := h.notifService.SendToTopic(r.Context(), req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Notification sent to topic", ack)
}

// SendToDevice handles POST /notification/send-device-notification
func (h *NotificationHandler) SendToDevice(w http.ResponseWriter, r *http.Request) {
	var req model.DeviceNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ack, err := h.notifService.SendToDevice(r.Context(), req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Notification sent to device", ack)
}
