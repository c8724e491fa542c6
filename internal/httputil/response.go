package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"inkpost/internal/model"
)

// Envelope statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform response body: {"status", "message", "data"}.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorData is the data member of an error envelope.
type ErrorData struct {
	Error model.ErrorKind `json:"error"`
	Field string          `json:"field,omitempty"`
}

var kindStatus = map[model.ErrorKind]int{
	model.KindValidation:   http.StatusBadRequest,
	model.KindUnauthorized: http.StatusUnauthorized,
	model.KindTokenInvalid: http.StatusUnauthorized,
	model.KindTokenExpired: http.StatusUnauthorized,
	model.KindTokenMissing: http.StatusUnauthorized,
	model.KindNotFound:     http.StatusNotFound,
	model.KindPersistence:  http.StatusInternalServerError,
	model.KindDispatch:     http.StatusInternalServerError,
	model.KindInternal:     http.StatusInternalServerError,
}

// StatusFor returns the HTTP status of an error kind.
func StatusFor(kind model.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "component", "http", "error", err)
		}
	}
}

// WriteSuccess writes a success envelope.
func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

// WriteError writes an error envelope with the status implied by kind.
func WriteError(w http.ResponseWriter, kind model.ErrorKind, message string) {
	WriteJSON(w, StatusFor(kind), Envelope{
		Status:  StatusError,
		Message: message,
		Data:    ErrorData{Error: kind},
	})
}

// WriteBadRequest writes a 400 ValidationError
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, model.KindValidation, message)
}

// WriteInternalError writes a 500 InternalError
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, model.KindInternal, message)
}

// WriteServiceError classifies err into the envelope. Unexpected errors are
// logged with the request context and answered with a generic message.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr *model.ValidationError
		pErr *model.PersistenceError
		dErr *model.DispatchError
	)

	if authErr, ok := model.AsAuthError(err); ok {
		WriteError(w, authErr.Kind, authErr.Message)
		return
	}

	switch {
	case errors.As(err, &vErr):
		WriteJSON(w, http.StatusBadRequest, Envelope{
			Status:  StatusError,
			Message: vErr.Error(),
			Data:    ErrorData{Error: model.KindValidation, Field: vErr.Field},
		})
	case errors.Is(err, model.ErrFileTooLarge):
		WriteBadRequest(w, "avatar must be at most 5MB")
	case errors.Is(err, model.ErrInvalidImageType):
		WriteBadRequest(w, "avatar must be a jpeg, png, gif or webp image")
	case errors.Is(err, model.ErrInvalidPostID):
		WriteBadRequest(w, "invalid post id")
	case errors.Is(err, model.ErrPostNotFound):
		WriteError(w, model.KindNotFound, "post not found")
	case errors.Is(err, model.ErrUserNotFound):
		WriteError(w, model.KindNotFound, "user not found")
	case errors.As(err, &pErr):
		logInternal(r, err)
		WriteError(w, model.KindPersistence, "failed to access the database")
	case errors.As(err, &dErr):
		logInternal(r, err)
		WriteError(w, model.KindDispatch, "failed to send notification")
	case errors.Is(err, model.ErrStorageUnavailable):
		WriteInternalError(w, "avatar storage not configured")
	default:
		logInternal(r, err)
		WriteInternalError(w, "internal server error")
	}
}

func logInternal(r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed", "component", "http",
		"method", r.Method, "path", r.URL.Path, "error", err)
}
