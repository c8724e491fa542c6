package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"inkpost/internal/httputil"
	"inkpost/internal/model"
)

// AvatarService replaces a user's avatar image.
type AvatarService interface {
	ReplaceAvatar(ctx context.Context, user *model.User, file multipart.File, header *multipart.FileHeader) (*model.User, error)
}

type MediaHandler struct {
	avatars AvatarService
}

// NewMediaHandler accepts a nil service when avatar storage is not configured.
func NewMediaHandler(avatars AvatarService) *MediaHandler {
	return &MediaHandler{avatars: avatars}
}

// UploadAvatar handles POST /auth/{guard}/me/avatar
// Expects multipart/form-data with an "avatar" file.
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if h.avatars == nil {
		httputil.WriteServiceError(w, r, model.ErrStorageUnavailable)
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
		case errors.As(err, &tooLarge):
			httputil.WriteServiceError(w, r, model.ErrFileTooLarge)
		default:
			httputil.WriteBadRequest(w, "invalid form data")
		}
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Envelope{
			Status:  httputil.StatusError,
			Message: "the avatar field is required",
			Data:    httputil.ErrorData{Error: model.KindValidation, Field: "avatar"},
		})
		return
	}
	defer file.Close()

	updated, err := h.avatars.ReplaceAvatar(r.Context(), user, file, header)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Avatar updated", updated)
}
