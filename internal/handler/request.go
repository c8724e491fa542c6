package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"inkpost/internal/httputil"
	"inkpost/internal/model"
	"inkpost/internal/transport/http/middleware"
)

const maxJSONBody = 1 << 20

// decodeJSON reads a JSON body into dst and answers 400 on failure.
// An empty body decodes to the zero value so field validation can report it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteBadRequest(w, "invalid request body")
		return false
	}
	return true
}

// currentUser returns the authenticated user or answers 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, model.KindTokenMissing, "authorization token not found")
		return nil, false
	}
	return user, true
}
