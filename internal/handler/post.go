package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkpost/internal/httputil"
	"inkpost/internal/model"
	"inkpost/internal/service"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// List handles GET /posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.postService.List(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Posts retrieved", resp)
}

// Create handles POST /posts
// Creates a new post for the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.postService.Create(r.Context(), user.ID, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	message := "Post created successfully"
	if resp.MirrorError != "" {
		message = "Post created; mirror sync failed"
	}
	httputil.WriteSuccess(w, http.StatusCreated, message, resp)
}

// Show handles GET /posts/{id}
// Numeric ids read the relational store, anything else reads the mirror.
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	view, err := h.postService.Show(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Post retrieved", view)
}

// Update handles PUT /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	var req model.UpdatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.postService.Update(r.Context(), id, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Post updated successfully", view)
}

// Delete handles DELETE /posts/{id}
// Responds with the value the post had just before deletion.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	view, err := h.postService.Delete(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Post deleted successfully", view)
}

func postID(w http.ResponseWriter, r *http.Request) (model.PostID, bool) {
	id, err := model.ParsePostID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return model.PostID{}, false
	}
	return id, true
}
