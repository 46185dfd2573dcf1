package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"snapfeed/internal/httputil"
	"snapfeed/internal/model"
	"snapfeed/internal/service"
	"snapfeed/internal/transport/http/middleware"
)

type PostHandler struct {
	postService  *service.PostService
	mediaService *service.MediaService
}

// NewPostHandler creates a PostHandler. mediaService may be nil when
// object storage is not configured; posts then require an image_url.
func NewPostHandler(postService *service.PostService, mediaService *service.MediaService) *PostHandler {
	return &PostHandler{
		postService:  postService,
		mediaService: mediaService,
	}
}

// Create handles POST /posts
// Accepts either multipart form data with a "file" upload (plus optional
// "caption"), or a JSON body with an already-hosted image_url.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var imageURL, caption string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(model.MaxPostImageSize); err != nil {
			httputil.WriteBadRequest(w, "Invalid multipart form")
			return
		}
		caption = r.FormValue("caption")
		imageURL = r.FormValue("image_url")

		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			if h.mediaService == nil {
				httputil.WriteBadRequest(w, "File uploads are not available, provide an image_url")
				return
			}

			result, err := h.mediaService.UploadPostImage(r.Context(), file, header)
			if err != nil {
				switch {
				case errors.Is(err, model.ErrFileTooLarge):
					httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds the 10MB limit")
				case errors.Is(err, model.ErrInvalidImageType):
					httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image format")
				default:
					log.Printf("[ERROR] Create post upload: user=%d err=%v", userID, err)
					httputil.WriteInternalError(w, "Failed to upload image")
				}
				return
			}
			imageURL = result.URL
		}
	} else {
		var req model.CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteBadRequest(w, "Invalid request body")
			return
		}
		imageURL = req.ImageURL
		caption = req.Caption
	}

	post, err := h.postService.Create(r.Context(), userID, imageURL, caption)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrImageRequired):
			httputil.WriteBadRequest(w, "An image is required")
		case errors.Is(err, model.ErrCaptionTooLong):
			httputil.WriteBadRequest(w, "Caption too long (max 200 characters)")
		default:
			log.Printf("[ERROR] Create post handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to create post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// GetByID handles GET /posts/:id
// Returns a single post with author, likes and comments.
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.postService.GetByID(r.Context(), viewerID, postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Get post handler: post=%d err=%v", postID, err)
		httputil.WriteInternalError(w, "Failed to get post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// ToggleLike handles POST /posts/:id/like
// Likes the post if not yet liked, unlikes otherwise. Returns the post in
// its new state.
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.postService.ToggleLike(r.Context(), userID, postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Toggle like handler: user=%d post=%d err=%v", userID, postID, err)
		httputil.WriteInternalError(w, "Failed to toggle like")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/:id
// Removes a post (only the owner can delete).
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	err = h.postService.Delete(r.Context(), userID, postID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You can only delete your own posts")
		default:
			log.Printf("[ERROR] Delete post handler: user=%d post=%d err=%v", userID, postID, err)
			httputil.WriteInternalError(w, "Failed to delete post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post deleted successfully",
	})
}

func parsePostID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
