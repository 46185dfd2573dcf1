package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"snapfeed/internal/httputil"
	"snapfeed/internal/model"
	"snapfeed/internal/service"
	"snapfeed/internal/transport/http/middleware"
)

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
	}
}

// Signup handles POST /auth/signup
// Creates an account and returns a token plus the created user.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.userService.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMissingField):
			httputil.WriteBadRequest(w, "Username, email and password are required")
		case errors.Is(err, model.ErrUserExists):
			// Duplicate identity is reported as a 400, same as other
			// signup validation failures.
			httputil.WriteBadRequestWithCode(w, httputil.ErrCodeConflict, "Username or email is already taken")
		default:
			log.Printf("[ERROR] Signup handler: err=%v", err)
			httputil.WriteInternalError(w, "Failed to create account")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login
// Accepts a username or email plus password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.userService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid username or password")
			return
		}
		log.Printf("[ERROR] Login handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to log in")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Me handles GET /me
// Returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteUnauthorized(w, "Account no longer exists")
			return
		}
		log.Printf("[ERROR] Me handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get current user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
