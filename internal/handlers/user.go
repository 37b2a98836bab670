package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/yyyyyan/wonderline-server/internal/middleware"
	"github.com/yyyyyan/wonderline-server/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
	tripService *services.TripService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, tripService *services.TripService) *UserHandler {
	return &UserHandler{
		userService: userService,
		tripService: tripService,
	}
}

type signUpRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	UniqueName string `json:"uniqueName"`
}

// SignUp handles POST /api/v1/users
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		respondError(w, "email, password and name are required", http.StatusBadRequest)
		return
	}
	if req.UniqueName == "" {
		req.UniqueName = req.Name
	}

	user, token, err := h.userService.SignUp(r.Context(), req.Email, req.Password, req.Name, req.UniqueName)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User signed up")
	respondCreated(w, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn handles POST /api/v1/users/signin
func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondOK(w, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// SignOut handles POST /api/v1/users/signout
func (h *UserHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if err := h.userService.SignOut(r.Context(), userID); err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, nil)
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

// RegisterPushToken handles POST /api/v1/users/pushtoken
func (h *UserHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req pushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respondError(w, "token is required", http.StatusBadRequest)
		return
	}
	if err := h.userService.RegisterPushToken(r.Context(), userID, req.Token); err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, nil)
}

// GetUser handles GET /api/v1/users/{userId}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	sortBy := r.URL.Query().Get("sortType")
	user, err := h.userService.GetUserCompleteAttributes(
		r.Context(), userID, sortBy, queryIntPtr(r, "followerNb"), queryInt(r, "startIndex", 0))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, user)
}

// SearchUsers handles GET /api/v1/users?searchQuery=
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("searchQuery")
	if query == "" {
		respondError(w, "searchQuery is required", http.StatusBadRequest)
		return
	}
	users, err := h.userService.SearchUsers(
		r.Context(), query, r.URL.Query().Get("sortType"),
		queryIntPtr(r, "nb"), queryInt(r, "startIndex", 0))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"users": users})
}

// GetFollowers handles GET /api/v1/users/{userId}/followers
func (h *UserHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	followers, err := h.userService.GetFollowers(
		r.Context(), userID, r.URL.Query().Get("sortType"),
		queryIntPtr(r, "nb"), queryInt(r, "startIndex", 0))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"followers": followers})
}

// GetUserTrips handles GET /api/v1/users/{userId}/trips
func (h *UserHandler) GetUserTrips(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	trips, err := h.tripService.ListTripsByUser(
		r.Context(), userID, querySortKeys(r), queryIntPtr(r, "nb"),
		r.URL.Query().Get("accessLevel"), queryInt(r, "startIndex", 0))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"trips": trips})
}

// GetUserAlbums handles GET /api/v1/users/{userId}/albums
func (h *UserHandler) GetUserAlbums(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	albums, err := h.userService.GetUserAlbums(
		r.Context(), userID, querySortKeys(r), queryIntPtr(r, "nb"),
		r.URL.Query().Get("accessLevel"), queryInt(r, "startIndex", 0))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"albums": albums})
}

// GetUserMentions handles GET /api/v1/users/{userId}/mentions
func (h *UserHandler) GetUserMentions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	mentions, err := h.userService.GetUserMentions(
		r.Context(), userID, querySortKeys(r), queryIntPtr(r, "nb"),
		r.URL.Query().Get("accessLevel"), queryInt(r, "startIndex", 0))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"mentions": mentions})
}

// GetUserHighlights handles GET /api/v1/users/{userId}/highlights
func (h *UserHandler) GetUserHighlights(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	highlights, err := h.userService.GetUserHighlights(
		r.Context(), userID, querySortKeys(r), queryIntPtr(r, "nb"),
		r.URL.Query().Get("accessLevel"), queryInt(r, "startIndex", 0))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"highlights": highlights})
}
