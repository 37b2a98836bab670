package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/yyyyyan/wonderline-server/internal/middleware"
	"github.com/yyyyyan/wonderline-server/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// TripHandler handles trip-related HTTP requests
type TripHandler struct {
	tripService *services.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(tripService *services.TripService) *TripHandler {
	return &TripHandler{
		tripService: tripService,
	}
}

type createTripRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	UserIDs     []string `json:"userIds"`
}

// CreateTrip handles POST /api/v1/trips
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}

	trip, err := h.tripService.CreateTrip(r.Context(), userID, req.Name, req.Description, req.UserIDs)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().Str("trip_id", trip.ReducedTrip.ID).Str("user_id", userID).Msg("Trip created")
	respondCreated(w, map[string]interface{}{"trip": trip})
}

// GetTrip handles GET /api/v1/trips/{tripId}
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	trip, err := h.tripService.GetCompleteTrip(r.Context(), tripID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"trip": trip})
}

type updateTripRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	AccessLevel *string   `json:"accessLevel"`
	BeginTime   *int64    `json:"beginTime"`
	EndTime     *int64    `json:"endTime"`
	UserIDs     *[]string `json:"userIds"`
}

// UpdateTrip handles PATCH /api/v1/trips/{tripId}
func (h *TripHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")

	var req updateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trip, err := h.tripService.UpdateTrip(r.Context(), tripID, services.TripUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		AccessLevel: req.AccessLevel,
		BeginTime:   req.BeginTime,
		EndTime:     req.EndTime,
		UserIDs:     req.UserIDs,
	})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"trip": trip})
}

// GetTripUsers handles GET /api/v1/trips/{tripId}/users
func (h *TripHandler) GetTripUsers(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	users, err := h.tripService.GetTripUsers(
		r.Context(), tripID, r.URL.Query().Get("sortType"),
		queryIntPtr(r, "nb"), queryInt(r, "startIndex", 0))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"users": users})
}
