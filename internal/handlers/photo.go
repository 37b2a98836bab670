package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/yyyyyan/wonderline-server/internal/middleware"
	"github.com/yyyyyan/wonderline-server/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	photoService *services.PhotoService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
	}
}

// GetTripPhotos handles GET /api/v1/trips/{tripId}/photos
func (h *PhotoHandler) GetTripPhotos(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	photos, err := h.photoService.ListPhotosByTrip(
		r.Context(), tripID, querySortKeys(r), queryIntPtr(r, "nb"),
		r.URL.Query().Get("accessLevel"), queryInt(r, "startIndex", 0))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"photos": photos})
}

type uploadPhotoRequest struct {
	Data             string   `json:"data"`
	Location         string   `json:"location"`
	Country          string   `json:"country"`
	AccessLevel      string   `json:"accessLevel"`
	MentionedUserIDs []string `json:"mentionedUserIds"`
}

type uploadPhotosRequest struct {
	Photos []uploadPhotoRequest `json:"photos"`
}

// UploadPhotos handles POST /api/v1/trips/{tripId}/photos
func (h *PhotoHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	tripID := chi.URLParam(r, "tripId")

	var req uploadPhotosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Photos) == 0 {
		respondError(w, "photos are required", http.StatusBadRequest)
		return
	}

	uploads := make([]services.PhotoUpload, 0, len(req.Photos))
	for _, p := range req.Photos {
		data, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			respondError(w, "photo data must be base64 encoded", http.StatusBadRequest)
			return
		}
		uploads = append(uploads, services.PhotoUpload{
			Data:             data,
			Location:         p.Location,
			Country:          p.Country,
			AccessLevel:      p.AccessLevel,
			MentionedUserIDs: p.MentionedUserIDs,
		})
	}

	photos, err := h.photoService.UploadPhotos(r.Context(), tripID, userID, uploads)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().Str("trip_id", tripID).Str("user_id", userID).Int("count", len(photos)).
		Msg("Photos uploaded")
	respondCreated(w, map[string]interface{}{"photos": photos})
}

type updatePhotoRequest struct {
	PhotoID          string    `json:"photoId"`
	AccessLevel      *string   `json:"accessLevel"`
	MentionedUserIDs *[]string `json:"mentionedUserIds"`
	HasLiked         *bool     `json:"hasLiked"`
}

type updatePhotosRequest struct {
	Photos []updatePhotoRequest `json:"photos"`
}

// UpdatePhotos handles PATCH /api/v1/trips/{tripId}/photos
func (h *PhotoHandler) UpdatePhotos(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")

	var req updatePhotosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updates := make([]services.PhotoUpdate, 0, len(req.Photos))
	for _, p := range req.Photos {
		if p.PhotoID == "" {
			respondError(w, "photoId is required", http.StatusBadRequest)
			return
		}
		updates = append(updates, services.PhotoUpdate{
			PhotoID:          p.PhotoID,
			AccessLevel:      p.AccessLevel,
			MentionedUserIDs: p.MentionedUserIDs,
		})
	}
	if err := h.photoService.UpdatePhotos(r.Context(), tripID, updates); err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, nil)
}

type deletePhotosRequest struct {
	PhotoIDs []string `json:"photoIds"`
}

// DeletePhotos handles DELETE /api/v1/trips/{tripId}/photos
func (h *PhotoHandler) DeletePhotos(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")

	var req deletePhotosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.PhotoIDs) == 0 {
		respondError(w, "photoIds are required", http.StatusBadRequest)
		return
	}
	if err := h.photoService.DeletePhotos(r.Context(), tripID, req.PhotoIDs); err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, nil)
}

// GetPhoto handles GET /api/v1/trips/{tripId}/photos/{photoId}
func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	photoID := chi.URLParam(r, "photoId")

	photo, err := h.photoService.GetPhotoDetails(r.Context(), photoID, userID, services.PhotoDetailOptions{
		LikedSortBy:       r.URL.Query().Get("likedUsersSortType"),
		LikedNb:           queryIntPtrDefault(r, "likedUsersNb", defaultPageNb),
		LikedStartIndex:   queryInt(r, "likedUsersStartIndex", 0),
		CommentNb:         queryIntPtrDefault(r, "commentsNb", defaultPageNb),
		CommentStartIndex: queryInt(r, "commentsStartIndex", 0),
		ReplyNb:           queryIntPtrDefault(r, "repliesNb", defaultPageNb),
	})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"photo": photo})
}

// UpdatePhoto handles PATCH /api/v1/trips/{tripId}/photos/{photoId}. A
// hasLiked field toggles the requester's like; the other fields are a
// single-photo partial update.
func (h *PhotoHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	tripID := chi.URLParam(r, "tripId")
	photoID := chi.URLParam(r, "photoId")

	var req updatePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.HasLiked != nil {
		if err := h.photoService.LikePhoto(r.Context(), photoID, userID, *req.HasLiked); err != nil {
			respondAppError(w, err)
			return
		}
	}
	if req.AccessLevel != nil || req.MentionedUserIDs != nil {
		err := h.photoService.UpdatePhotos(r.Context(), tripID, []services.PhotoUpdate{{
			PhotoID:          photoID,
			AccessLevel:      req.AccessLevel,
			MentionedUserIDs: req.MentionedUserIDs,
		}})
		if err != nil {
			respondAppError(w, err)
			return
		}
	}
	respondOK(w, nil)
}
