package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/yyyyyan/wonderline-server/internal/middleware"
	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/services"

	"github.com/go-chi/chi/v5"
)

// CommentHandler handles comment and reply HTTP requests
type CommentHandler struct {
	commentService *services.CommentService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// GetComments handles GET /api/v1/trips/{tripId}/photos/{photoId}/comments
func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	photoID := chi.URLParam(r, "photoId")

	comments, err := h.commentService.GetCommentsByPhoto(
		r.Context(), photoID, userID,
		queryIntPtrDefault(r, "nb", defaultPageNb), queryInt(r, "startIndex", 0),
		queryIntPtrDefault(r, "repliesNb", defaultPageNb))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"comments": comments})
}

type commentRequest struct {
	Content        string                 `json:"content"`
	Hashtags       []models.Hashtag       `json:"hashtags"`
	MentionedUsers []models.MentionedUser `json:"mentionedUsers"`
}

// AddComment handles POST /api/v1/trips/{tripId}/photos/{photoId}/comments
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	photoID := chi.URLParam(r, "photoId")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		respondError(w, "content is required", http.StatusBadRequest)
		return
	}

	comment, err := h.commentService.AddComment(
		r.Context(), photoID, userID, req.Content, req.Hashtags, req.MentionedUsers)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondCreated(w, map[string]interface{}{"comment": comment})
}

type likeRequest struct {
	HasLiked *bool `json:"hasLiked"`
}

// LikeComment handles PATCH /api/v1/trips/{tripId}/photos/{photoId}/comments/{commentId}
func (h *CommentHandler) LikeComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	photoID := chi.URLParam(r, "photoId")
	commentID := chi.URLParam(r, "commentId")

	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HasLiked == nil {
		respondError(w, "hasLiked is required", http.StatusBadRequest)
		return
	}
	if err := h.commentService.LikeComment(r.Context(), photoID, commentID, userID, *req.HasLiked); err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, nil)
}

// GetReplies handles GET .../comments/{commentId}/replies
func (h *CommentHandler) GetReplies(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	commentID := chi.URLParam(r, "commentId")

	replies, err := h.commentService.GetRepliesByComment(
		r.Context(), commentID, userID,
		queryIntPtrDefault(r, "nb", defaultPageNb), queryInt(r, "startIndex", 0))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"replies": replies})
}

// AddReply handles POST .../comments/{commentId}/replies
func (h *CommentHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	photoID := chi.URLParam(r, "photoId")
	commentID := chi.URLParam(r, "commentId")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		respondError(w, "content is required", http.StatusBadRequest)
		return
	}

	reply, err := h.commentService.AddReply(
		r.Context(), photoID, commentID, userID, req.Content, req.Hashtags, req.MentionedUsers)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondCreated(w, map[string]interface{}{"reply": reply})
}

// LikeReply handles PATCH .../comments/{commentId}/replies/{replyId}
func (h *CommentHandler) LikeReply(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	photoID := chi.URLParam(r, "photoId")
	commentID := chi.URLParam(r, "commentId")
	replyID := chi.URLParam(r, "replyId")

	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HasLiked == nil {
		respondError(w, "hasLiked is required", http.StatusBadRequest)
		return
	}
	if err := h.commentService.LikeReply(r.Context(), photoID, commentID, replyID, userID, *req.HasLiked); err != nil {
		respondAppError(w, err)
		return
	}
	respondOK(w, nil)
}
