package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/yyyyyan/wonderline-server/internal/apperr"
	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CommentService handles comments and replies, keeping the comment table and
// the comments_by_photo projection in step and merging the entity overlay
// into every read.
type CommentService struct {
	comments *repository.CommentRepository
	entities *repository.EntityRepository
	photos   *repository.PhotoRepository
	users    UserGraph
	notifier Notifier
}

// NewCommentService creates a new comment service. notifier may be nil when
// push is not configured.
func NewCommentService(
	comments *repository.CommentRepository,
	entities *repository.EntityRepository,
	photos *repository.PhotoRepository,
	users UserGraph,
	notifier Notifier,
) *CommentService {
	return &CommentService{
		comments: comments,
		entities: entities,
		photos:   photos,
		users:    users,
		notifier: notifier,
	}
}

// AddComment creates the comment in both tables, stores its overlay row and
// updates the photo's comment counters. The photo owner gets a push
// notification when a device token is registered.
func (s *CommentService) AddComment(ctx context.Context, photoID, userID, content string, hashtags []models.Hashtag, mentions []models.MentionedUser) (*models.CommentView, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{
		ID:         uuid.New().String(),
		CreateTime: models.NowMillis(),
		User:       userID,
		Content:    content,
		Replies:    map[string]models.Reply{},
	}
	if err := s.comments.Create(ctx, photoID, comment); err != nil {
		return nil, err
	}
	if err := s.entities.CreateOverlay(ctx, comment.ID, hashtags, mentions); err != nil {
		log.Warn().Err(err).Str("comment_id", comment.ID).Msg("Failed to store comment overlay")
	}

	photo.CommentNb++
	photo.Comments = append(photo.Comments, comment.ID)
	if err := s.photos.Save(ctx, photo); err != nil {
		log.Warn().Err(err).Str("photo_id", photoID).Msg("Failed to update photo comment counters")
	}

	s.notifyOwner(ctx, photo.Owner, userID, content)

	view := s.composeComment(ctx, models.CommentByPhoto{
		PhotoID:    photoID,
		CommentID:  comment.ID,
		CreateTime: comment.CreateTime,
		User:       comment.User,
		Content:    comment.Content,
	}, userID, nil)
	return &view, nil
}

// AddReply creates a reply with a fresh id, stores its overlay row and
// appends it to the reply maps of both comment copies.
func (s *CommentService) AddReply(ctx context.Context, photoID, commentID, userID, content string, hashtags []models.Hashtag, mentions []models.MentionedUser) (*models.ReplyView, error) {
	replyID := uuid.New().String()
	reply := models.Reply{
		User:       userID,
		CreateTime: models.NowMillis(),
		Content:    content,
	}
	if err := s.comments.AddReply(ctx, photoID, commentID, replyID, reply); err != nil {
		return nil, err
	}
	if err := s.entities.CreateOverlay(ctx, replyID, hashtags, mentions); err != nil {
		log.Warn().Err(err).Str("reply_id", replyID).Msg("Failed to store reply overlay")
	}
	view := s.composeReply(ctx, replyID, reply, userID)
	return &view, nil
}

// LikeComment toggles the requester's like on a comment. The overlay guard
// makes repeated identical requests no-ops, so the counters on both copies
// move at most once per state change.
func (s *CommentService) LikeComment(ctx context.Context, photoID, commentID, userID string, isLike bool) error {
	if _, err := s.comments.GetByID(ctx, commentID); err != nil {
		return err
	}
	changed, err := s.entities.ToggleLike(ctx, commentID, userID, isLike)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	delta := 1
	if !isLike {
		delta = -1
	}
	return s.comments.AdjustLikedNb(ctx, photoID, commentID, delta)
}

// LikeReply toggles the requester's like on a reply, adjusting the reply
// entry inside both reply maps. The reply must exist before the overlay is
// touched so a bogus id never leaves an orphan like-set mutation.
func (s *CommentService) LikeReply(ctx context.Context, photoID, commentID, replyID, userID string, isLike bool) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if _, ok := comment.Replies[replyID]; !ok {
		return apperr.NotFound("Reply", replyID)
	}
	changed, err := s.entities.ToggleLike(ctx, replyID, userID, isLike)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	delta := 1
	if !isLike {
		delta = -1
	}
	return s.comments.AdjustReplyLikedNb(ctx, photoID, commentID, replyID, delta)
}

// GetCommentsByPhoto returns the photo's comment page ordered by the fixed
// composite chain: likedNb desc, then replyNb desc, then createTime desc.
// Each comment carries its reply page limited to replyNb entries.
func (s *CommentService) GetCommentsByPhoto(ctx context.Context, photoID, requesterID string, nb *int, startIndex int, replyNb *int) ([]models.CommentView, error) {
	rows, err := s.comments.ListByPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LikedNb != rows[j].LikedNb {
			return rows[i].LikedNb > rows[j].LikedNb
		}
		if rows[i].ReplyNb != rows[j].ReplyNb {
			return rows[i].ReplyNb > rows[j].ReplyNb
		}
		return rows[i].CreateTime > rows[j].CreateTime
	})
	page, err := slicePage(rows, nb, startIndex)
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, 0, len(page))
	for _, row := range page {
		views = append(views, s.composeComment(ctx, row, requesterID, replyNb))
	}
	return views, nil
}

// GetRepliesByComment returns the comment's replies ordered newest first.
func (s *CommentService) GetRepliesByComment(ctx context.Context, commentID, requesterID string, nb *int, startIndex int) ([]models.ReplyView, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return s.replyPage(ctx, comment.Replies, requesterID, nb, startIndex)
}

// slicePage applies the [startIndex, startIndex+nb) window; nil nb means
// unbounded from startIndex onward.
func slicePage[T any](items []T, nb *int, startIndex int) ([]T, error) {
	if nb != nil && *nb < 0 {
		return nil, fmt.Errorf("nb must be non-negative, got %d", *nb)
	}
	if startIndex >= len(items) {
		return nil, nil
	}
	items = items[startIndex:]
	if nb != nil && *nb < len(items) {
		items = items[:*nb]
	}
	return items, nil
}

func (s *CommentService) replyPage(ctx context.Context, replies map[string]models.Reply, requesterID string, nb *int, startIndex int) ([]models.ReplyView, error) {
	type entry struct {
		id    string
		reply models.Reply
	}
	ordered := make([]entry, 0, len(replies))
	for id, reply := range replies {
		ordered = append(ordered, entry{id: id, reply: reply})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].reply.CreateTime != ordered[j].reply.CreateTime {
			return ordered[i].reply.CreateTime > ordered[j].reply.CreateTime
		}
		return ordered[i].id < ordered[j].id
	})
	page, err := slicePage(ordered, nb, startIndex)
	if err != nil {
		return nil, err
	}
	views := make([]models.ReplyView, 0, len(page))
	for _, e := range page {
		views = append(views, s.composeReply(ctx, e.id, e.reply, requesterID))
	}
	return views, nil
}

func (s *CommentService) composeReply(ctx context.Context, replyID string, reply models.Reply, requesterID string) models.ReplyView {
	entities, err := s.entities.GetEntities(ctx, replyID, requesterID)
	if err != nil {
		log.Warn().Err(err).Str("reply_id", replyID).Msg("Failed to load reply overlay")
		entities = models.EmptyEntities()
	}
	return models.ReplyView{
		ID:         replyID,
		User:       resolveReducedUser(ctx, s.users, reply.User),
		CreateTime: reply.CreateTime,
		Content:    reply.Content,
		LikedNb:    reply.LikedNb,
		Hashtags:   entities.Hashtags,
		Mentions:   entities.Mentions,
		HasLiked:   entities.HasLiked,
	}
}

func (s *CommentService) composeComment(ctx context.Context, row models.CommentByPhoto, requesterID string, replyNb *int) models.CommentView {
	entities, err := s.entities.GetEntities(ctx, row.CommentID, requesterID)
	if err != nil {
		log.Warn().Err(err).Str("comment_id", row.CommentID).Msg("Failed to load comment overlay")
		entities = models.EmptyEntities()
	}
	replies, err := s.replyPage(ctx, row.Replies, requesterID, replyNb, 0)
	if err != nil {
		replies = nil
	}
	if replies == nil {
		replies = []models.ReplyView{}
	}
	return models.CommentView{
		ID:         row.CommentID,
		CreateTime: row.CreateTime,
		User:       resolveReducedUser(ctx, s.users, row.User),
		Content:    row.Content,
		LikedNb:    row.LikedNb,
		ReplyNb:    row.ReplyNb,
		Replies:    replies,
		Hashtags:   entities.Hashtags,
		Mentions:   entities.Mentions,
		HasLiked:   entities.HasLiked,
	}
}

// notifyOwner pushes a new-comment notification to the photo owner's device.
func (s *CommentService) notifyOwner(ctx context.Context, ownerID, commenterID, content string) {
	if s.notifier == nil || ownerID == commenterID {
		return
	}
	token, err := s.users.PushToken(ctx, ownerID)
	if err != nil || token == nil || *token == "" {
		return
	}
	commenter, err := s.users.GetByID(ctx, commenterID)
	if err != nil {
		return
	}
	title := fmt.Sprintf("%s commented on your photo", commenter.Name)
	if err := s.notifier.Notify(*token, title, content); err != nil {
		log.Warn().Err(err).Str("user_id", ownerID).Msg("Failed to push comment notification")
	}
}
