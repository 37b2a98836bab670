package repository

import (
	"context"
	"fmt"

	"github.com/yyyyyan/wonderline-server/internal/apperr"
	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/store"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// CommentRepository holds the primary comment table and the
// comments_by_photo projection. Replies exist only embedded inside the reply
// maps of both copies, so every reply mutation goes through methods that
// touch both tables.
type CommentRepository struct {
	table   store.Table
	byPhoto store.Table
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(table, byPhoto store.Table) *CommentRepository {
	return &CommentRepository{table: table, byPhoto: byPhoto}
}

func (r *CommentRepository) putPrimary(ctx context.Context, c *models.Comment) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("failed to marshal comment %s: %w", c.ID, err)
	}
	return r.table.Put(ctx, item)
}

func (r *CommentRepository) putByPhoto(ctx context.Context, row *models.CommentByPhoto) error {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return fmt.Errorf("failed to marshal comments_by_photo row %s/%s: %w", row.PhotoID, row.CommentID, err)
	}
	return r.byPhoto.Put(ctx, store.WithPlainSortKey(item, row.CommentID))
}

// Create inserts the comment into both the primary table and the
// comments_by_photo projection with identical id, content and time.
func (r *CommentRepository) Create(ctx context.Context, photoID string, c *models.Comment) error {
	if err := r.putPrimary(ctx, c); err != nil {
		return err
	}
	return r.putByPhoto(ctx, &models.CommentByPhoto{
		PhotoID:    photoID,
		CommentID:  c.ID,
		CreateTime: c.CreateTime,
		User:       c.User,
		Content:    c.Content,
		LikedNb:    c.LikedNb,
		ReplyNb:    c.ReplyNb,
		Replies:    c.Replies,
	})
}

// GetByID returns the primary comment record or a typed not-found error.
func (r *CommentRepository) GetByID(ctx context.Context, commentID string) (*models.Comment, error) {
	item, err := r.table.Get(ctx, store.Key("comment_id", commentID))
	if err != nil {
		return nil, fmt.Errorf("failed to get comment %s: %w", commentID, err)
	}
	if item == nil {
		return nil, apperr.NotFound("Comment", commentID)
	}
	var c models.Comment
	if err := attributevalue.UnmarshalMap(item, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comment %s: %w", commentID, err)
	}
	return &c, nil
}

// GetByPhoto returns the projection copy of one comment.
func (r *CommentRepository) GetByPhoto(ctx context.Context, photoID, commentID string) (*models.CommentByPhoto, error) {
	item, err := r.byPhoto.Get(ctx, store.CompositeKey("photo_id", photoID, commentID))
	if err != nil {
		return nil, fmt.Errorf("failed to get comments_by_photo row %s/%s: %w", photoID, commentID, err)
	}
	if item == nil {
		return nil, apperr.NotFound("Comment", commentID)
	}
	var row models.CommentByPhoto
	if err := attributevalue.UnmarshalMap(item, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comments_by_photo row: %w", err)
	}
	return &row, nil
}

// ListByPhoto returns every comment row of the photo's partition; ordering
// is applied by the caller, which uses a fixed composite tie-break chain
// rather than the generic sort utility.
func (r *CommentRepository) ListByPhoto(ctx context.Context, photoID string) ([]models.CommentByPhoto, error) {
	rows, err := r.byPhoto.Query(ctx, "photo_id", photoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments for photo %s: %w", photoID, err)
	}
	comments := make([]models.CommentByPhoto, 0, len(rows))
	for _, item := range rows {
		var row models.CommentByPhoto
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal comments_by_photo row: %w", err)
		}
		comments = append(comments, row)
	}
	return comments, nil
}

// AddReply appends the reply to the reply map of both copies and increments
// both reply counts.
func (r *CommentRepository) AddReply(ctx context.Context, photoID, commentID, replyID string, reply models.Reply) error {
	c, err := r.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.Replies == nil {
		c.Replies = make(map[string]models.Reply)
	}
	c.Replies[replyID] = reply
	c.ReplyNb++
	if err := r.putPrimary(ctx, c); err != nil {
		return err
	}

	row, err := r.GetByPhoto(ctx, photoID, commentID)
	if err != nil {
		return err
	}
	if row.Replies == nil {
		row.Replies = make(map[string]models.Reply)
	}
	row.Replies[replyID] = reply
	row.ReplyNb++
	return r.putByPhoto(ctx, row)
}

// AdjustLikedNb applies a liked-count delta to both copies of the comment.
func (r *CommentRepository) AdjustLikedNb(ctx context.Context, photoID, commentID string, delta int) error {
	c, err := r.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	c.LikedNb += delta
	if err := r.putPrimary(ctx, c); err != nil {
		return err
	}

	row, err := r.GetByPhoto(ctx, photoID, commentID)
	if err != nil {
		return err
	}
	row.LikedNb += delta
	return r.putByPhoto(ctx, row)
}

// AdjustReplyLikedNb applies a liked-count delta to the reply entry inside
// the reply map of both copies.
func (r *CommentRepository) AdjustReplyLikedNb(ctx context.Context, photoID, commentID, replyID string, delta int) error {
	c, err := r.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	reply, ok := c.Replies[replyID]
	if !ok {
		return apperr.NotFound("Reply", replyID)
	}
	reply.LikedNb += delta
	c.Replies[replyID] = reply
	if err := r.putPrimary(ctx, c); err != nil {
		return err
	}

	row, err := r.GetByPhoto(ctx, photoID, commentID)
	if err != nil {
		return err
	}
	projected, ok := row.Replies[replyID]
	if !ok {
		return apperr.NotFound("Reply", replyID)
	}
	projected.LikedNb += delta
	row.Replies[replyID] = projected
	return r.putByPhoto(ctx, row)
}

// Delete removes both copies of the comment.
func (r *CommentRepository) Delete(ctx context.Context, photoID, commentID string) error {
	if err := r.table.Delete(ctx, store.Key("comment_id", commentID)); err != nil {
		return err
	}
	return r.byPhoto.Delete(ctx, store.CompositeKey("photo_id", photoID, commentID))
}
