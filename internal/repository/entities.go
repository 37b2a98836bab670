package repository

import (
	"context"
	"fmt"

	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/store"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// EntityRepository is the per-comment/reply overlay store: hashtag spans,
// mention spans and the persisted like-set, merged onto base records at read
// time.
type EntityRepository struct {
	table store.Table
}

// NewEntityRepository creates a new overlay repository.
func NewEntityRepository(table store.Table) *EntityRepository {
	return &EntityRepository{table: table}
}

func (r *EntityRepository) getRow(ctx context.Context, id string) (*models.EntitiesByComment, error) {
	item, err := r.table.Get(ctx, store.Key("comment_id", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get entities for %s: %w", id, err)
	}
	if item == nil {
		return nil, nil
	}
	var row models.EntitiesByComment
	if err := attributevalue.UnmarshalMap(item, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entities for %s: %w", id, err)
	}
	return &row, nil
}

func (r *EntityRepository) putRow(ctx context.Context, row *models.EntitiesByComment) error {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return fmt.Errorf("failed to marshal entities for %s: %w", row.CommentID, err)
	}
	return r.table.Put(ctx, item)
}

// GetEntities returns the overlay for a comment or reply id. A missing row
// yields empty defaults, never an error. HasLiked is computed against the
// requester id on every call and must not be cached across users.
func (r *EntityRepository) GetEntities(ctx context.Context, id, requesterID string) (models.Entities, error) {
	row, err := r.getRow(ctx, id)
	if err != nil {
		return models.Entities{}, err
	}
	if row == nil {
		return models.EmptyEntities(), nil
	}
	entities := models.Entities{
		Hashtags: row.Hashtags,
		Mentions: row.MentionedUsers,
		HasLiked: row.HasLike(requesterID),
	}
	if entities.Hashtags == nil {
		entities.Hashtags = []models.Hashtag{}
	}
	if entities.Mentions == nil {
		entities.Mentions = []models.MentionedUser{}
	}
	return entities, nil
}

// CreateOverlay stores the overlay row for a freshly created comment or
// reply; the like-set starts empty.
func (r *EntityRepository) CreateOverlay(ctx context.Context, id string, hashtags []models.Hashtag, mentions []models.MentionedUser) error {
	return r.putRow(ctx, &models.EntitiesByComment{
		CommentID:      id,
		Hashtags:       hashtags,
		MentionedUsers: mentions,
		Likes:          []string{},
	})
}

// ToggleLike flips the requester's membership in the like-set. When current
// membership already matches the requested state the call is a no-op and
// returns changed=false, so duplicate like requests never double-count.
func (r *EntityRepository) ToggleLike(ctx context.Context, id, requesterID string, isLike bool) (bool, error) {
	row, err := r.getRow(ctx, id)
	if err != nil {
		return false, err
	}
	if row == nil {
		if !isLike {
			return false, nil
		}
		row = &models.EntitiesByComment{CommentID: id, Likes: []string{}}
	}
	if row.HasLike(requesterID) == isLike {
		return false, nil
	}
	if isLike {
		row.Likes = append(row.Likes, requesterID)
	} else {
		likes := row.Likes[:0]
		for _, uid := range row.Likes {
			if uid != requesterID {
				likes = append(likes, uid)
			}
		}
		row.Likes = likes
	}
	if err := r.putRow(ctx, row); err != nil {
		return false, err
	}
	return true, nil
}
