package repository

import (
	"context"
	"fmt"

	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/store"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// Per-user collection projections: albums, mentions and highlights. Each is
// a separate denormalized table keyed by (user_id, create_time, item_id).

// AlbumRepository reads and writes the albums_by_user projection.
type AlbumRepository struct {
	table store.Table
}

func NewAlbumRepository(table store.Table) *AlbumRepository {
	return &AlbumRepository{table: table}
}

// Create inserts one album row with its embedded cover snapshots.
func (r *AlbumRepository) Create(ctx context.Context, row *models.AlbumByUser) error {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return fmt.Errorf("failed to marshal albums_by_user row %s: %w", row.AlbumID, err)
	}
	return r.table.Put(ctx, store.WithSortKey(item, row.CreateTime, row.AlbumID))
}

// ListByUser range-scans the user's albums with the uniform list contract.
func (r *AlbumRepository) ListByUser(ctx context.Context, userID string, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]models.AlbumByUser, error) {
	rows, err := r.table.Query(ctx, "user_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums for user %s: %w", userID, err)
	}
	page, err := store.FilterRows(rows, sortKeys, nb, accessLevel, startIndex)
	if err != nil {
		return nil, err
	}
	albums := make([]models.AlbumByUser, 0, len(page))
	for _, item := range page {
		var row models.AlbumByUser
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal albums_by_user row: %w", err)
		}
		albums = append(albums, row)
	}
	return albums, nil
}

// MentionRepository reads and writes the mentions_by_user projection, fanned
// out when an uploaded photo mentions a user.
type MentionRepository struct {
	table store.Table
}

func NewMentionRepository(table store.Table) *MentionRepository {
	return &MentionRepository{table: table}
}

// Create inserts one mention row embedding the photo snapshot.
func (r *MentionRepository) Create(ctx context.Context, row *models.MentionByUser) error {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return fmt.Errorf("failed to marshal mentions_by_user row %s: %w", row.MentionID, err)
	}
	return r.table.Put(ctx, store.WithSortKey(item, row.CreateTime, row.MentionID))
}

// ListByUser range-scans the user's mentions with the uniform list contract.
func (r *MentionRepository) ListByUser(ctx context.Context, userID string, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]models.MentionByUser, error) {
	rows, err := r.table.Query(ctx, "user_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentions for user %s: %w", userID, err)
	}
	page, err := store.FilterRows(rows, sortKeys, nb, accessLevel, startIndex)
	if err != nil {
		return nil, err
	}
	mentions := make([]models.MentionByUser, 0, len(page))
	for _, item := range page {
		var row models.MentionByUser
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mentions_by_user row: %w", err)
		}
		mentions = append(mentions, row)
	}
	return mentions, nil
}

// HighlightRepository reads and writes the highlights_by_user projection.
// Highlight cover photos are stored as ids only and re-resolved live.
type HighlightRepository struct {
	table store.Table
}

func NewHighlightRepository(table store.Table) *HighlightRepository {
	return &HighlightRepository{table: table}
}

// Create inserts one highlight row.
func (r *HighlightRepository) Create(ctx context.Context, row *models.HighlightByUser) error {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return fmt.Errorf("failed to marshal highlights_by_user row %s: %w", row.HighlightID, err)
	}
	return r.table.Put(ctx, store.WithSortKey(item, row.CreateTime, row.HighlightID))
}

// ListByUser range-scans the user's highlights with the uniform list
// contract.
func (r *HighlightRepository) ListByUser(ctx context.Context, userID string, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]models.HighlightByUser, error) {
	rows, err := r.table.Query(ctx, "user_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query highlights for user %s: %w", userID, err)
	}
	page, err := store.FilterRows(rows, sortKeys, nb, accessLevel, startIndex)
	if err != nil {
		return nil, err
	}
	highlights := make([]models.HighlightByUser, 0, len(page))
	for _, item := range page {
		var row models.HighlightByUser
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal highlights_by_user row: %w", err)
		}
		highlights = append(highlights, row)
	}
	return highlights, nil
}
