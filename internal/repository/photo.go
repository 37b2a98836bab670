package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yyyyyan/wonderline-server/internal/apperr"
	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/store"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// PhotoRepository holds the primary photo table and its photos_by_trip
// projection.
type PhotoRepository struct {
	table  store.Table
	byTrip store.Table
}

// NewPhotoRepository creates a new photo repository.
func NewPhotoRepository(table, byTrip store.Table) *PhotoRepository {
	return &PhotoRepository{table: table, byTrip: byTrip}
}

// Create inserts the photo, guarded against duplicate ids.
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	item, err := attributevalue.MarshalMap(photo)
	if err != nil {
		return fmt.Errorf("failed to marshal photo %s: %w", photo.ID, err)
	}
	if err := r.table.PutIfNotExists(ctx, item); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return apperr.Conflict(fmt.Sprintf("photo %s already exists", photo.ID))
		}
		return fmt.Errorf("failed to create photo %s: %w", photo.ID, err)
	}
	return nil
}

// GetByID returns the photo or a typed not-found error.
func (r *PhotoRepository) GetByID(ctx context.Context, photoID string) (*models.Photo, error) {
	item, err := r.table.Get(ctx, store.Key("photo_id", photoID))
	if err != nil {
		return nil, fmt.Errorf("failed to get photo %s: %w", photoID, err)
	}
	if item == nil {
		return nil, apperr.NotFound("Photo", photoID)
	}
	var photo models.Photo
	if err := attributevalue.UnmarshalMap(item, &photo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal photo %s: %w", photoID, err)
	}
	return &photo, nil
}

// Save writes the full photo row back after a merged update.
func (r *PhotoRepository) Save(ctx context.Context, photo *models.Photo) error {
	item, err := attributevalue.MarshalMap(photo)
	if err != nil {
		return fmt.Errorf("failed to marshal photo %s: %w", photo.ID, err)
	}
	return r.table.Put(ctx, item)
}

// Delete removes the primary photo row.
func (r *PhotoRepository) Delete(ctx context.Context, photoID string) error {
	return r.table.Delete(ctx, store.Key("photo_id", photoID))
}

// photoByTripRow copies the projection fields from the photo snapshot, the
// createFromSnapshot write helper of photos_by_trip.
func photoByTripRow(p models.ReducedPhoto) *models.PhotoByTrip {
	return &models.PhotoByTrip{
		TripID:      p.TripID,
		CreateTime:  p.CreateTime,
		PhotoID:     p.ID,
		Owner:       p.Owner,
		AccessLevel: p.AccessLevel,
		Status:      p.Status,
		Location:    p.Location,
		Country:     p.Country,
		UploadTime:  p.UploadTime,
		Width:       p.Width,
		Height:      p.Height,
		LQSrc:       p.LQSrc,
		Src:         p.Src,
		LikedNb:     p.LikedNb,
	}
}

func (r *PhotoRepository) putByTrip(ctx context.Context, row *models.PhotoByTrip) error {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return fmt.Errorf("failed to marshal photos_by_trip row %s/%s: %w", row.TripID, row.PhotoID, err)
	}
	return r.byTrip.Put(ctx, store.WithSortKey(item, row.CreateTime, row.PhotoID))
}

// CreateByTrip inserts the photos_by_trip projection row from the snapshot.
func (r *PhotoRepository) CreateByTrip(ctx context.Context, snapshot models.ReducedPhoto) error {
	return r.putByTrip(ctx, photoByTripRow(snapshot))
}

// GetByTrip reads one projection row; the row's create time is part of its
// range key and must come from the primary photo record.
func (r *PhotoRepository) GetByTrip(ctx context.Context, tripID, photoID string, createTime int64) (*models.PhotoByTrip, error) {
	item, err := r.byTrip.Get(ctx, store.CompositeKey("trip_id", tripID, store.SortKeyValue(createTime, photoID)))
	if err != nil {
		return nil, fmt.Errorf("failed to get photos_by_trip row %s/%s: %w", tripID, photoID, err)
	}
	if item == nil {
		return nil, apperr.NotFound("Photo", photoID)
	}
	var row models.PhotoByTrip
	if err := attributevalue.UnmarshalMap(item, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal photos_by_trip row: %w", err)
	}
	return &row, nil
}

// UpdateByTripAccessLevel propagates an access-level change to the
// projection row. Access level is deliberately the only updatable photo
// attribute that fans out here; mentions stay on the primary row.
func (r *PhotoRepository) UpdateByTripAccessLevel(ctx context.Context, tripID, photoID string, createTime int64, accessLevel string) error {
	row, err := r.GetByTrip(ctx, tripID, photoID, createTime)
	if err != nil {
		return err
	}
	row.AccessLevel = accessLevel
	return r.putByTrip(ctx, row)
}

// AdjustByTripLikedNb applies a liked-count delta to the projection row.
func (r *PhotoRepository) AdjustByTripLikedNb(ctx context.Context, tripID, photoID string, createTime int64, delta int) error {
	row, err := r.GetByTrip(ctx, tripID, photoID, createTime)
	if err != nil {
		return err
	}
	row.LikedNb += delta
	return r.putByTrip(ctx, row)
}

// DeleteByTrip removes the projection row.
func (r *PhotoRepository) DeleteByTrip(ctx context.Context, tripID, photoID string, createTime int64) error {
	return r.byTrip.Delete(ctx, store.CompositeKey("trip_id", tripID, store.SortKeyValue(createTime, photoID)))
}

// ListByTrip range-scans the trip's photo projection with the uniform
// sort/filter/pagination contract.
func (r *PhotoRepository) ListByTrip(ctx context.Context, tripID string, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]models.PhotoByTrip, error) {
	rows, err := r.byTrip.Query(ctx, "trip_id", tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos for trip %s: %w", tripID, err)
	}
	page, err := store.FilterRows(rows, sortKeys, nb, accessLevel, startIndex)
	if err != nil {
		return nil, err
	}
	photos := make([]models.PhotoByTrip, 0, len(page))
	for _, item := range page {
		var row models.PhotoByTrip
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal photos_by_trip row: %w", err)
		}
		photos = append(photos, row)
	}
	return photos, nil
}
