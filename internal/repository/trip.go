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

// TripRepository holds the primary trip table and its trips_by_user
// projection. Projection rows are written by fan-out from trip writes.
type TripRepository struct {
	table  store.Table
	byUser store.Table
}

// NewTripRepository creates a new trip repository.
func NewTripRepository(table, byUser store.Table) *TripRepository {
	return &TripRepository{table: table, byUser: byUser}
}

// Create inserts the trip, guarded against duplicate ids.
func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	item, err := attributevalue.MarshalMap(trip)
	if err != nil {
		return fmt.Errorf("failed to marshal trip %s: %w", trip.ID, err)
	}
	if err := r.table.PutIfNotExists(ctx, item); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return apperr.Conflict(fmt.Sprintf("trip %s already exists", trip.ID))
		}
		return fmt.Errorf("failed to create trip %s: %w", trip.ID, err)
	}
	return nil
}

// GetByID returns the trip or a typed not-found error.
func (r *TripRepository) GetByID(ctx context.Context, tripID string) (*models.Trip, error) {
	item, err := r.table.Get(ctx, store.Key("trip_id", tripID))
	if err != nil {
		return nil, fmt.Errorf("failed to get trip %s: %w", tripID, err)
	}
	if item == nil {
		return nil, apperr.NotFound("Trip", tripID)
	}
	var trip models.Trip
	if err := attributevalue.UnmarshalMap(item, &trip); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trip %s: %w", tripID, err)
	}
	return &trip, nil
}

// Save writes the full trip row back after a merged update.
func (r *TripRepository) Save(ctx context.Context, trip *models.Trip) error {
	item, err := attributevalue.MarshalMap(trip)
	if err != nil {
		return fmt.Errorf("failed to marshal trip %s: %w", trip.ID, err)
	}
	return r.table.Put(ctx, item)
}

// Delete removes the primary trip row.
func (r *TripRepository) Delete(ctx context.Context, tripID string) error {
	return r.table.Delete(ctx, store.Key("trip_id", tripID))
}

// tripByUserRow copies the projection fields from the trip snapshot for one
// member, the createFromSnapshot write helper of trips_by_user.
func tripByUserRow(trip *models.Trip, userID string) *models.TripByUser {
	row := &models.TripByUser{
		UserID:      userID,
		CreateTime:  trip.CreateTime,
		TripID:      trip.ID,
		OwnerID:     trip.OwnerID,
		AccessLevel: trip.AccessLevel,
		Status:      trip.Status,
		Name:        trip.Name,
		Description: trip.Description,
		Users:       trip.Users,
		BeginTime:   trip.BeginTime,
		EndTime:     trip.EndTime,
		PhotoNb:     trip.PhotoNb,
	}
	if trip.CoverPhoto != nil {
		row.CoverPhotoID = trip.CoverPhoto.ID
	}
	return row
}

func (r *TripRepository) putByUser(ctx context.Context, row *models.TripByUser) error {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return fmt.Errorf("failed to marshal trips_by_user row %s/%s: %w", row.UserID, row.TripID, err)
	}
	return r.byUser.Put(ctx, store.WithSortKey(item, row.CreateTime, row.TripID))
}

// CreateForUser inserts the member's trips_by_user projection row from the
// trip snapshot.
func (r *TripRepository) CreateForUser(ctx context.Context, userID string, trip *models.Trip) error {
	return r.putByUser(ctx, tripByUserRow(trip, userID))
}

// UpdateForUser rewrites the member's existing projection row in place: the
// row keeps its (user_id, create_time, trip_id) identity, only the mutable
// fields change.
func (r *TripRepository) UpdateForUser(ctx context.Context, userID string, trip *models.Trip) error {
	return r.putByUser(ctx, tripByUserRow(trip, userID))
}

// DeleteForUser removes the member's projection row; locating it requires
// the trip's create time since it is part of the range key.
func (r *TripRepository) DeleteForUser(ctx context.Context, userID, tripID string, createTime int64) error {
	return r.byUser.Delete(ctx, store.CompositeKey("user_id", userID, store.SortKeyValue(createTime, tripID)))
}

// GetForUser reads one member's projection row.
func (r *TripRepository) GetForUser(ctx context.Context, userID, tripID string, createTime int64) (*models.TripByUser, error) {
	item, err := r.byUser.Get(ctx, store.CompositeKey("user_id", userID, store.SortKeyValue(createTime, tripID)))
	if err != nil {
		return nil, fmt.Errorf("failed to get trips_by_user row %s/%s: %w", userID, tripID, err)
	}
	if item == nil {
		return nil, nil
	}
	var row models.TripByUser
	if err := attributevalue.UnmarshalMap(item, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trips_by_user row: %w", err)
	}
	return &row, nil
}

// ListByUser range-scans the user's trip projection, applying the uniform
// sort/filter/pagination contract.
func (r *TripRepository) ListByUser(ctx context.Context, userID string, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]models.TripByUser, error) {
	rows, err := r.byUser.Query(ctx, "user_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips for user %s: %w", userID, err)
	}
	page, err := store.FilterRows(rows, sortKeys, nb, accessLevel, startIndex)
	if err != nil {
		return nil, err
	}
	trips := make([]models.TripByUser, 0, len(page))
	for _, item := range page {
		var row models.TripByUser
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trips_by_user row: %w", err)
		}
		trips = append(trips, row)
	}
	return trips, nil
}
