package services

import (
	"context"
	"fmt"

	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TripService handles trip business logic, including the fan-out of trip
// writes into the trips_by_user projection. Fan-out is best-effort and
// sequential: a failed projection write is logged and skipped, never rolled
// back, so projection rows may lag the primary record.
type TripService struct {
	trips  *repository.TripRepository
	photos *repository.PhotoRepository
	users  UserGraph
}

// NewTripService creates a new trip service.
func NewTripService(trips *repository.TripRepository, photos *repository.PhotoRepository, users UserGraph) *TripService {
	return &TripService{trips: trips, photos: photos, users: users}
}

// TripUpdate carries the updatable trip fields; nil means unchanged.
type TripUpdate struct {
	Name        *string
	Description *string
	Status      *string
	AccessLevel *string
	BeginTime   *int64
	EndTime     *int64
	UserIDs     *[]string
}

// memberSet returns the deduplicated member list with the owner first.
func memberSet(ownerID string, userIDs []string) []string {
	members := []string{ownerID}
	seen := map[string]bool{ownerID: true}
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	return members
}

// CreateTrip creates the trip and fans out one trips_by_user row per member.
func (s *TripService) CreateTrip(ctx context.Context, ownerID, name, description string, userIDs []string) (*models.TripView, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	trip := &models.Trip{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		AccessLevel: models.AccessLevelEveryone,
		Status:      models.TripStatusEditing,
		Name:        name,
		Description: description,
		Users:       memberSet(ownerID, userIDs),
		CreateTime:  models.NowMillis(),
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}
	for _, memberID := range trip.Users {
		if err := s.trips.CreateForUser(ctx, memberID, trip); err != nil {
			log.Warn().Err(err).Str("trip_id", trip.ID).Str("user_id", memberID).
				Msg("Failed to fan out trips_by_user row")
		}
	}
	return s.composeTrip(ctx, trip), nil
}

// UpdateTrip merges the provided fields into the trip, saves the primary
// record and reconciles the trips_by_user projection by membership set-diff:
// added members get a new row, remaining members get their row rewritten in
// place, removed members lose theirs.
func (s *TripService) UpdateTrip(ctx context.Context, tripID string, update TripUpdate) (*models.TripView, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	previous := trip.Users

	if update.Name != nil {
		trip.Name = *update.Name
	}
	if update.Description != nil {
		trip.Description = *update.Description
	}
	if update.Status != nil {
		trip.Status = *update.Status
	}
	if update.AccessLevel != nil {
		trip.AccessLevel = *update.AccessLevel
	}
	if update.BeginTime != nil {
		trip.BeginTime = *update.BeginTime
	}
	if update.EndTime != nil {
		trip.EndTime = *update.EndTime
	}
	if update.UserIDs != nil {
		trip.Users = memberSet(trip.OwnerID, *update.UserIDs)
	}
	if err := s.trips.Save(ctx, trip); err != nil {
		return nil, err
	}

	current := make(map[string]bool, len(trip.Users))
	for _, id := range trip.Users {
		current[id] = true
	}
	kept := make(map[string]bool, len(previous))
	for _, id := range previous {
		kept[id] = true
		var err error
		if current[id] {
			err = s.trips.UpdateForUser(ctx, id, trip)
		} else {
			err = s.trips.DeleteForUser(ctx, id, trip.ID, trip.CreateTime)
		}
		if err != nil {
			log.Warn().Err(err).Str("trip_id", trip.ID).Str("user_id", id).
				Msg("Failed to reconcile trips_by_user row")
		}
	}
	for _, id := range trip.Users {
		if kept[id] {
			continue
		}
		if err := s.trips.CreateForUser(ctx, id, trip); err != nil {
			log.Warn().Err(err).Str("trip_id", trip.ID).Str("user_id", id).
				Msg("Failed to fan out trips_by_user row")
		}
	}
	return s.composeTrip(ctx, trip), nil
}

// SyncMemberRows rewrites every member's trips_by_user row from the current
// trip record, used after photo uploads change photoNb or the cover photo.
func (s *TripService) SyncMemberRows(ctx context.Context, trip *models.Trip) {
	for _, memberID := range trip.Users {
		if err := s.trips.UpdateForUser(ctx, memberID, trip); err != nil {
			log.Warn().Err(err).Str("trip_id", trip.ID).Str("user_id", memberID).
				Msg("Failed to refresh trips_by_user row")
		}
	}
}

// GetCompleteTrip returns the trip with members resolved and the cover photo
// re-resolved against the live photo record.
func (s *TripService) GetCompleteTrip(ctx context.Context, tripID string) (*models.TripView, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.composeTrip(ctx, trip), nil
}

// GetTripUsers returns the sorted member page of the trip.
func (s *TripService) GetTripUsers(ctx context.Context, tripID, sortBy string, nb *int, startIndex int) ([]models.ReducedUser, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetByIDs(ctx, trip.Users, sortBy, nb, startIndex, false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trip members: %w", err)
	}
	reduced := make([]models.ReducedUser, 0, len(users))
	for _, u := range users {
		reduced = append(reduced, u.Reduced())
	}
	return reduced, nil
}

// ListTripsByUser returns the user's trip page composed from the
// trips_by_user projection; the cover photo id is re-resolved live.
func (s *TripService) ListTripsByUser(ctx context.Context, userID string, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]models.ReducedTripView, error) {
	rows, err := s.trips.ListByUser(ctx, userID, sortKeys, nb, accessLevel, startIndex)
	if err != nil {
		return nil, err
	}
	views := make([]models.ReducedTripView, 0, len(rows))
	for _, row := range rows {
		views = append(views, models.ReducedTripView{
			ID:          row.TripID,
			OwnerID:     row.OwnerID,
			AccessLevel: row.AccessLevel,
			Status:      row.Status,
			Name:        row.Name,
			Description: row.Description,
			Users:       resolveReducedUsers(ctx, s.users, row.Users),
			CreateTime:  row.CreateTime,
			BeginTime:   row.BeginTime,
			EndTime:     row.EndTime,
			PhotoNb:     row.PhotoNb,
			CoverPhoto:  s.resolveCover(ctx, row.CoverPhotoID, nil),
		})
	}
	return views, nil
}

// resolveCover re-resolves a cover photo id against the primary photo store;
// when the live record is gone the stale snapshot is used as fallback.
func (s *TripService) resolveCover(ctx context.Context, coverPhotoID string, snapshot *models.ReducedPhoto) *models.ReducedPhotoView {
	if coverPhotoID == "" && snapshot == nil {
		return nil
	}
	if coverPhotoID == "" {
		coverPhotoID = snapshot.ID
	}
	reduced := snapshot
	if photo, err := s.photos.GetByID(ctx, coverPhotoID); err == nil {
		reduced = &photo.ReducedPhoto
	}
	if reduced == nil {
		return nil
	}
	view := models.NewReducedPhotoView(*reduced, resolveReducedUser(ctx, s.users, reduced.Owner))
	return &view
}

func (s *TripService) composeTrip(ctx context.Context, trip *models.Trip) *models.TripView {
	var coverID string
	if trip.CoverPhoto != nil {
		coverID = trip.CoverPhoto.ID
	}
	return &models.TripView{
		ReducedTrip: models.ReducedTripView{
			ID:          trip.ID,
			OwnerID:     trip.OwnerID,
			AccessLevel: trip.AccessLevel,
			Status:      trip.Status,
			Name:        trip.Name,
			Description: trip.Description,
			Users:       resolveReducedUsers(ctx, s.users, trip.Users),
			CreateTime:  trip.CreateTime,
			BeginTime:   trip.BeginTime,
			EndTime:     trip.EndTime,
			PhotoNb:     trip.PhotoNb,
			CoverPhoto:  s.resolveCover(ctx, coverID, trip.CoverPhoto),
		},
		LikedNb:  trip.LikedNb,
		SharedNb: trip.SharedNb,
		SavedNb:  trip.SavedNb,
	}
}
