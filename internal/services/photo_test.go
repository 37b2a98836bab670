package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yyyyyan/wonderline-server/internal/apperr"
)

func createTestTrip(t *testing.T, env *testEnv, ownerID string, memberIDs []string) string {
	t.Helper()
	trip, err := env.tripSvc.CreateTrip(context.Background(), ownerID, "Summer", "", memberIDs)
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	return trip.ReducedTrip.ID
}

func TestUploadPhotosCoverFirstWins(t *testing.T) {
	env := newTestEnv("owner")
	ctx := context.Background()
	tripID := createTestTrip(t, env, "owner", nil)

	img := testImage(t)
	first, err := env.photoSvc.UploadPhotos(ctx, tripID, "owner", []PhotoUpload{{Data: img}})
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := env.photoSvc.UploadPhotos(ctx, tripID, "owner", []PhotoUpload{{Data: img}})
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	trip, err := env.trips.GetByID(ctx, tripID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if trip.PhotoNb != 2 {
		t.Errorf("expected photoNb=2, got %d", trip.PhotoNb)
	}
	if trip.CoverPhoto == nil || trip.CoverPhoto.ID != first[0].ID {
		t.Fatalf("cover must stay on the first uploaded photo, got %+v", trip.CoverPhoto)
	}
	if trip.CoverPhoto.ID == second[0].ID {
		t.Error("cover must not move to later uploads")
	}

	// The member projection reflects the counter and cover.
	rows, err := env.trips.ListByUser(ctx, "owner", nil, nil, "", 0)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByUser: rows=%d err=%v", len(rows), err)
	}
	if rows[0].PhotoNb != 2 || rows[0].CoverPhotoID != first[0].ID {
		t.Errorf("projection row out of step: %+v", rows[0])
	}

	// Three blob sizes per photo.
	if len(env.blobs.objects) != 6 {
		t.Errorf("expected 6 stored blobs, got %d", len(env.blobs.objects))
	}
}

func TestUploadPhotosRequiresMembership(t *testing.T) {
	env := newTestEnv("owner", "stranger")
	tripID := createTestTrip(t, env, "owner", nil)

	_, err := env.photoSvc.UploadPhotos(context.Background(), tripID, "stranger", []PhotoUpload{{Data: testImage(t)}})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestUploadPhotosMentionFanOut(t *testing.T) {
	env := newTestEnv("owner", "m1")
	ctx := context.Background()
	tripID := createTestTrip(t, env, "owner", nil)

	photos, err := env.photoSvc.UploadPhotos(ctx, tripID, "owner", []PhotoUpload{{
		Data:             testImage(t),
		MentionedUserIDs: []string{"m1"},
	}})
	if err != nil {
		t.Fatalf("UploadPhotos: %v", err)
	}

	rows, err := env.mentions.ListByUser(ctx, "m1", nil, nil, "", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one mention row, got %d", len(rows))
	}
	if rows[0].Photo.ID != photos[0].ID {
		t.Errorf("mention row embeds photo %s, want %s", rows[0].Photo.ID, photos[0].ID)
	}
}

func TestLikePhotoIdempotent(t *testing.T) {
	env := newTestEnv("owner", "fan")
	ctx := context.Background()
	tripID := createTestTrip(t, env, "owner", nil)

	photos, err := env.photoSvc.UploadPhotos(ctx, tripID, "owner", []PhotoUpload{{Data: testImage(t)}})
	if err != nil {
		t.Fatalf("UploadPhotos: %v", err)
	}
	photoID := photos[0].ID

	for i := 0; i < 2; i++ {
		if err := env.photoSvc.LikePhoto(ctx, photoID, "fan", true); err != nil {
			t.Fatalf("LikePhoto: %v", err)
		}
	}

	photo, err := env.photos.GetByID(ctx, photoID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if photo.LikedNb != 1 {
		t.Errorf("duplicate like must not double-count, likedNb=%d", photo.LikedNb)
	}
	row, err := env.photos.GetByTrip(ctx, tripID, photoID, photo.CreateTime)
	if err != nil {
		t.Fatalf("GetByTrip: %v", err)
	}
	if row.LikedNb != 1 {
		t.Errorf("projection likedNb=%d, want 1", row.LikedNb)
	}

	if err := env.photoSvc.LikePhoto(ctx, photoID, "fan", false); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	photo, _ = env.photos.GetByID(ctx, photoID)
	if photo.LikedNb != 0 || photo.HasLikedBy("fan") {
		t.Errorf("unlike not applied: likedNb=%d", photo.LikedNb)
	}
}

func TestUpdatePhotosPropagatesOnlyAccessLevel(t *testing.T) {
	env := newTestEnv("owner", "m1")
	ctx := context.Background()
	tripID := createTestTrip(t, env, "owner", nil)

	photos, err := env.photoSvc.UploadPhotos(ctx, tripID, "owner", []PhotoUpload{{Data: testImage(t)}})
	if err != nil {
		t.Fatalf("UploadPhotos: %v", err)
	}
	photoID := photos[0].ID

	level := "private"
	mentioned := []string{"m1"}
	err = env.photoSvc.UpdatePhotos(ctx, tripID, []PhotoUpdate{{
		PhotoID:          photoID,
		AccessLevel:      &level,
		MentionedUserIDs: &mentioned,
	}})
	if err != nil {
		t.Fatalf("UpdatePhotos: %v", err)
	}

	photo, err := env.photos.GetByID(ctx, photoID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if photo.AccessLevel != "private" || len(photo.MentionedUsers) != 1 {
		t.Errorf("primary record not updated: %+v", photo.ReducedPhoto)
	}

	row, err := env.photos.GetByTrip(ctx, tripID, photoID, photo.CreateTime)
	if err != nil {
		t.Fatalf("GetByTrip: %v", err)
	}
	if row.AccessLevel != "private" {
		t.Errorf("access level must propagate to the projection, got %q", row.AccessLevel)
	}
}

func TestDeletePhotosBestEffort(t *testing.T) {
	env := newTestEnv("owner")
	ctx := context.Background()
	tripID := createTestTrip(t, env, "owner", nil)

	img := testImage(t)
	first, err := env.photoSvc.UploadPhotos(ctx, tripID, "owner", []PhotoUpload{{Data: img}})
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := env.photoSvc.UploadPhotos(ctx, tripID, "owner", []PhotoUpload{{Data: img}})
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	// A missing id in the batch must not stop the rest.
	err = env.photoSvc.DeletePhotos(ctx, tripID, []string{"no-such-photo", first[0].ID})
	if err != nil {
		t.Fatalf("DeletePhotos: %v", err)
	}

	if _, err := env.photos.GetByID(ctx, first[0].ID); !apperr.IsNotFound(err) {
		t.Errorf("expected first photo to be gone, got %v", err)
	}
	if _, err := env.photos.GetByID(ctx, second[0].ID); err != nil {
		t.Errorf("second photo must survive: %v", err)
	}

	trip, err := env.trips.GetByID(ctx, tripID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if trip.PhotoNb != 1 {
		t.Errorf("expected photoNb=1 after delete, got %d", trip.PhotoNb)
	}
	if trip.CoverPhoto == nil || trip.CoverPhoto.ID != second[0].ID {
		t.Errorf("cover must move to the remaining photo, got %+v", trip.CoverPhoto)
	}
}
