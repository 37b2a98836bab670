package services

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/yyyyyan/wonderline-server/internal/apperr"
	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/repository"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	srcMaxWidth = 1080
	lqMaxWidth  = 400
)

// PhotoService handles photo business logic: multi-size blob uploads, the
// photos_by_trip fan-out, mention fan-out and the trip cover/counter updates
// that follow every upload or delete.
type PhotoService struct {
	photos   *repository.PhotoRepository
	trips    *repository.TripRepository
	mentions *repository.MentionRepository
	comments *CommentService
	users    UserGraph
	blobs    BlobStore
	tripSvc  *TripService
	feed     *FeedHub
}

// NewPhotoService creates a new photo service. feed may be nil.
func NewPhotoService(
	photos *repository.PhotoRepository,
	trips *repository.TripRepository,
	mentions *repository.MentionRepository,
	comments *CommentService,
	users UserGraph,
	blobs BlobStore,
	tripSvc *TripService,
	feed *FeedHub,
) *PhotoService {
	return &PhotoService{
		photos:   photos,
		trips:    trips,
		mentions: mentions,
		comments: comments,
		users:    users,
		blobs:    blobs,
		tripSvc:  tripSvc,
		feed:     feed,
	}
}

// PhotoUpload is one photo submitted to an upload batch.
type PhotoUpload struct {
	Data             []byte
	Location         string
	Country          string
	AccessLevel      string
	MentionedUserIDs []string
}

// PhotoUpdate carries the updatable photo fields; nil means unchanged.
type PhotoUpdate struct {
	PhotoID          string
	AccessLevel      *string
	MentionedUserIDs *[]string
}

// sizedVariant is one encoded size of an uploaded image.
type sizedVariant struct {
	suffix string
	data   []byte
}

// processImage decodes the upload and produces the three stored variants:
// the original as high quality plus two downscaled copies.
func processImage(data []byte) (int, int, []sizedVariant, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	variants := []sizedVariant{{suffix: "hq", data: data}}
	for _, v := range []struct {
		suffix   string
		maxWidth int
	}{
		{"src", srcMaxWidth},
		{"lq", lqMaxWidth},
	} {
		scaled := img
		if width > v.maxWidth {
			scaled = imaging.Resize(img, v.maxWidth, 0, imaging.Lanczos)
		}
		encoded, err := encodeJPEG(scaled)
		if err != nil {
			return 0, 0, nil, err
		}
		variants = append(variants, sizedVariant{suffix: v.suffix, data: encoded})
	}
	return width, height, variants, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func photoKey(tripID, photoID, suffix string) string {
	return fmt.Sprintf("photos/%s/%s_%s.jpg", tripID, photoID, suffix)
}

// UploadPhotos stores a batch of photos for a trip member: three blob sizes
// per photo, the primary record, the photos_by_trip row, one mentions_by_user
// row per mentioned user, then the trip's photo counter and first-wins cover
// photo, fanned back out to every member's trips_by_user row.
func (s *PhotoService) UploadPhotos(ctx context.Context, tripID, userID string, uploads []PhotoUpload) ([]models.ReducedPhotoView, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.HasUser(userID) {
		return nil, apperr.Unauthorized("user is not a member of the trip")
	}

	views := make([]models.ReducedPhotoView, 0, len(uploads))
	for _, upload := range uploads {
		width, height, variants, err := processImage(upload.Data)
		if err != nil {
			return nil, err
		}

		photoID := uuid.New().String()
		now := models.NowMillis()
		urls := make(map[string]string, len(variants))
		for _, v := range variants {
			url, err := s.blobs.Put(ctx, photoKey(tripID, photoID, v.suffix), v.data, "image/jpeg")
			if err != nil {
				return nil, err
			}
			urls[v.suffix] = url
		}

		accessLevel := upload.AccessLevel
		if accessLevel == "" {
			accessLevel = models.AccessLevelEveryone
		}
		photo := &models.Photo{
			ReducedPhoto: models.ReducedPhoto{
				ID:          photoID,
				TripID:      tripID,
				Owner:       userID,
				AccessLevel: accessLevel,
				Status:      trip.Status,
				Location:    upload.Location,
				Country:     upload.Country,
				CreateTime:  now,
				UploadTime:  now,
				Width:       width,
				Height:      height,
				LQSrc:       urls["lq"],
				Src:         urls["src"],
			},
			HQSrc:          urls["hq"],
			LikedUsers:     []string{},
			MentionedUsers: upload.MentionedUserIDs,
			Comments:       []string{},
		}
		if photo.MentionedUsers == nil {
			photo.MentionedUsers = []string{}
		}

		if err := s.photos.Create(ctx, photo); err != nil {
			return nil, err
		}
		if err := s.photos.CreateByTrip(ctx, photo.ReducedPhoto); err != nil {
			log.Warn().Err(err).Str("photo_id", photoID).Msg("Failed to fan out photos_by_trip row")
		}
		s.fanOutMentions(ctx, photo)

		trip.PhotoNb++
		if trip.CoverPhoto == nil {
			snapshot := photo.ReducedPhoto
			trip.CoverPhoto = &snapshot
		}

		views = append(views, models.NewReducedPhotoView(photo.ReducedPhoto, resolveReducedUser(ctx, s.users, userID)))
	}

	if err := s.trips.Save(ctx, trip); err != nil {
		log.Warn().Err(err).Str("trip_id", tripID).Msg("Failed to update trip after photo upload")
	}
	s.tripSvc.SyncMemberRows(ctx, trip)

	if s.feed != nil && len(views) > 0 {
		s.feed.BroadcastToUsers(trip.Users, FeedEvent{
			Type:      "photos_uploaded",
			TripID:    tripID,
			UserID:    userID,
			Timestamp: models.NowMillis(),
			Payload:   views,
		})
	}
	return views, nil
}

// fanOutMentions writes one mentions_by_user row per mentioned user,
// embedding the photo snapshot.
func (s *PhotoService) fanOutMentions(ctx context.Context, photo *models.Photo) {
	for _, mentionedID := range photo.MentionedUsers {
		row := &models.MentionByUser{
			UserID:      mentionedID,
			CreateTime:  photo.CreateTime,
			MentionID:   uuid.New().String(),
			AccessLevel: photo.AccessLevel,
			Photo:       photo.ReducedPhoto,
		}
		if err := s.mentions.Create(ctx, row); err != nil {
			log.Warn().Err(err).Str("photo_id", photo.ID).Str("user_id", mentionedID).
				Msg("Failed to fan out mentions_by_user row")
		}
	}
}

// UpdatePhotos applies a batch of partial photo updates. Access level is the
// only field propagated to the photos_by_trip projection; mentions stay on
// the primary record.
func (s *PhotoService) UpdatePhotos(ctx context.Context, tripID string, updates []PhotoUpdate) error {
	for _, update := range updates {
		photo, err := s.photos.GetByID(ctx, update.PhotoID)
		if err != nil {
			return err
		}
		if photo.TripID != tripID {
			return apperr.NotFound("Photo", update.PhotoID)
		}
		if update.AccessLevel != nil {
			photo.AccessLevel = *update.AccessLevel
		}
		if update.MentionedUserIDs != nil {
			photo.MentionedUsers = *update.MentionedUserIDs
		}
		if err := s.photos.Save(ctx, photo); err != nil {
			return err
		}
		if update.AccessLevel != nil {
			err := s.photos.UpdateByTripAccessLevel(ctx, tripID, photo.ID, photo.CreateTime, photo.AccessLevel)
			if err != nil {
				log.Warn().Err(err).Str("photo_id", photo.ID).
					Msg("Failed to propagate access level to photos_by_trip")
			}
		}
	}
	return nil
}

// LikePhoto toggles the requester's membership in the photo's liked set. A
// request matching the current state is a no-op, so the counters on the
// primary record and the projection move at most once per state change.
func (s *PhotoService) LikePhoto(ctx context.Context, photoID, userID string, isLike bool) error {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if photo.HasLikedBy(userID) == isLike {
		return nil
	}
	delta := 1
	if isLike {
		photo.LikedUsers = append(photo.LikedUsers, userID)
	} else {
		delta = -1
		liked := photo.LikedUsers[:0]
		for _, id := range photo.LikedUsers {
			if id != userID {
				liked = append(liked, id)
			}
		}
		photo.LikedUsers = liked
	}
	photo.LikedNb += delta
	if err := s.photos.Save(ctx, photo); err != nil {
		return err
	}
	err = s.photos.AdjustByTripLikedNb(ctx, photo.TripID, photoID, photo.CreateTime, delta)
	if err != nil {
		log.Warn().Err(err).Str("photo_id", photoID).
			Msg("Failed to propagate liked count to photos_by_trip")
	}
	return nil
}

// DeletePhotos removes a batch of photos best-effort: a missing id is logged
// and the batch continues. Each deletion removes the primary row, the
// projection row and the three blob objects, then the trip's counter and
// cover are reconciled once for the whole batch.
func (s *PhotoService) DeletePhotos(ctx context.Context, tripID string, photoIDs []string) error {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	coverDeleted := false
	for _, photoID := range photoIDs {
		photo, err := s.photos.GetByID(ctx, photoID)
		if err != nil {
			log.Warn().Err(err).Str("photo_id", photoID).Msg("Skipping photo in delete batch")
			continue
		}
		if photo.TripID != tripID {
			log.Warn().Str("photo_id", photoID).Str("trip_id", tripID).
				Msg("Skipping photo from another trip in delete batch")
			continue
		}
		if err := s.photos.Delete(ctx, photoID); err != nil {
			log.Warn().Err(err).Str("photo_id", photoID).Msg("Failed to delete photo record")
			continue
		}
		if err := s.photos.DeleteByTrip(ctx, tripID, photoID, photo.CreateTime); err != nil {
			log.Warn().Err(err).Str("photo_id", photoID).Msg("Failed to delete photos_by_trip row")
		}
		for _, url := range []string{photo.LQSrc, photo.Src, photo.HQSrc} {
			if url == "" {
				continue
			}
			if err := s.blobs.Delete(ctx, url); err != nil {
				log.Warn().Err(err).Str("photo_id", photoID).Msg("Failed to delete photo blob")
			}
		}
		trip.PhotoNb--
		if trip.CoverPhoto != nil && trip.CoverPhoto.ID == photoID {
			trip.CoverPhoto = nil
			coverDeleted = true
		}
	}
	if trip.PhotoNb < 0 {
		trip.PhotoNb = 0
	}
	if coverDeleted {
		trip.CoverPhoto = s.pickCover(ctx, tripID)
	}
	if err := s.trips.Save(ctx, trip); err != nil {
		return err
	}
	s.tripSvc.SyncMemberRows(ctx, trip)
	return nil
}

// pickCover selects the oldest remaining photo of the trip as the new cover,
// or nil when none remain.
func (s *PhotoService) pickCover(ctx context.Context, tripID string) *models.ReducedPhoto {
	one := 1
	rows, err := s.photos.ListByTrip(ctx, tripID, []string{"createTime"}, &one, "", 0)
	if err != nil || len(rows) == 0 {
		return nil
	}
	snapshot := reducedFromByTrip(rows[0])
	return &snapshot
}

func reducedFromByTrip(row models.PhotoByTrip) models.ReducedPhoto {
	return models.ReducedPhoto{
		ID:          row.PhotoID,
		TripID:      row.TripID,
		Owner:       row.Owner,
		AccessLevel: row.AccessLevel,
		Status:      row.Status,
		Location:    row.Location,
		Country:     row.Country,
		CreateTime:  row.CreateTime,
		UploadTime:  row.UploadTime,
		Width:       row.Width,
		Height:      row.Height,
		LQSrc:       row.LQSrc,
		Src:         row.Src,
		LikedNb:     row.LikedNb,
	}
}

// PhotoDetailOptions bounds the nested pages of a photo detail read.
type PhotoDetailOptions struct {
	LikedSortBy       string
	LikedNb           *int
	LikedStartIndex   int
	CommentNb         *int
	CommentStartIndex int
	ReplyNb           *int
}

// GetPhotoDetails composes the complete photo object: liked users sorted
// ascending by the requested field, mentioned users in full, the comment page
// in its fixed composite order and the requester-relative hasLiked flag.
func (s *PhotoService) GetPhotoDetails(ctx context.Context, photoID, requesterID string, opts PhotoDetailOptions) (*models.PhotoView, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	likedUsers, err := s.users.GetByIDs(ctx, photo.LikedUsers, opts.LikedSortBy, opts.LikedNb, opts.LikedStartIndex, false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve liked users: %w", err)
	}
	mentionedUsers, err := s.users.GetByIDs(ctx, photo.MentionedUsers, "createTime", nil, 0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mentioned users: %w", err)
	}
	comments, err := s.comments.GetCommentsByPhoto(ctx, photoID, requesterID, opts.CommentNb, opts.CommentStartIndex, opts.ReplyNb)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.CommentView{}
	}
	return &models.PhotoView{
		ReducedPhoto:   models.NewReducedPhotoView(photo.ReducedPhoto, resolveReducedUser(ctx, s.users, photo.Owner)),
		HQSrc:          photo.HQSrc,
		LikedUsers:     reducedAll(likedUsers),
		MentionedUsers: reducedAll(mentionedUsers),
		CommentNb:      photo.CommentNb,
		Comments:       comments,
		HasLiked:       photo.HasLikedBy(requesterID),
	}, nil
}

func reducedAll(users []models.User) []models.ReducedUser {
	reduced := make([]models.ReducedUser, 0, len(users))
	for _, u := range users {
		reduced = append(reduced, u.Reduced())
	}
	return reduced
}

// ListPhotosByTrip returns the trip's photo page from the photos_by_trip
// projection with the uniform sort/filter/pagination contract.
func (s *PhotoService) ListPhotosByTrip(ctx context.Context, tripID string, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]models.ReducedPhotoView, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	}
	rows, err := s.photos.ListByTrip(ctx, tripID, sortKeys, nb, accessLevel, startIndex)
	if err != nil {
		return nil, err
	}
	views := make([]models.ReducedPhotoView, 0, len(rows))
	for _, row := range rows {
		snapshot := reducedFromByTrip(row)
		views = append(views, models.NewReducedPhotoView(snapshot, resolveReducedUser(ctx, s.users, row.Owner)))
	}
	return views, nil
}
