package models

import "time"

// Access levels and trip statuses stored on wide-column rows.
const (
	AccessLevelEveryone = "everyone"

	TripStatusEditing   = "editing"
	TripStatusConfirmed = "confirmed"
)

// NowMillis returns the current time as epoch milliseconds, the unit used
// for every create/upload timestamp stored in the wide-column tables.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// User is the relational user record, owned by the user-graph store.
type User struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	UniqueName   string  `json:"uniqueName"`
	AccessLevel  string  `json:"accessLevel"`
	AvatarSrc    string  `json:"avatarSrc"`
	Signature    string  `json:"signature"`
	ProfileLQSrc string  `json:"profileLqSrc"`
	ProfileSrc   string  `json:"profileSrc"`
	CreateTime   int64   `json:"createTime"`
	FollowerNb   int     `json:"followerNb"`
	PushToken    *string `json:"-"`
}

// ReducedUser is the minimal user subset embedded in list responses.
type ReducedUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessLevel string `json:"accessLevel"`
	AvatarSrc   string `json:"avatarSrc"`
}

// Reduced returns the reduced view of the user.
func (u *User) Reduced() ReducedUser {
	return ReducedUser{
		ID:          u.ID,
		Name:        u.Name,
		AccessLevel: u.AccessLevel,
		AvatarSrc:   u.AvatarSrc,
	}
}

// ReducedPhoto is an immutable snapshot of a photo, embedded verbatim into
// parent records (trip cover, albums, mentions, per-trip photo rows) so that
// projection readers never join back to the photo table. An embedded copy may
// go stale relative to the primary Photo row; paths that need live state
// re-resolve by photo id instead of trusting the copy.
type ReducedPhoto struct {
	ID          string `dynamodbav:"photo_id"`
	TripID      string `dynamodbav:"trip_id"`
	Owner       string `dynamodbav:"owner"`
	AccessLevel string `dynamodbav:"access_level"`
	Status      string `dynamodbav:"status"`
	Location    string `dynamodbav:"location"`
	Country     string `dynamodbav:"country"`
	CreateTime  int64  `dynamodbav:"create_time"`
	UploadTime  int64  `dynamodbav:"upload_time"`
	Width       int    `dynamodbav:"width"`
	Height      int    `dynamodbav:"height"`
	LQSrc       string `dynamodbav:"low_quality_src"`
	Src         string `dynamodbav:"src"`
	LikedNb     int    `dynamodbav:"liked_nb"`
}

// Photo is the single-source-of-truth photo record.
type Photo struct {
	ReducedPhoto
	HQSrc          string   `dynamodbav:"high_quality_src"`
	LikedUsers     []string `dynamodbav:"liked_users"`
	MentionedUsers []string `dynamodbav:"mentioned_users"`
	CommentNb      int      `dynamodbav:"comment_nb"`
	Comments       []string `dynamodbav:"comments"`
}

// HasLikedBy reports whether userID is in the photo's liked set.
func (p *Photo) HasLikedBy(userID string) bool {
	for _, id := range p.LikedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Trip is the single-source-of-truth trip record.
type Trip struct {
	ID          string        `dynamodbav:"trip_id"`
	OwnerID     string        `dynamodbav:"owner_id"`
	AccessLevel string        `dynamodbav:"access_level"`
	Status      string        `dynamodbav:"status"`
	Name        string        `dynamodbav:"name"`
	Description string        `dynamodbav:"description"`
	Users       []string      `dynamodbav:"users"`
	CreateTime  int64         `dynamodbav:"create_time"`
	BeginTime   int64         `dynamodbav:"begin_time"`
	EndTime     int64         `dynamodbav:"end_time"`
	PhotoNb     int           `dynamodbav:"photo_nb"`
	CoverPhoto  *ReducedPhoto `dynamodbav:"cover_photo"`
	LikedNb     int           `dynamodbav:"liked_nb"`
	SharedNb    int           `dynamodbav:"shared_nb"`
	SavedNb     int           `dynamodbav:"saved_nb"`
}

// HasUser reports whether userID is a member of the trip.
func (t *Trip) HasUser(userID string) bool {
	for _, id := range t.Users {
		if id == userID {
			return true
		}
	}
	return false
}

// TripByUser is the trips_by_user projection row, keyed by
// (user_id, create_time, trip_id) for descending-time range scans.
// CoverPhotoID holds only the photo id; readers re-resolve the live photo.
type TripByUser struct {
	UserID       string   `dynamodbav:"user_id"`
	CreateTime   int64    `dynamodbav:"create_time"`
	TripID       string   `dynamodbav:"trip_id"`
	OwnerID      string   `dynamodbav:"owner_id"`
	AccessLevel  string   `dynamodbav:"access_level"`
	Status       string   `dynamodbav:"status"`
	Name         string   `dynamodbav:"name"`
	Description  string   `dynamodbav:"description"`
	Users        []string `dynamodbav:"users"`
	BeginTime    int64    `dynamodbav:"begin_time"`
	EndTime      int64    `dynamodbav:"end_time"`
	PhotoNb      int      `dynamodbav:"photo_nb"`
	CoverPhotoID string   `dynamodbav:"cover_photo"`
}

// PhotoByTrip is the photos_by_trip projection row, keyed by
// (trip_id, create_time, photo_id). Snapshot fields are frozen at write time
// except access_level and liked_nb, which write paths keep in sync.
type PhotoByTrip struct {
	TripID      string `dynamodbav:"trip_id"`
	CreateTime  int64  `dynamodbav:"create_time"`
	PhotoID     string `dynamodbav:"photo_id"`
	Owner       string `dynamodbav:"owner"`
	AccessLevel string `dynamodbav:"access_level"`
	Status      string `dynamodbav:"status"`
	Location    string `dynamodbav:"location"`
	Country     string `dynamodbav:"country"`
	UploadTime  int64  `dynamodbav:"upload_time"`
	Width       int    `dynamodbav:"width"`
	Height      int    `dynamodbav:"height"`
	LQSrc       string `dynamodbav:"low_quality_src"`
	Src         string `dynamodbav:"src"`
	LikedNb     int    `dynamodbav:"liked_nb"`
}

// RearrangedPhoto pairs a photo snapshot with its display ratio inside an
// album cover.
type RearrangedPhoto struct {
	Photo     ReducedPhoto `dynamodbav:"photo"`
	RatioType string       `dynamodbav:"ratio_type"`
}

// AlbumByUser is the albums_by_user projection row.
type AlbumByUser struct {
	UserID      string            `dynamodbav:"user_id"`
	CreateTime  int64             `dynamodbav:"create_time"`
	AlbumID     string            `dynamodbav:"album_id"`
	AccessLevel string            `dynamodbav:"access_level"`
	CoverPhotos []RearrangedPhoto `dynamodbav:"cover_photos"`
}

// MentionByUser is the mentions_by_user projection row.
type MentionByUser struct {
	UserID      string       `dynamodbav:"user_id"`
	CreateTime  int64        `dynamodbav:"create_time"`
	MentionID   string       `dynamodbav:"mention_id"`
	AccessLevel string       `dynamodbav:"access_level"`
	Photo       ReducedPhoto `dynamodbav:"photo"`
}

// HighlightByUser is the highlights_by_user projection row. CoverPhotoID is
// re-resolved against the photo table at read time.
type HighlightByUser struct {
	UserID       string `dynamodbav:"user_id"`
	CreateTime   int64  `dynamodbav:"create_time"`
	HighlightID  string `dynamodbav:"highlight_id"`
	AccessLevel  string `dynamodbav:"access_level"`
	CoverPhotoID string `dynamodbav:"cover_photo"`
	Description  string `dynamodbav:"description"`
}
