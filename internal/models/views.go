package models

// View types are the composed response objects assembled by the service
// layer: base rows with embedded id-sets resolved into nested objects.

// ReducedPhotoView is a photo snapshot with its owner resolved.
type ReducedPhotoView struct {
	ID          string       `json:"id"`
	TripID      string       `json:"tripId"`
	User        *ReducedUser `json:"user"`
	AccessLevel string       `json:"accessLevel"`
	Status      string       `json:"status"`
	Location    string       `json:"location"`
	Country     string       `json:"country"`
	CreateTime  int64        `json:"createTime"`
	UploadTime  int64        `json:"uploadTime"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	LQSrc       string       `json:"lqSrc"`
	Src         string       `json:"src"`
	LikedNb     int          `json:"likedNb"`
}

// NewReducedPhotoView builds the view from a snapshot and its resolved owner.
func NewReducedPhotoView(p ReducedPhoto, owner *ReducedUser) ReducedPhotoView {
	return ReducedPhotoView{
		ID:          p.ID,
		TripID:      p.TripID,
		User:        owner,
		AccessLevel: p.AccessLevel,
		Status:      p.Status,
		Location:    p.Location,
		Country:     p.Country,
		CreateTime:  p.CreateTime,
		UploadTime:  p.UploadTime,
		Width:       p.Width,
		Height:      p.Height,
		LQSrc:       p.LQSrc,
		Src:         p.Src,
		LikedNb:     p.LikedNb,
	}
}

// PhotoView is the complete photo object: snapshot, full-quality source,
// resolved liked/mentioned users, comments and the requester-relative
// hasLiked flag.
type PhotoView struct {
	ReducedPhoto   ReducedPhotoView `json:"reducedPhoto"`
	HQSrc          string           `json:"hqSrc"`
	LikedUsers     []ReducedUser    `json:"likedUsers"`
	MentionedUsers []ReducedUser    `json:"mentionedUsers"`
	CommentNb      int              `json:"commentNb"`
	Comments       []CommentView    `json:"comments"`
	HasLiked       bool             `json:"hasLiked"`
}

// ReducedTripView is a trip with its member id-set resolved.
type ReducedTripView struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	AccessLevel string            `json:"accessLevel"`
	Status      string            `json:"status"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Users       []ReducedUser     `json:"users"`
	CreateTime  int64             `json:"createTime"`
	BeginTime   int64             `json:"beginTime"`
	EndTime     int64             `json:"endTime"`
	PhotoNb     int               `json:"photoNb"`
	CoverPhoto  *ReducedPhotoView `json:"coverPhoto"`
}

// TripView wraps the reduced trip with its counters.
type TripView struct {
	ReducedTrip ReducedTripView `json:"reducedTrip"`
	LikedNb     int             `json:"likedNb"`
	SharedNb    int             `json:"sharedNb"`
	SavedNb     int             `json:"savedNb"`
}

// ReplyView is a reply with its id, author and overlay merged in.
type ReplyView struct {
	ID         string          `json:"id"`
	User       *ReducedUser    `json:"user"`
	CreateTime int64           `json:"createTime"`
	Content    string          `json:"content"`
	LikedNb    int             `json:"likedNb"`
	Hashtags   []Hashtag       `json:"hashtags"`
	Mentions   []MentionedUser `json:"mentions"`
	HasLiked   bool            `json:"hasLiked"`
}

// CommentView is a comment with its author, reply page and overlay merged in.
type CommentView struct {
	ID         string          `json:"id"`
	CreateTime int64           `json:"createTime"`
	User       *ReducedUser    `json:"user"`
	Content    string          `json:"content"`
	LikedNb    int             `json:"likedNb"`
	ReplyNb    int             `json:"replyNb"`
	Replies    []ReplyView     `json:"replies"`
	Hashtags   []Hashtag       `json:"hashtags"`
	Mentions   []MentionedUser `json:"mentions"`
	HasLiked   bool            `json:"hasLiked"`
}

// RearrangedPhotoView is an album cover entry with the photo owner resolved.
type RearrangedPhotoView struct {
	Photo     ReducedPhotoView `json:"photo"`
	RatioType string           `json:"ratioType"`
}

// AlbumView is an albums_by_user row with cover photos resolved.
type AlbumView struct {
	ID          string                `json:"id"`
	AccessLevel string                `json:"accessLevel"`
	CreateTime  int64                 `json:"createTime"`
	CoverPhotos []RearrangedPhotoView `json:"coverPhotos"`
}

// MentionView is a mentions_by_user row with its photo resolved.
type MentionView struct {
	ID          string           `json:"id"`
	Photo       ReducedPhotoView `json:"photo"`
	AccessLevel string           `json:"accessLevel"`
	CreateTime  int64            `json:"createTime"`
}

// HighlightView is a highlights_by_user row with its cover photo re-resolved
// from the primary photo store.
type HighlightView struct {
	ID          string            `json:"id"`
	AccessLevel string            `json:"accessLevel"`
	CoverPhoto  *ReducedPhotoView `json:"coverPhoto"`
	Description string            `json:"description"`
	CreateTime  int64             `json:"createTime"`
}

// UserView is the complete user object including a follower page.
type UserView struct {
	User
	Followers []ReducedUser `json:"followers"`
}
