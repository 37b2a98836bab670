package models

// Hashtag is a tagged span inside a comment or reply body.
type Hashtag struct {
	Name       string `dynamodbav:"name" json:"name"`
	StartIndex int    `dynamodbav:"start_index" json:"startIndex"`
	EndIndex   int    `dynamodbav:"end_index" json:"endIndex"`
}

// MentionedUser is a user mention span inside a comment or reply body.
type MentionedUser struct {
	UserID     string `dynamodbav:"user_id" json:"userId"`
	UniqueName string `dynamodbav:"user_unique_name" json:"uniqueName"`
	StartIndex int    `dynamodbav:"start_index" json:"startIndex"`
	EndIndex   int    `dynamodbav:"end_index" json:"endIndex"`
}

// Reply has no primary store of its own: it lives embedded inside its parent
// comment's reply map, in both the comment table and the comments_by_photo
// projection. Every reply mutation must hit both copies.
type Reply struct {
	User       string `dynamodbav:"user"`
	CreateTime int64  `dynamodbav:"create_time"`
	Content    string `dynamodbav:"content"`
	LikedNb    int    `dynamodbav:"liked_nb"`
}

// Comment is the single-source-of-truth comment record.
type Comment struct {
	ID         string           `dynamodbav:"comment_id"`
	CreateTime int64            `dynamodbav:"create_time"`
	User       string           `dynamodbav:"user"`
	Content    string           `dynamodbav:"content"`
	LikedNb    int              `dynamodbav:"liked_nb"`
	ReplyNb    int              `dynamodbav:"reply_nb"`
	Replies    map[string]Reply `dynamodbav:"replies"`
}

// CommentByPhoto is the comments_by_photo projection row, keyed by
// (photo_id, comment_id), carrying a full copy of the comment including its
// reply map.
type CommentByPhoto struct {
	PhotoID    string           `dynamodbav:"photo_id"`
	CommentID  string           `dynamodbav:"comment_id"`
	CreateTime int64            `dynamodbav:"create_time"`
	User       string           `dynamodbav:"user"`
	Content    string           `dynamodbav:"content"`
	LikedNb    int              `dynamodbav:"liked_nb"`
	ReplyNb    int              `dynamodbav:"reply_nb"`
	Replies    map[string]Reply `dynamodbav:"replies"`
}

// Entities is the per-comment/reply overlay merged onto base records at read
// time. HasLiked is requester-relative and is never persisted or cached
// across users; only the like-set is stored.
type Entities struct {
	Hashtags []Hashtag       `json:"hashtags"`
	Mentions []MentionedUser `json:"mentions"`
	HasLiked bool            `json:"hasLiked"`
}

// EmptyEntities is the defaults value returned when no overlay row exists.
func EmptyEntities() Entities {
	return Entities{
		Hashtags: []Hashtag{},
		Mentions: []MentionedUser{},
	}
}

// EntitiesByComment is the persisted overlay row, keyed by comment/reply id.
type EntitiesByComment struct {
	CommentID      string          `dynamodbav:"comment_id"`
	Hashtags       []Hashtag       `dynamodbav:"hashtags"`
	MentionedUsers []MentionedUser `dynamodbav:"mentioned_users"`
	Likes          []string        `dynamodbav:"likes"`
}

// HasLike reports whether userID is in the overlay's like set.
func (e *EntitiesByComment) HasLike(userID string) bool {
	for _, id := range e.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
