package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/yyyyyan/wonderline-server/internal/apperr"
	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	jwtExpDays = 365
	saltBytes  = 16
)

// UserService handles user accounts, authentication tokens and the per-user
// collection projections (albums, mentions, highlights).
type UserService struct {
	users      *repository.UserRepository
	albums     *repository.AlbumRepository
	mentions   *repository.MentionRepository
	highlights *repository.HighlightRepository
	photos     *repository.PhotoRepository
	jwtSecret  string
}

// NewUserService creates a new user service.
func NewUserService(
	users *repository.UserRepository,
	albums *repository.AlbumRepository,
	mentions *repository.MentionRepository,
	highlights *repository.HighlightRepository,
	photos *repository.PhotoRepository,
	jwtSecret string,
) *UserService {
	return &UserService{
		users:      users,
		albums:     albums,
		mentions:   mentions,
		highlights: highlights,
		photos:     photos,
		jwtSecret:  jwtSecret,
	}
}

// Graph exposes the user store for services that resolve embedded id sets.
func (s *UserService) Graph() UserGraph {
	return s.users
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

func newSalt() (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

func hashPassword(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

// SignUp registers a new account and returns the user with a fresh token.
func (s *UserService) SignUp(ctx context.Context, email, password, name, uniqueName string) (*models.User, string, error) {
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", apperr.Conflict(fmt.Sprintf("email %s is already registered", email))
	}
	salt, err := newSalt()
	if err != nil {
		return nil, "", err
	}
	user := &models.User{
		ID:          uuid.New().String(),
		Name:        name,
		UniqueName:  uniqueName,
		AccessLevel: models.AccessLevelEveryone,
		CreateTime:  models.NowMillis(),
	}
	if err := s.users.Create(ctx, user, email, hashPassword(salt, password), salt); err != nil {
		return nil, "", err
	}
	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// SignIn verifies the credentials and returns the user with a fresh token.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	user, hash, salt, err := s.users.GetCredentials(ctx, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, "", apperr.Unauthorized("invalid email or password")
		}
		return nil, "", err
	}
	computed := hashPassword(salt, password)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) != 1 {
		return nil, "", apperr.Unauthorized("invalid email or password")
	}
	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// SignOut clears the user's registered device token so push notifications
// stop for the signed-out device.
func (s *UserService) SignOut(ctx context.Context, userID string) error {
	return s.users.UpdatePushToken(ctx, userID, nil)
}

// RegisterPushToken stores the user's APNs device token.
func (s *UserService) RegisterPushToken(ctx context.Context, userID, token string) error {
	return s.users.UpdatePushToken(ctx, userID, &token)
}

// GetUserCompleteAttributes returns the user with a bounded follower page.
func (s *UserService) GetUserCompleteAttributes(ctx context.Context, userID, followerSortBy string, followerNb *int, startIndex int) (*models.UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.GetFollowers(ctx, userID, followerSortBy, followerNb, startIndex)
	if err != nil {
		return nil, err
	}
	return &models.UserView{User: *user, Followers: followers}, nil
}

// GetFollowers returns the reduced follower page of the user.
func (s *UserService) GetFollowers(ctx context.Context, userID, sortBy string, nb *int, startIndex int) ([]models.ReducedUser, error) {
	followers, err := s.users.GetFollowers(ctx, userID, sortBy, nb, startIndex)
	if err != nil {
		return nil, err
	}
	return reducedAll(followers), nil
}

// SearchUsers finds users by display or unique name.
func (s *UserService) SearchUsers(ctx context.Context, query, sortBy string, nb *int, startIndex int) ([]models.ReducedUser, error) {
	users, err := s.users.SearchByName(ctx, query, sortBy, nb, startIndex)
	if err != nil {
		return nil, err
	}
	return reducedAll(users), nil
}

// GetUserAlbums returns the user's album page with cover photo owners
// resolved.
func (s *UserService) GetUserAlbums(ctx context.Context, userID string, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]models.AlbumView, error) {
	rows, err := s.albums.ListByUser(ctx, userID, sortKeys, nb, accessLevel, startIndex)
	if err != nil {
		return nil, err
	}
	views := make([]models.AlbumView, 0, len(rows))
	for _, row := range rows {
		covers := make([]models.RearrangedPhotoView, 0, len(row.CoverPhotos))
		for _, cover := range row.CoverPhotos {
			covers = append(covers, models.RearrangedPhotoView{
				Photo:     models.NewReducedPhotoView(cover.Photo, resolveReducedUser(ctx, s.users, cover.Photo.Owner)),
				RatioType: cover.RatioType,
			})
		}
		views = append(views, models.AlbumView{
			ID:          row.AlbumID,
			AccessLevel: row.AccessLevel,
			CreateTime:  row.CreateTime,
			CoverPhotos: covers,
		})
	}
	return views, nil
}

// GetUserMentions returns the user's mention page with photo owners resolved.
func (s *UserService) GetUserMentions(ctx context.Context, userID string, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]models.MentionView, error) {
	rows, err := s.mentions.ListByUser(ctx, userID, sortKeys, nb, accessLevel, startIndex)
	if err != nil {
		return nil, err
	}
	views := make([]models.MentionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, models.MentionView{
			ID:          row.MentionID,
			Photo:       models.NewReducedPhotoView(row.Photo, resolveReducedUser(ctx, s.users, row.Photo.Owner)),
			AccessLevel: row.AccessLevel,
			CreateTime:  row.CreateTime,
		})
	}
	return views, nil
}

// GetUserHighlights returns the user's highlight page. The cover photo id is
// re-resolved against the live photo record; a vanished photo leaves the
// cover empty.
func (s *UserService) GetUserHighlights(ctx context.Context, userID string, sortKeys []string, nb *int, accessLevel string, startIndex int) ([]models.HighlightView, error) {
	rows, err := s.highlights.ListByUser(ctx, userID, sortKeys, nb, accessLevel, startIndex)
	if err != nil {
		return nil, err
	}
	views := make([]models.HighlightView, 0, len(rows))
	for _, row := range rows {
		var cover *models.ReducedPhotoView
		if row.CoverPhotoID != "" {
			photo, err := s.photos.GetByID(ctx, row.CoverPhotoID)
			if err == nil {
				view := models.NewReducedPhotoView(photo.ReducedPhoto, resolveReducedUser(ctx, s.users, photo.Owner))
				cover = &view
			} else if !apperr.IsNotFound(err) {
				log.Warn().Err(err).Str("photo_id", row.CoverPhotoID).Msg("Failed to resolve highlight cover")
			}
		}
		views = append(views, models.HighlightView{
			ID:          row.HighlightID,
			AccessLevel: row.AccessLevel,
			CoverPhoto:  cover,
			Description: row.Description,
			CreateTime:  row.CreateTime,
		})
	}
	return views, nil
}
