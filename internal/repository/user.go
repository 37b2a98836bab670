package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/yyyyyan/wonderline-server/internal/apperr"
	"github.com/yyyyyan/wonderline-server/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the user repository needs; pgxmock
// satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository is the relational user/follow graph store.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, unique_name, access_level, avatar_src, signature, profile_lq_src, profile_src, create_time, follower_nb, push_token`

// userSortColumns whitelists the sortable columns; anything else falls back
// to create_time.
var userSortColumns = map[string]string{
	"createTime": "create_time",
	"name":       "name",
	"nickName":   "name",
	"uniqueName": "unique_name",
	"followerNb": "follower_nb",
}

func userSortColumn(sortBy string) string {
	if col, ok := userSortColumns[sortBy]; ok {
		return col
	}
	return "create_time"
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Name, &user.UniqueName, &user.AccessLevel, &user.AvatarSrc,
		&user.Signature, &user.ProfileLQSrc, &user.ProfileSrc, &user.CreateTime,
		&user.FollowerNb, &user.PushToken,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]models.User, error) {
	defer rows.Close()
	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID, &user.Name, &user.UniqueName, &user.AccessLevel, &user.AvatarSrc,
			&user.Signature, &user.ProfileLQSrc, &user.ProfileSrc, &user.CreateTime,
			&user.FollowerNb, &user.PushToken,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Create inserts a new user with credentials.
func (r *UserRepository) Create(ctx context.Context, user *models.User, email, passwordHash, salt string) error {
	query := `
		INSERT INTO users (id, email, password_hash, salt, name, unique_name, access_level,
			avatar_src, signature, profile_lq_src, profile_src, create_time, follower_nb)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, email, passwordHash, salt, user.Name, user.UniqueName, user.AccessLevel,
		user.AvatarSrc, user.Signature, user.ProfileLQSrc, user.ProfileSrc,
		user.CreateTime, user.FollowerNb,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// EmailExists checks whether the email is already registered.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("User", id)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// GetCredentials returns the user row plus stored password hash and salt
// for the given email.
func (r *UserRepository) GetCredentials(ctx context.Context, email string) (*models.User, string, string, error) {
	query := `SELECT ` + userColumns + `, password_hash, salt FROM users WHERE email = $1`
	var user models.User
	var hash, salt string
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.UniqueName, &user.AccessLevel, &user.AvatarSrc,
		&user.Signature, &user.ProfileLQSrc, &user.ProfileSrc, &user.CreateTime,
		&user.FollowerNb, &user.PushToken, &hash, &salt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", "", apperr.NotFound("User", email)
		}
		return nil, "", "", fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, hash, salt, nil
}

// GetByIDs retrieves users by an id-list with sort and pagination. A nil nb
// means unbounded.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string, sortBy string, nb *int, startIndex int, descending bool) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	limit := "ALL"
	if nb != nil {
		limit = fmt.Sprintf("%d", *nb)
	}
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE id = ANY($1) ORDER BY %s %s LIMIT %s OFFSET $2`,
		userColumns, userSortColumn(sortBy), direction, limit,
	)
	rows, err := r.db.Query(ctx, query, ids, startIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}
	return scanUsers(rows)
}

// GetFollowers returns the page of users following the given user.
func (r *UserRepository) GetFollowers(ctx context.Context, userID string, sortBy string, nb *int, startIndex int) ([]models.User, error) {
	limit := "ALL"
	if nb != nil {
		limit = fmt.Sprintf("%d", *nb)
	}
	query := fmt.Sprintf(`
		SELECT %s FROM users u
		JOIN follows f ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY u.%s DESC LIMIT %s OFFSET $2`,
		userColumns, userSortColumn(sortBy), limit,
	)
	rows, err := r.db.Query(ctx, query, userID, startIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers for %s: %w", userID, err)
	}
	return scanUsers(rows)
}

// SearchByName finds users whose display or unique name contains the query.
func (r *UserRepository) SearchByName(ctx context.Context, query string, sortBy string, nb *int, startIndex int) ([]models.User, error) {
	limit := "ALL"
	if nb != nil {
		limit = fmt.Sprintf("%d", *nb)
	}
	pattern := "%" + strings.TrimSpace(query) + "%"
	sql := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE name ILIKE $1 OR unique_name ILIKE $1
		ORDER BY %s DESC LIMIT %s OFFSET $2`,
		userColumns, userSortColumn(sortBy), limit,
	)
	rows, err := r.db.Query(ctx, sql, pattern, startIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return scanUsers(rows)
}

// PushToken returns the APNs device token registered for the user, if any.
func (r *UserRepository) PushToken(ctx context.Context, userID string) (*string, error) {
	var token *string
	err := r.db.QueryRow(ctx, `SELECT push_token FROM users WHERE id = $1`, userID).Scan(&token)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("User", userID)
		}
		return nil, fmt.Errorf("failed to get push token for %s: %w", userID, err)
	}
	return token, nil
}

// UpdatePushToken registers or clears the user's APNs device token.
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET push_token = $1 WHERE id = $2`, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}
