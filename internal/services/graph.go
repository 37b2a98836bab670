package services

import (
	"context"

	"github.com/yyyyyan/wonderline-server/internal/models"
)

// UserGraph is the slice of the relational user store the wide-column
// services need to resolve embedded user-id sets into user objects.
type UserGraph interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string, sortBy string, nb *int, startIndex int, descending bool) ([]models.User, error)
	PushToken(ctx context.Context, userID string) (*string, error)
}

// resolveReducedUser resolves one user id into its reduced view; a missing
// user yields nil rather than failing the whole composition.
func resolveReducedUser(ctx context.Context, graph UserGraph, userID string) *models.ReducedUser {
	user, err := graph.GetByID(ctx, userID)
	if err != nil {
		return nil
	}
	reduced := user.Reduced()
	return &reduced
}

// resolveReducedUsers resolves an id set in its stored order.
func resolveReducedUsers(ctx context.Context, graph UserGraph, ids []string) []models.ReducedUser {
	users := make([]models.ReducedUser, 0, len(ids))
	for _, id := range ids {
		if reduced := resolveReducedUser(ctx, graph, id); reduced != nil {
			users = append(users, *reduced)
		}
	}
	return users
}
