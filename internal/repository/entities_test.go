package repository

import (
	"context"
	"testing"

	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/store"
)

func newEntityRepo() *EntityRepository {
	return NewEntityRepository(store.NewMemTable("comment_id", false))
}

func TestGetEntitiesMissingRow(t *testing.T) {
	repo := newEntityRepo()

	entities, err := repo.GetEntities(context.Background(), "missing", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entities.Hashtags == nil || len(entities.Hashtags) != 0 {
		t.Errorf("expected empty hashtags, got %v", entities.Hashtags)
	}
	if entities.Mentions == nil || len(entities.Mentions) != 0 {
		t.Errorf("expected empty mentions, got %v", entities.Mentions)
	}
	if entities.HasLiked {
		t.Error("expected hasLiked=false for missing row")
	}
}

func TestToggleLikeIdempotent(t *testing.T) {
	repo := newEntityRepo()
	ctx := context.Background()

	if err := repo.CreateOverlay(ctx, "c1", nil, nil); err != nil {
		t.Fatalf("CreateOverlay: %v", err)
	}

	changed, err := repo.ToggleLike(ctx, "c1", "u1", true)
	if err != nil || !changed {
		t.Fatalf("first like: changed=%v err=%v", changed, err)
	}
	changed, err = repo.ToggleLike(ctx, "c1", "u1", true)
	if err != nil || changed {
		t.Fatalf("duplicate like must be a no-op: changed=%v err=%v", changed, err)
	}

	entities, err := repo.GetEntities(ctx, "c1", "u1")
	if err != nil {
		t.Fatalf("GetEntities: %v", err)
	}
	if !entities.HasLiked {
		t.Error("expected hasLiked=true for liker")
	}
	entities, err = repo.GetEntities(ctx, "c1", "u2")
	if err != nil {
		t.Fatalf("GetEntities: %v", err)
	}
	if entities.HasLiked {
		t.Error("hasLiked must be requester-relative")
	}

	changed, err = repo.ToggleLike(ctx, "c1", "u1", false)
	if err != nil || !changed {
		t.Fatalf("unlike: changed=%v err=%v", changed, err)
	}
	changed, err = repo.ToggleLike(ctx, "c1", "u1", false)
	if err != nil || changed {
		t.Fatalf("duplicate unlike must be a no-op: changed=%v err=%v", changed, err)
	}
}

func TestToggleLikeMissingRow(t *testing.T) {
	repo := newEntityRepo()
	ctx := context.Background()

	changed, err := repo.ToggleLike(ctx, "c2", "u1", false)
	if err != nil || changed {
		t.Fatalf("unlike on missing row must be a no-op: changed=%v err=%v", changed, err)
	}

	changed, err = repo.ToggleLike(ctx, "c2", "u1", true)
	if err != nil || !changed {
		t.Fatalf("like on missing row must create it: changed=%v err=%v", changed, err)
	}
	entities, err := repo.GetEntities(ctx, "c2", "u1")
	if err != nil {
		t.Fatalf("GetEntities: %v", err)
	}
	if !entities.HasLiked {
		t.Error("expected hasLiked=true after like on fresh row")
	}
}

func TestCreateOverlayStoresSpans(t *testing.T) {
	repo := newEntityRepo()
	ctx := context.Background()

	hashtags := []models.Hashtag{{Name: "sunset", StartIndex: 0, EndIndex: 7}}
	mentions := []models.MentionedUser{{UserID: "u9", UniqueName: "ann", StartIndex: 8, EndIndex: 12}}
	if err := repo.CreateOverlay(ctx, "c3", hashtags, mentions); err != nil {
		t.Fatalf("CreateOverlay: %v", err)
	}

	entities, err := repo.GetEntities(ctx, "c3", "u1")
	if err != nil {
		t.Fatalf("GetEntities: %v", err)
	}
	if len(entities.Hashtags) != 1 || entities.Hashtags[0].Name != "sunset" {
		t.Errorf("unexpected hashtags: %v", entities.Hashtags)
	}
	if len(entities.Mentions) != 1 || entities.Mentions[0].UserID != "u9" {
		t.Errorf("unexpected mentions: %v", entities.Mentions)
	}
}
