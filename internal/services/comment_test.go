package services

import (
	"context"
	"testing"

	"github.com/yyyyyan/wonderline-server/internal/apperr"
	"github.com/yyyyyan/wonderline-server/internal/models"
)

func uploadTestPhoto(t *testing.T, env *testEnv, ownerID string) string {
	t.Helper()
	tripID := createTestTrip(t, env, ownerID, nil)
	photos, err := env.photoSvc.UploadPhotos(context.Background(), tripID, ownerID, []PhotoUpload{{Data: testImage(t)}})
	if err != nil {
		t.Fatalf("UploadPhotos: %v", err)
	}
	return photos[0].ID
}

func TestAddCommentUpdatesBothCopiesAndCounters(t *testing.T) {
	env := newTestEnv("owner", "fan")
	ctx := context.Background()
	photoID := uploadTestPhoto(t, env, "owner")

	view, err := env.commentSvc.AddComment(ctx, photoID, "fan", "nice shot", nil, nil)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	if _, err := env.comments.GetByID(ctx, view.ID); err != nil {
		t.Errorf("primary comment record missing: %v", err)
	}
	row, err := env.comments.GetByPhoto(ctx, photoID, view.ID)
	if err != nil {
		t.Fatalf("projection copy missing: %v", err)
	}
	if row.Content != "nice shot" || row.User != "fan" {
		t.Errorf("projection copy out of step: %+v", row)
	}

	photo, err := env.photos.GetByID(ctx, photoID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if photo.CommentNb != 1 || len(photo.Comments) != 1 || photo.Comments[0] != view.ID {
		t.Errorf("photo counters not updated: commentNb=%d comments=%v", photo.CommentNb, photo.Comments)
	}
}

func TestGetCommentsCompositeOrdering(t *testing.T) {
	env := newTestEnv("owner")
	ctx := context.Background()
	photoID := uploadTestPhoto(t, env, "owner")

	seed := []models.Comment{
		{ID: "a", CreateTime: 1, User: "owner", LikedNb: 2, ReplyNb: 0},
		{ID: "b", CreateTime: 9, User: "owner", LikedNb: 1, ReplyNb: 5},
		{ID: "c", CreateTime: 0, User: "owner", LikedNb: 2, ReplyNb: 1},
		{ID: "d", CreateTime: 10, User: "owner", LikedNb: 1, ReplyNb: 5},
	}
	for i := range seed {
		if err := env.comments.Create(ctx, photoID, &seed[i]); err != nil {
			t.Fatalf("Create(%s): %v", seed[i].ID, err)
		}
	}

	views, err := env.commentSvc.GetCommentsByPhoto(ctx, photoID, "owner", nil, 0, nil)
	if err != nil {
		t.Fatalf("GetCommentsByPhoto: %v", err)
	}
	var got []string
	for _, v := range views {
		got = append(got, v.ID)
	}
	// likedNb desc, then replyNb desc, then createTime desc.
	want := []string{"c", "a", "d", "b"}
	if len(got) != len(want) {
		t.Fatalf("expected %d comments, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v, want %v", got, want)
		}
	}
}

func TestAddReplyKeepsBothCopiesInStep(t *testing.T) {
	env := newTestEnv("owner", "fan")
	ctx := context.Background()
	photoID := uploadTestPhoto(t, env, "owner")

	comment, err := env.commentSvc.AddComment(ctx, photoID, "owner", "first", nil, nil)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	reply, err := env.commentSvc.AddReply(ctx, photoID, comment.ID, "fan", "me too", nil, nil)
	if err != nil {
		t.Fatalf("AddReply: %v", err)
	}

	primary, err := env.comments.GetByID(ctx, comment.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if primary.ReplyNb != 1 {
		t.Errorf("primary replyNb=%d, want 1", primary.ReplyNb)
	}
	if _, ok := primary.Replies[reply.ID]; !ok {
		t.Error("reply missing from the primary reply map")
	}

	row, err := env.comments.GetByPhoto(ctx, photoID, comment.ID)
	if err != nil {
		t.Fatalf("GetByPhoto: %v", err)
	}
	if row.ReplyNb != 1 {
		t.Errorf("projection replyNb=%d, want 1", row.ReplyNb)
	}
	if projected, ok := row.Replies[reply.ID]; !ok || projected.Content != "me too" {
		t.Errorf("reply missing or stale in the projection copy: %+v", row.Replies)
	}
}

func TestLikeCommentIdempotent(t *testing.T) {
	env := newTestEnv("owner", "fan")
	ctx := context.Background()
	photoID := uploadTestPhoto(t, env, "owner")

	comment, err := env.commentSvc.AddComment(ctx, photoID, "owner", "first", nil, nil)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := env.commentSvc.LikeComment(ctx, photoID, comment.ID, "fan", true); err != nil {
			t.Fatalf("LikeComment: %v", err)
		}
	}
	primary, _ := env.comments.GetByID(ctx, comment.ID)
	row, _ := env.comments.GetByPhoto(ctx, photoID, comment.ID)
	if primary.LikedNb != 1 || row.LikedNb != 1 {
		t.Errorf("duplicate like must not double-count: primary=%d projection=%d", primary.LikedNb, row.LikedNb)
	}

	// HasLiked is relative to the requester.
	views, err := env.commentSvc.GetCommentsByPhoto(ctx, photoID, "fan", nil, 0, nil)
	if err != nil || len(views) != 1 {
		t.Fatalf("GetCommentsByPhoto: views=%d err=%v", len(views), err)
	}
	if !views[0].HasLiked {
		t.Error("requester's own like must be reflected")
	}
	views, _ = env.commentSvc.GetCommentsByPhoto(ctx, photoID, "owner", nil, 0, nil)
	if views[0].HasLiked {
		t.Error("another requester must not inherit the like")
	}

	if err := env.commentSvc.LikeComment(ctx, photoID, comment.ID, "fan", false); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	primary, _ = env.comments.GetByID(ctx, comment.ID)
	if primary.LikedNb != 0 {
		t.Errorf("unlike not applied, likedNb=%d", primary.LikedNb)
	}
}

func TestLikeReplyAdjustsBothReplyMaps(t *testing.T) {
	env := newTestEnv("owner", "fan")
	ctx := context.Background()
	photoID := uploadTestPhoto(t, env, "owner")

	comment, err := env.commentSvc.AddComment(ctx, photoID, "owner", "first", nil, nil)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	reply, err := env.commentSvc.AddReply(ctx, photoID, comment.ID, "owner", "again", nil, nil)
	if err != nil {
		t.Fatalf("AddReply: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := env.commentSvc.LikeReply(ctx, photoID, comment.ID, reply.ID, "fan", true); err != nil {
			t.Fatalf("LikeReply: %v", err)
		}
	}

	primary, _ := env.comments.GetByID(ctx, comment.ID)
	row, _ := env.comments.GetByPhoto(ctx, photoID, comment.ID)
	if primary.Replies[reply.ID].LikedNb != 1 {
		t.Errorf("primary reply likedNb=%d, want 1", primary.Replies[reply.ID].LikedNb)
	}
	if row.Replies[reply.ID].LikedNb != 1 {
		t.Errorf("projection reply likedNb=%d, want 1", row.Replies[reply.ID].LikedNb)
	}
}

func TestLikeReplyUnknownReplyLeavesNoOverlay(t *testing.T) {
	env := newTestEnv("owner", "fan")
	ctx := context.Background()
	photoID := uploadTestPhoto(t, env, "owner")

	comment, err := env.commentSvc.AddComment(ctx, photoID, "owner", "first", nil, nil)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	err = env.commentSvc.LikeReply(ctx, photoID, comment.ID, "no-such-reply", "fan", true)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	// The failed like must not have persisted anything in the overlay store.
	entities, err := env.entities.GetEntities(ctx, "no-such-reply", "fan")
	if err != nil {
		t.Fatalf("GetEntities: %v", err)
	}
	if entities.HasLiked {
		t.Error("like on a nonexistent reply must not persist an overlay mutation")
	}
}

func TestGetRepliesNewestFirst(t *testing.T) {
	env := newTestEnv("owner")
	ctx := context.Background()
	photoID := uploadTestPhoto(t, env, "owner")

	comment, err := env.commentSvc.AddComment(ctx, photoID, "owner", "first", nil, nil)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	for _, r := range []struct {
		id string
		ts int64
	}{{"r2", 2000}, {"r1", 1000}, {"r3", 3000}} {
		err := env.comments.AddReply(ctx, photoID, comment.ID, r.id, models.Reply{
			User: "owner", CreateTime: r.ts, Content: r.id,
		})
		if err != nil {
			t.Fatalf("AddReply(%s): %v", r.id, err)
		}
	}

	nb := 2
	replies, err := env.commentSvc.GetRepliesByComment(ctx, comment.ID, "owner", &nb, 0)
	if err != nil {
		t.Fatalf("GetRepliesByComment: %v", err)
	}
	if len(replies) != 2 || replies[0].ID != "r3" || replies[1].ID != "r2" {
		t.Fatalf("expected newest-first page [r3 r2], got %+v", replies)
	}

	// The reply page embedded in a comment view honors the same order and
	// bound.
	one := 1
	views, err := env.commentSvc.GetCommentsByPhoto(ctx, photoID, "owner", nil, 0, &one)
	if err != nil || len(views) != 1 {
		t.Fatalf("GetCommentsByPhoto: views=%d err=%v", len(views), err)
	}
	if len(views[0].Replies) != 1 || views[0].Replies[0].ID != "r3" {
		t.Errorf("embedded reply page out of bound or order: %+v", views[0].Replies)
	}
}
