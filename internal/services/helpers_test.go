package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sort"
	"testing"

	"github.com/yyyyyan/wonderline-server/internal/apperr"
	"github.com/yyyyyan/wonderline-server/internal/models"
	"github.com/yyyyyan/wonderline-server/internal/repository"
	"github.com/yyyyyan/wonderline-server/internal/store"
)

// stubGraph is an in-memory UserGraph for service tests.
type stubGraph struct {
	users map[string]models.User
}

func newStubGraph(ids ...string) *stubGraph {
	g := &stubGraph{users: make(map[string]models.User)}
	for i, id := range ids {
		g.users[id] = models.User{
			ID:          id,
			Name:        "user-" + id,
			UniqueName:  id,
			AccessLevel: models.AccessLevelEveryone,
			CreateTime:  int64(1000 * (i + 1)),
		}
	}
	return g
}

func (g *stubGraph) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := g.users[id]
	if !ok {
		return nil, apperr.NotFound("User", id)
	}
	return &user, nil
}

func (g *stubGraph) GetByIDs(_ context.Context, ids []string, _ string, nb *int, startIndex int, _ bool) ([]models.User, error) {
	var users []models.User
	for _, id := range ids {
		if user, ok := g.users[id]; ok {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreateTime < users[j].CreateTime })
	if startIndex >= len(users) {
		return nil, nil
	}
	users = users[startIndex:]
	if nb != nil && *nb < len(users) {
		users = users[:*nb]
	}
	return users, nil
}

func (g *stubGraph) PushToken(_ context.Context, _ string) (*string, error) {
	return nil, nil
}

// fakeBlobs is an in-memory BlobStore for service tests.
type fakeBlobs struct {
	objects map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	b.objects[key] = data
	return "blob://" + key, nil
}

func (b *fakeBlobs) Delete(_ context.Context, url string) error {
	delete(b.objects, url[len("blob://"):])
	return nil
}

func (b *fakeBlobs) Exists(_ context.Context, key string) (bool, error) {
	_, ok := b.objects[key]
	return ok, nil
}

// testImage encodes a small PNG usable by upload tests.
func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// testEnv bundles the repositories and services over in-memory tables.
type testEnv struct {
	graph      *stubGraph
	blobs      *fakeBlobs
	trips      *repository.TripRepository
	photos     *repository.PhotoRepository
	comments   *repository.CommentRepository
	entities   *repository.EntityRepository
	mentions   *repository.MentionRepository
	tripSvc    *TripService
	photoSvc   *PhotoService
	commentSvc *CommentService
}

func newTestEnv(userIDs ...string) *testEnv {
	graph := newStubGraph(userIDs...)
	blobs := newFakeBlobs()
	trips := repository.NewTripRepository(
		store.NewMemTable("trip_id", false), store.NewMemTable("user_id", true))
	photos := repository.NewPhotoRepository(
		store.NewMemTable("photo_id", false), store.NewMemTable("trip_id", true))
	comments := repository.NewCommentRepository(
		store.NewMemTable("comment_id", false), store.NewMemTable("photo_id", true))
	entities := repository.NewEntityRepository(store.NewMemTable("comment_id", false))
	mentions := repository.NewMentionRepository(store.NewMemTable("user_id", true))

	tripSvc := NewTripService(trips, photos, graph)
	commentSvc := NewCommentService(comments, entities, photos, graph, nil)
	photoSvc := NewPhotoService(photos, trips, mentions, commentSvc, graph, blobs, tripSvc, nil)

	return &testEnv{
		graph:      graph,
		blobs:      blobs,
		trips:      trips,
		photos:     photos,
		comments:   comments,
		entities:   entities,
		mentions:   mentions,
		tripSvc:    tripSvc,
		photoSvc:   photoSvc,
		commentSvc: commentSvc,
	}
}
