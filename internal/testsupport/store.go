package testsupport

import (
	"context"
	"testing"

	"kinetic/internal/catalog"
	"kinetic/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewVideo publishes a video record for tests using the provided store.
func NewVideo(t testing.TB, store *catalog.Store, title, owner string) *catalog.Video {
	t.Helper()

	video, err := store.CreateVideo(context.Background(), catalog.NewVideo{
		Title:         title,
		SkillCategory: "Craftsmanship",
		VideoCID:      "bafy-" + title,
		OwnerAddress:  owner,
	})
	if err != nil {
		t.Fatalf("store.CreateVideo: %v", err)
	}
	return video
}
