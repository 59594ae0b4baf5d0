package api_test

import (
	"context"
	"errors"
	"testing"

	"kinetic/internal/api"
	"kinetic/internal/catalog"
	"kinetic/internal/services"
	"kinetic/internal/testsupport"
)

type fakeGateway struct{}

func (fakeGateway) GatewayURL(cid string) string { return "https://gw.example/ipfs/" + cid }

type recordingUnpinner struct {
	hashes []string
	err    error
}

func (r *recordingUnpinner) Unpin(_ context.Context, hash string) error {
	r.hashes = append(r.hashes, hash)
	return r.err
}

func TestVideoServiceListAndDescribe(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := api.NewVideoService(store, fakeGateway{}, nil, nil, nil)

	ctx := context.Background()
	created := testsupport.NewVideo(t, store, "Whittling", "0xaa00000000000000000000000000000000000001")

	views, err := svc.List(ctx, catalog.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(views) != 1 || views[0].Title != "Whittling" {
		t.Fatalf("unexpected list: %#v", views)
	}
	if views[0].VideoURL != "https://gw.example/ipfs/"+created.VideoCID {
		t.Fatalf("expected gateway url, got %q", views[0].VideoURL)
	}

	view, err := svc.Describe(ctx, created.ID)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if view.ID != created.ID {
		t.Fatalf("unexpected view: %#v", view)
	}
}

func TestVideoServiceUpdateRequiresOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := api.NewVideoService(store, nil, nil, nil, nil)

	video := testsupport.NewVideo(t, store, "Original", "0xaa00000000000000000000000000000000000001")
	title := "Renamed"

	if _, err := svc.Update(context.Background(), video.ID, api.UpdateVideoRequest{Updates: api.VideoUpdates{Title: &title}}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without owner address, got %v", err)
	}

	view, err := svc.Update(context.Background(), video.ID, api.UpdateVideoRequest{
		OwnerAddress: video.OwnerAddress,
		Updates:      api.VideoUpdates{Title: &title},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if view.Title != "Renamed" {
		t.Fatalf("unexpected title %q", view.Title)
	}
}

func TestVideoServiceDeleteUnpinsBestEffort(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	unpinner := &recordingUnpinner{err: errors.New("pin service down")}
	svc := api.NewVideoService(store, nil, unpinner, nil, nil)

	ctx := context.Background()
	video := testsupport.NewVideo(t, store, "Removable", "0xaa00000000000000000000000000000000000001")

	// unpin failure must not fail the delete
	if err := svc.Delete(ctx, video.ID, video.OwnerAddress); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(unpinner.hashes) != 1 || unpinner.hashes[0] != video.VideoCID {
		t.Fatalf("unexpected unpin calls: %#v", unpinner.hashes)
	}
	if _, err := store.GetVideo(ctx, video.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
}

func TestVideoServiceDeleteUnauthorized(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	unpinner := &recordingUnpinner{}
	svc := api.NewVideoService(store, nil, unpinner, nil, nil)

	video := testsupport.NewVideo(t, store, "Guarded", "0xaa00000000000000000000000000000000000001")

	err := svc.Delete(context.Background(), video.ID, "0xbb00000000000000000000000000000000000002")
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if len(unpinner.hashes) != 0 {
		t.Fatalf("unauthorized delete must not unpin: %#v", unpinner.hashes)
	}
}
