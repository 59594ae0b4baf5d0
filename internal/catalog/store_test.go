package catalog_test

import (
	"context"
	"errors"
	"testing"

	"kinetic/internal/catalog"
	"kinetic/internal/services"
	"kinetic/internal/testsupport"
)

func TestCreateAndGetVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	created, err := store.CreateVideo(ctx, catalog.NewVideo{
		Title:           "Hand Plane Basics",
		Description:     "Flattening a board by hand",
		SkillCategory:   "Craftsmanship",
		VideoCID:        "bafy-video-1",
		ThumbnailCID:    "bafy-thumb-1",
		OwnerAddress:    "0xABCDEF0000000000000000000000000000000001",
		IsVerifiedHuman: true,
	})
	if err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected video ID to be assigned")
	}
	if created.OwnerAddress != "0xabcdef0000000000000000000000000000000001" {
		t.Fatalf("expected lowercased owner address, got %q", created.OwnerAddress)
	}

	fetched, err := store.GetVideo(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if fetched.Title != "Hand Plane Basics" || fetched.ThumbnailCID != "bafy-thumb-1" {
		t.Fatalf("unexpected fetched video: %#v", fetched)
	}
	if !fetched.IsVerifiedHuman {
		t.Fatal("expected verified flag to persist")
	}
	if fetched.TokenID != nil {
		t.Fatalf("expected nil token id before mint, got %v", *fetched.TokenID)
	}
}

func TestCreateVideoValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name   string
		params catalog.NewVideo
	}{
		{"missing title", catalog.NewVideo{SkillCategory: "Other", VideoCID: "cid", OwnerAddress: "0xaa"}},
		{"unknown category", catalog.NewVideo{Title: "t", SkillCategory: "Juggling", VideoCID: "cid", OwnerAddress: "0xaa"}},
		{"missing cid", catalog.NewVideo{Title: "t", SkillCategory: "Other", OwnerAddress: "0xaa"}},
		{"missing owner", catalog.NewVideo{Title: "t", SkillCategory: "Other", VideoCID: "cid"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.CreateVideo(ctx, tc.params)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateVideoAutoCreatesAccount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	owner := "0xAA00000000000000000000000000000000000001"
	testsupport.NewVideo(t, store, "First", owner)
	testsupport.NewVideo(t, store, "Second", owner)

	account, err := store.GetAccount(ctx, owner)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account.WalletAddress != "0xaa00000000000000000000000000000000000001" {
		t.Fatalf("unexpected account address %q", account.WalletAddress)
	}
}

func TestListVideosFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	mustCreate := func(title, description, category, owner string) {
		t.Helper()
		if _, err := store.CreateVideo(ctx, catalog.NewVideo{
			Title:         title,
			Description:   description,
			SkillCategory: category,
			VideoCID:      "bafy-" + title,
			OwnerAddress:  owner,
		}); err != nil {
			t.Fatalf("CreateVideo(%s) failed: %v", title, err)
		}
	}
	mustCreate("Dovetail Joints", "cutting pins and tails", "Craftsmanship", "0xaa")
	mustCreate("Pallet Stacking", "warehouse forklift work", "Heavy Lifting", "0xbb")
	mustCreate("Knife Sharpening", "whetstone technique for chefs", "Food Preparation", "0xaa")

	all, err := store.ListVideos(ctx, catalog.Filter{Category: catalog.CategoryAll})
	if err != nil {
		t.Fatalf("ListVideos failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(all))
	}

	byCategory, err := store.ListVideos(ctx, catalog.Filter{Category: "Heavy Lifting"})
	if err != nil {
		t.Fatalf("ListVideos by category failed: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].Title != "Pallet Stacking" {
		t.Fatalf("unexpected category results: %#v", byCategory)
	}

	bySearch, err := store.ListVideos(ctx, catalog.Filter{Search: "WHETSTONE"})
	if err != nil {
		t.Fatalf("ListVideos by search failed: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].Title != "Knife Sharpening" {
		t.Fatalf("unexpected search results: %#v", bySearch)
	}

	byOwner, err := store.ListVideos(ctx, catalog.Filter{Owner: "0xAA"})
	if err != nil {
		t.Fatalf("ListVideos by owner failed: %v", err)
	}
	if len(byOwner) != 2 {
		t.Fatalf("expected 2 videos for owner, got %d", len(byOwner))
	}
}

func TestUpdateVideoOwnership(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	video := testsupport.NewVideo(t, store, "Original", "0xAA00000000000000000000000000000000000001")

	title := "Renamed"
	updated, err := store.UpdateVideo(ctx, video.ID, "0xaa00000000000000000000000000000000000001",
		catalog.VideoUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateVideo failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("expected title to change, got %q", updated.Title)
	}

	_, err = store.UpdateVideo(ctx, video.ID, "0xbb00000000000000000000000000000000000002",
		catalog.VideoUpdate{Title: &title})
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error for non-owner, got %v", err)
	}
}

func TestUpdateVideoCaseInsensitiveOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	video := testsupport.NewVideo(t, store, "Mixed Case", "0xAbCd000000000000000000000000000000000001")

	title := "Updated"
	if _, err := store.UpdateVideo(ctx, video.ID, "0xABCD000000000000000000000000000000000001",
		catalog.VideoUpdate{Title: &title}); err != nil {
		t.Fatalf("expected case-insensitive owner match, got %v", err)
	}
}

func TestDeleteVideoReturnsRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	video := testsupport.NewVideo(t, store, "Removable", "0xaa00000000000000000000000000000000000001")

	_, err := store.DeleteVideo(ctx, video.ID, "0xbb00000000000000000000000000000000000002")
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}

	deleted, err := store.DeleteVideo(ctx, video.ID, video.OwnerAddress)
	if err != nil {
		t.Fatalf("DeleteVideo failed: %v", err)
	}
	if deleted.VideoCID != video.VideoCID {
		t.Fatalf("expected deleted record to carry content id, got %#v", deleted)
	}

	if _, err := store.GetVideo(ctx, video.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMarkAccountVerified(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	owner := "0xcc00000000000000000000000000000000000003"
	if err := store.EnsureAccount(ctx, owner, false); err != nil {
		t.Fatalf("EnsureAccount failed: %v", err)
	}
	if err := store.MarkAccountVerified(ctx, owner, "nullifier-1"); err != nil {
		t.Fatalf("MarkAccountVerified failed: %v", err)
	}

	account, err := store.GetAccount(ctx, owner)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !account.IsVerified || account.WorldIDNullifier != "nullifier-1" {
		t.Fatalf("unexpected account state: %#v", account)
	}

	if err := store.MarkAccountVerified(ctx, "0xdd00000000000000000000000000000000000004", "n"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for unknown account, got %v", err)
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got, ok := catalog.NormalizeCategory("heavy lifting"); !ok || got != "Heavy Lifting" {
		t.Fatalf("NormalizeCategory = %q, %v", got, ok)
	}
	if _, ok := catalog.NormalizeCategory("underwater basket weaving"); ok {
		t.Fatal("expected unknown category to be rejected")
	}
}
