package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close test store: %v", err)
		}
	})
	return store
}

func TestRecordCommitAndGetAsset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	asset := &Asset{
		Title:           "Field Notes",
		Class:           "book",
		SourcePath:      "/library/field-notes.pdf",
		RemoteID:        "cat-42",
		CoverPath:       "/covers/field-notes.jpg",
		SizeBytes:       1 << 20,
		DurationSeconds: 0,
		PageCount:       120,
	}
	if err := store.RecordCommit(ctx, asset); err != nil {
		t.Fatalf("RecordCommit failed: %v", err)
	}

	got, err := store.GetAsset(ctx, asset.SourcePath)
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetAsset returned nil for a committed asset")
	}
	if got.Title != "Field Notes" || got.Class != "book" || got.PageCount != 120 {
		t.Errorf("Asset = %+v, want the committed values", got)
	}
	if got.CommittedAt.IsZero() || time.Since(got.CommittedAt) > time.Minute {
		t.Errorf("CommittedAt = %v, want recent", got.CommittedAt)
	}
}

func TestGetAssetUnknownPath(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetAsset(context.Background(), "/never/seen.mp4")
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got != nil {
		t.Errorf("GetAsset = %+v, want nil for unknown path", got)
	}
}

func TestRecommitUpdatesAsset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &Asset{Title: "Draft", Class: "audio", SourcePath: "/music/take.mp3", SizeBytes: 100, CoverPath: "/covers/old.jpg", RemoteID: "cat-7"}
	if err := store.RecordCommit(ctx, first); err != nil {
		t.Fatalf("First commit failed: %v", err)
	}

	// Metadata-only recommit: empty remote ID and cover must not clobber
	// the remembered values.
	second := &Asset{Title: "Final", Class: "audio", SourcePath: "/music/take.mp3", SizeBytes: 200}
	if err := store.RecordCommit(ctx, second); err != nil {
		t.Fatalf("Second commit failed: %v", err)
	}

	got, err := store.GetAsset(ctx, "/music/take.mp3")
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got.Title != "Final" || got.SizeBytes != 200 {
		t.Errorf("Asset not updated: %+v", got)
	}
	if got.RemoteID != "cat-7" {
		t.Errorf("RemoteID = %q, want the value from the first commit", got.RemoteID)
	}
	if got.CoverPath != "/covers/old.jpg" {
		t.Errorf("CoverPath = %q, want the value from the first commit", got.CoverPath)
	}
}

func TestPersistedCover(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cover, err := store.PersistedCover(ctx, "/videos/clip.mp4")
	if err != nil {
		t.Fatalf("PersistedCover failed: %v", err)
	}
	if cover != "" {
		t.Errorf("PersistedCover = %q before any commit, want empty", cover)
	}

	asset := &Asset{Title: "Clip", Class: "video", SourcePath: "/videos/clip.mp4", CoverPath: "/covers/clip.jpg"}
	if err := store.RecordCommit(ctx, asset); err != nil {
		t.Fatalf("RecordCommit failed: %v", err)
	}

	cover, err = store.PersistedCover(ctx, "/videos/clip.mp4")
	if err != nil {
		t.Fatalf("PersistedCover failed: %v", err)
	}
	if cover != "/covers/clip.jpg" {
		t.Errorf("PersistedCover = %q, want the committed cover", cover)
	}
}

func TestListAssets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []*Asset{
		{Title: "A", Class: "book", SourcePath: "/a.pdf"},
		{Title: "B", Class: "audio", SourcePath: "/b.mp3"},
		{Title: "C", Class: "book", SourcePath: "/c.epub"},
	}
	for _, asset := range seed {
		if err := store.RecordCommit(ctx, asset); err != nil {
			t.Fatalf("RecordCommit %s failed: %v", asset.Title, err)
		}
	}

	all, err := store.ListAssets(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListAssets failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListAssets returned %d assets, want 3", len(all))
	}
	if all[0].Title != "C" {
		t.Errorf("First asset = %q, want newest first", all[0].Title)
	}

	books, err := store.ListAssets(ctx, "book", 0)
	if err != nil {
		t.Fatalf("ListAssets(book) failed: %v", err)
	}
	if len(books) != 2 {
		t.Errorf("ListAssets(book) returned %d assets, want 2", len(books))
	}
}

func TestUploadHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []*UploadRecord{
		{SourcePath: "/a.pdf", Endpoint: "https://catalogue/assets", Outcome: "success", Bytes: 1024},
		{SourcePath: "/b.mp3", Endpoint: "https://catalogue/assets", Outcome: "server_error", Bytes: 0, Message: "quota exceeded"},
	}
	for _, rec := range records {
		if err := store.RecordUpload(ctx, rec); err != nil {
			t.Fatalf("RecordUpload failed: %v", err)
		}
	}

	got, err := store.RecentUploads(ctx, 10)
	if err != nil {
		t.Fatalf("RecentUploads failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RecentUploads returned %d rows, want 2", len(got))
	}
	if got[0].SourcePath != "/b.mp3" || got[0].Message != "quota exceeded" {
		t.Errorf("Newest record = %+v, want the failed upload", got[0])
	}
}

func TestGetStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, asset := range []*Asset{
		{Title: "A", Class: "book", SourcePath: "/a.pdf"},
		{Title: "B", Class: "audio", SourcePath: "/b.mp3"},
		{Title: "C", Class: "video", SourcePath: "/c.mp4"},
		{Title: "D", Class: "video", SourcePath: "/d.mkv"},
	} {
		if err := store.RecordCommit(ctx, asset); err != nil {
			t.Fatalf("RecordCommit failed: %v", err)
		}
	}

	stats := store.GetStats()
	if stats.Books != 1 || stats.Audio != 1 || stats.Videos != 2 {
		t.Errorf("GetStats = %+v, want 1 book, 1 audio, 2 videos", stats)
	}
}
