package preview

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"media-author/internal/analyze"
	"media-author/internal/catalog"
	"media-author/internal/pagedoc"
	"media-author/internal/thumbnail"
	"media-author/internal/uploader"
	"media-author/internal/validate"
)

// probeScript is a Decoder whose behavior is keyed by path. A gate channel
// blocks the probe until closed, for supersede tests.
type probeScript struct {
	mu     sync.Mutex
	byPath map[string]probeBehavior
}

type probeBehavior struct {
	info analyze.ProbeInfo
	err  error
	gate chan struct{}
}

func newProbeScript() *probeScript {
	return &probeScript{byPath: make(map[string]probeBehavior)}
}

func (s *probeScript) set(path string, b probeBehavior) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPath[path] = b
}

func (s *probeScript) Probe(ctx context.Context, path string) (analyze.ProbeInfo, error) {
	s.mu.Lock()
	b := s.byPath[path]
	s.mu.Unlock()

	if b.gate != nil {
		select {
		case <-b.gate:
		case <-ctx.Done():
			return analyze.ProbeInfo{}, ctx.Err()
		}
	}
	return b.info, b.err
}

// fakeEngine renders solid-color pages without MuPDF.
type fakeEngine struct {
	pages   int
	openErr error
}

func (e *fakeEngine) Open(path string) (pagedoc.EngineDoc, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	return &fakeDoc{pages: e.pages}, nil
}

type fakeDoc struct {
	pages int
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) RenderPage(page int, dpi float64) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 40, 60)), nil
}

func (d *fakeDoc) Close() error { return nil }

type controllerEnv struct {
	controller *Controller
	probes     *probeScript
	store      *catalog.Store
}

func newTestController(t *testing.T, opts Options) *controllerEnv {
	t.Helper()

	env := &controllerEnv{probes: newProbeScript()}

	if opts.Analyzer == nil {
		opts.Analyzer = analyze.New(func() analyze.Decoder { return env.probes })
	}
	if opts.Generator == nil {
		opts.Generator = thumbnail.NewGenerator(t.TempDir())
	}
	if opts.Renderer == nil {
		opts.Renderer = pagedoc.NewRenderer(&fakeEngine{pages: 3}, t.TempDir())
	}
	if opts.Transport == nil {
		opts.Transport = uploader.New(nil, nil)
	}
	if opts.Limits == (validate.Limits{}) {
		opts.Limits = validate.DefaultLimits()
	}
	env.store = opts.Store

	env.controller = NewController(opts)
	t.Cleanup(env.controller.Close)
	return env
}

func writeSource(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for state %s, still in %s", want, c.State())
}

func TestSelectAudioSettles(t *testing.T) {
	env := newTestController(t, Options{})
	source := writeSource(t, "take.mp3", 2048)
	env.probes.set(source, probeBehavior{info: analyze.ProbeInfo{Duration: 125.7}})

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got := env.controller.State(); got != StateAnalyzing {
		t.Errorf("State after Select = %s, want %s", got, StateAnalyzing)
	}

	waitForState(t, env.controller, StatePreviewReady)

	snap := env.controller.Snapshot()
	if snap.Class != "audio" {
		t.Errorf("Class = %q, want audio", snap.Class)
	}
	if snap.Analysis == nil || snap.Analysis.DurationSeconds != 125 {
		t.Errorf("Analysis = %+v, want duration floored to 125", snap.Analysis)
	}
	if snap.Metadata.Title != "take" {
		t.Errorf("Default title = %q, want base name without extension", snap.Metadata.Title)
	}
	if snap.PageCount != 0 {
		t.Errorf("PageCount = %d for audio, want 0", snap.PageCount)
	}
}

func TestSelectValidation(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		size   int
		limits validate.Limits
	}{
		{"UnsupportedExtension", "notes.xyz", 10, validate.DefaultLimits()},
		{"OverSizeCeiling", "take.mp3", 64, validate.Limits{AudioMaxBytes: 32, VideoMaxBytes: 1, BookMaxBytes: 1, CoverMaxBytes: 1}},
		{"EmptyFile", "take.mp3", 0, validate.DefaultLimits()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestController(t, Options{Limits: tt.limits})
			source := writeSource(t, tt.file, tt.size)

			err := env.controller.Select(source)
			var verr *validate.Error
			if !errors.As(err, &verr) {
				t.Fatalf("Select error = %v, want *validate.Error", err)
			}
			if got := env.controller.State(); got != StateIdle {
				t.Errorf("State after rejected Select = %s, want %s", got, StateIdle)
			}
		})
	}
}

func TestSelectBookRendersPages(t *testing.T) {
	env := newTestController(t, Options{})
	source := writeSource(t, "field-notes.pdf", 4096)

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	snap := env.controller.Snapshot()
	if snap.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", snap.PageCount)
	}
	if snap.Page != 1 {
		t.Errorf("Initial page = %d, want 1", snap.Page)
	}
	if snap.Thumbnail == nil || snap.Thumbnail.Tier != thumbnail.TierGenerated {
		t.Errorf("Thumbnail = %+v, want generated strip thumbnail", snap.Thumbnail)
	}
	if len(snap.Notices) != 0 {
		t.Errorf("Notices = %v, want none on a clean render", snap.Notices)
	}
}

func TestDocumentFailureFallsBackToPlaceholder(t *testing.T) {
	env := newTestController(t, Options{
		Renderer: pagedoc.NewRenderer(&fakeEngine{openErr: errors.New("not a pdf")}, t.TempDir()),
	})
	source := writeSource(t, "broken.pdf", 4096)

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	snap := env.controller.Snapshot()
	if snap.PageCount != 1 {
		t.Errorf("Placeholder PageCount = %d, want 1", snap.PageCount)
	}
	if len(snap.Notices) == 0 {
		t.Error("Expected a notice explaining the render failure")
	}
}

func TestTextBookAnalysis(t *testing.T) {
	env := newTestController(t, Options{})
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("first line\nsecond line\n"), 0o644); err != nil {
		t.Fatalf("Failed to write text file: %v", err)
	}

	if err := env.controller.Select(path); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	snap := env.controller.Snapshot()
	if snap.Analysis == nil || snap.Analysis.Lines != 2 || snap.Analysis.Words != 4 {
		t.Errorf("Analysis = %+v, want 2 lines and 4 words", snap.Analysis)
	}
	if snap.PageCount != 0 {
		t.Errorf("PageCount = %d for plain text, want 0", snap.PageCount)
	}
}

func TestDegradedAnalysisStillSettles(t *testing.T) {
	env := newTestController(t, Options{})
	source := writeSource(t, "odd.mp3", 1024)
	env.probes.set(source, probeBehavior{err: errors.New("moov atom not found")})

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	snap := env.controller.Snapshot()
	if snap.Analysis == nil || !snap.Analysis.Degraded {
		t.Errorf("Analysis = %+v, want degraded result", snap.Analysis)
	}
	if len(snap.Notices) == 0 {
		t.Error("Expected a notice for the degraded analysis")
	}
}

func TestStaleResultsDiscarded(t *testing.T) {
	env := newTestController(t, Options{})
	slow := writeSource(t, "slow.mp3", 1024)
	fast := writeSource(t, "fast.mp3", 1024)

	gate := make(chan struct{})
	env.probes.set(slow, probeBehavior{info: analyze.ProbeInfo{Duration: 10}, gate: gate})
	env.probes.set(fast, probeBehavior{info: analyze.ProbeInfo{Duration: 200}})

	if err := env.controller.Select(slow); err != nil {
		t.Fatalf("Select(slow) failed: %v", err)
	}
	if err := env.controller.Select(fast); err != nil {
		t.Fatalf("Select(fast) failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	close(gate)
	time.Sleep(50 * time.Millisecond)

	snap := env.controller.Snapshot()
	if snap.SourcePath != fast {
		t.Errorf("SourcePath = %q, want the second selection", snap.SourcePath)
	}
	if snap.Analysis == nil || snap.Analysis.DurationSeconds != 200 {
		t.Errorf("Analysis = %+v, want the second selection's duration", snap.Analysis)
	}
	if got := env.controller.State(); got != StatePreviewReady {
		t.Errorf("State = %s after stale settle, want %s", got, StatePreviewReady)
	}
}

func TestEditSaveAndCancel(t *testing.T) {
	env := newTestController(t, Options{})
	source := writeSource(t, "take.mp3", 1024)
	env.probes.set(source, probeBehavior{info: analyze.ProbeInfo{Duration: 60}})

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	if err := env.controller.Edit(); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if err := env.controller.UpdateMetadata(Metadata{Title: "Abandoned"}); err != nil {
		t.Fatalf("UpdateMetadata failed: %v", err)
	}
	if got := env.controller.Snapshot().Metadata.Title; got != "Abandoned" {
		t.Errorf("Scratch title = %q, want the pending edit", got)
	}
	if err := env.controller.CancelEdit(); err != nil {
		t.Fatalf("CancelEdit failed: %v", err)
	}
	if got := env.controller.Snapshot().Metadata.Title; got != "take" {
		t.Errorf("Title after cancel = %q, want the original", got)
	}

	if err := env.controller.Edit(); err != nil {
		t.Fatalf("Second Edit failed: %v", err)
	}
	meta := Metadata{
		Title:         "Quiet Hours",
		Description:   "Late-night session recordings",
		Creator:       "L. Marsh",
		Language:      "en",
		Genre:         "music",
		PublishedYear: "2019",
		ISBN:          "978-0-00-000000-2",
	}
	if err := env.controller.UpdateMetadata(meta); err != nil {
		t.Fatalf("UpdateMetadata failed: %v", err)
	}
	if err := env.controller.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	snap := env.controller.Snapshot()
	if snap.State != StatePreviewReady || snap.Metadata != meta {
		t.Errorf("After save: state %s, metadata %+v; want ready with promoted metadata", snap.State, snap.Metadata)
	}

	if err := env.controller.UpdateMetadata(Metadata{Title: "nope"}); err == nil {
		t.Error("UpdateMetadata succeeded outside of editing")
	}
}

func TestUpdateMetadataRejectsUnknownVocabulary(t *testing.T) {
	env := newTestController(t, Options{})
	source := writeSource(t, "take.mp3", 1024)
	env.probes.set(source, probeBehavior{info: analyze.ProbeInfo{Duration: 60}})

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)
	if err := env.controller.Edit(); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	var verr *validate.Error
	if err := env.controller.UpdateMetadata(Metadata{Title: "x", Language: "klingon"}); !errors.As(err, &verr) || verr.Field != "language" {
		t.Errorf("Unknown language: error = %v, want validation error on language", err)
	}
	// "fiction" is a book genre; this selection is audio.
	if err := env.controller.UpdateMetadata(Metadata{Title: "x", Genre: "fiction"}); !errors.As(err, &verr) || verr.Field != "genre" {
		t.Errorf("Wrong-class genre: error = %v, want validation error on genre", err)
	}

	if got := env.controller.Snapshot().Metadata.Title; got != "take" {
		t.Errorf("Scratch title = %q after rejected updates, want untouched original", got)
	}
}

func TestViewOperations(t *testing.T) {
	env := newTestController(t, Options{})
	source := writeSource(t, "field-notes.pdf", 4096)

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	if err := env.controller.View(func(v *pagedoc.ViewState) {
		v.NextPage()
		v.ZoomIn()
		v.Rotate()
	}); err != nil {
		t.Fatalf("View failed: %v", err)
	}

	snap := env.controller.Snapshot()
	if snap.Page != 2 || snap.Zoom != 1.25 || snap.Rotation != 90 {
		t.Errorf("View = page %d zoom %v rotation %d, want 2 / 1.25 / 90", snap.Page, snap.Zoom, snap.Rotation)
	}
}

func TestCommitSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("ParseMultipartForm failed: %v", err)
		}
		if got := r.FormValue("title"); got != "Field Notes" {
			t.Errorf("title field = %q, want %q", got, "Field Notes")
		}
		if got := r.FormValue("pageCount"); got != "3" {
			t.Errorf("pageCount field = %q, want 3", got)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store, err := catalog.New(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open catalog store: %v", err)
	}
	defer store.Close()

	coversDir := t.TempDir()
	env := newTestController(t, Options{
		Transport: uploader.New(server.Client(), nil),
		Store:     store,
		Endpoint:  server.URL,
		CoversDir: coversDir,
	})
	source := writeSource(t, "field-notes.pdf", 4096)

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	if err := env.controller.Edit(); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if err := env.controller.UpdateMetadata(Metadata{Title: "Field Notes"}); err != nil {
		t.Fatalf("UpdateMetadata failed: %v", err)
	}
	if err := env.controller.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := env.controller.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	waitForState(t, env.controller, StateUploaded)

	snap := env.controller.Snapshot()
	if snap.PageCount != 0 || snap.Thumbnail != nil {
		t.Errorf("Preview artifacts survived upload: pageCount %d, thumbnail %+v", snap.PageCount, snap.Thumbnail)
	}
	if snap.Upload == nil || snap.Upload.Outcome != string(uploader.OutcomeSuccess) {
		t.Errorf("Upload status = %+v, want success", snap.Upload)
	}

	asset, err := store.GetAsset(context.Background(), source)
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if asset == nil {
		t.Fatal("Committed asset not recorded in catalogue store")
	}
	if asset.PageCount != 3 || asset.Title != "Field Notes" {
		t.Errorf("Recorded asset = %+v, want page count and title", asset)
	}
	if asset.CoverPath == "" || filepath.Dir(asset.CoverPath) != coversDir {
		t.Errorf("CoverPath = %q, want a file under the covers directory", asset.CoverPath)
	}
	if _, err := os.Stat(asset.CoverPath); err != nil {
		t.Errorf("Persisted cover missing: %v", err)
	}

	history, err := store.RecentUploads(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentUploads failed: %v", err)
	}
	if len(history) != 1 || history[0].Outcome != string(uploader.OutcomeSuccess) {
		t.Errorf("Upload history = %+v, want one success row", history)
	}
}

func TestCommitFailureRetainsPreview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInsufficientStorage)
		w.Write([]byte(`{"error":"catalogue full"}`))
	}))
	defer server.Close()

	env := newTestController(t, Options{
		Transport: uploader.New(server.Client(), nil),
		Endpoint:  server.URL,
	})
	source := writeSource(t, "field-notes.pdf", 4096)

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	if err := env.controller.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	waitForState(t, env.controller, StateFailed)

	snap := env.controller.Snapshot()
	if snap.PageCount != 3 {
		t.Errorf("PageCount = %d after failed upload, want preview retained", snap.PageCount)
	}
	found := false
	for _, notice := range snap.Notices {
		if strings.Contains(notice, "catalogue full") {
			found = true
		}
	}
	if !found {
		t.Errorf("Notices = %v, want the server's message", snap.Notices)
	}

	// Retry is legal from the failed state.
	if err := env.controller.Commit(); err != nil {
		t.Fatalf("Retry Commit failed: %v", err)
	}
	waitForState(t, env.controller, StateFailed)
}

func TestCancelUploadReturnsToReady(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	env := newTestController(t, Options{
		Transport: uploader.New(server.Client(), nil),
		Endpoint:  server.URL,
	})
	source := writeSource(t, "take.mp3", 4096)
	env.probes.set(source, probeBehavior{info: analyze.ProbeInfo{Duration: 30}})

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	if err := env.controller.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// A new selection is rejected while the upload is in flight.
	other := writeSource(t, "other.mp3", 1024)
	var terr *TransitionError
	if err := env.controller.Select(other); !errors.As(err, &terr) {
		t.Errorf("Select during commit = %v, want *TransitionError", err)
	}

	if err := env.controller.CancelUpload(); err != nil {
		t.Fatalf("CancelUpload failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	snap := env.controller.Snapshot()
	if snap.Analysis == nil || snap.Analysis.DurationSeconds != 30 {
		t.Errorf("Analysis = %+v after cancelled upload, want preview retained", snap.Analysis)
	}
}

func TestPersistedCoverOffered(t *testing.T) {
	store, err := catalog.New(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open catalog store: %v", err)
	}
	defer store.Close()

	source := writeSource(t, "take.mp3", 1024)
	cover := writeSource(t, "cover.jpg", 256)
	if err := store.RecordCommit(context.Background(), &catalog.Asset{
		Title: "Take", Class: "audio", SourcePath: source, CoverPath: cover,
	}); err != nil {
		t.Fatalf("RecordCommit failed: %v", err)
	}

	env := newTestController(t, Options{Store: store})
	env.probes.set(source, probeBehavior{info: analyze.ProbeInfo{Duration: 30}})

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	snap := env.controller.Snapshot()
	if snap.Thumbnail == nil || snap.Thumbnail.Tier != thumbnail.TierPersisted {
		t.Errorf("Thumbnail = %+v, want the persisted catalogue cover", snap.Thumbnail)
	}
	if snap.Thumbnail != nil && snap.Thumbnail.Path != cover {
		t.Errorf("Thumbnail path = %q, want %q", snap.Thumbnail.Path, cover)
	}
}

func TestExternalCoverYieldsToCustom(t *testing.T) {
	env := newTestController(t, Options{})
	source := writeSource(t, "take.mp3", 1024)
	env.probes.set(source, probeBehavior{info: analyze.ProbeInfo{Duration: 30}})

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	waitForState(t, env.controller, StatePreviewReady)

	if err := env.controller.SetExternalCover("https://covers.example/abc123"); err != nil {
		t.Fatalf("SetExternalCover failed: %v", err)
	}
	snap := env.controller.Snapshot()
	if snap.Thumbnail == nil || snap.Thumbnail.Tier != thumbnail.TierExternal || !snap.Thumbnail.Remote {
		t.Errorf("Thumbnail = %+v, want remote external reference", snap.Thumbnail)
	}
}

func TestCloseFromAnyState(t *testing.T) {
	env := newTestController(t, Options{})
	source := writeSource(t, "take.mp3", 1024)
	env.probes.set(source, probeBehavior{info: analyze.ProbeInfo{Duration: 30}})

	if err := env.controller.Select(source); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	env.controller.Close()

	if got := env.controller.State(); got != StateIdle {
		t.Errorf("State after Close = %s, want %s", got, StateIdle)
	}
	if snap := env.controller.Snapshot(); snap.SourcePath != "" {
		t.Errorf("Snapshot after Close = %+v, want empty", snap)
	}
}
