package preview

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"media-author/internal/analyze"
	"media-author/internal/catalog"
	"media-author/internal/lifecycle"
	"media-author/internal/logging"
	"media-author/internal/mediaclass"
	"media-author/internal/metrics"
	"media-author/internal/pagedoc"
	"media-author/internal/thumbnail"
	"media-author/internal/uploader"
	"media-author/internal/validate"
)

// Metadata is the operator-editable description of the selected asset.
// Creator is the author or narrator depending on the media class. Language
// and Genre are constrained to the catalogue vocabularies in validate; the
// remaining fields are free text.
type Metadata struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Creator       string `json:"creator"`
	Language      string `json:"language"`
	Genre         string `json:"genre"`
	PublishedYear string `json:"publishedYear"`
	ISBN          string `json:"isbn"`
}

// UploadStatus mirrors the in-flight or last finished upload.
type UploadStatus struct {
	BytesSent  int64  `json:"bytesSent"`
	BytesTotal int64  `json:"bytesTotal"`
	Outcome    string `json:"outcome"`
}

// Snapshot is a point-in-time copy of the controller for API responses.
type Snapshot struct {
	State      State               `json:"state"`
	SourcePath string              `json:"sourcePath,omitempty"`
	Name       string              `json:"name,omitempty"`
	Class      string              `json:"class,omitempty"`
	SizeBytes  int64               `json:"sizeBytes,omitempty"`
	Metadata   Metadata            `json:"metadata"`
	Analysis   *analyze.Result     `json:"analysis,omitempty"`
	Thumbnail  *thumbnail.ImageRef `json:"thumbnail,omitempty"`
	PageCount  int                 `json:"pageCount,omitempty"`
	Page       int                 `json:"page,omitempty"`
	Zoom       float64             `json:"zoom,omitempty"`
	Rotation   int                 `json:"rotation"`
	Notices    []string            `json:"notices,omitempty"`
	Upload     *UploadStatus       `json:"upload,omitempty"`
}

// assetPreview holds everything derived for the current selection. It is
// replaced wholesale on a new Select; its lifecycle manager owns every temp
// artifact derived for this selection.
type assetPreview struct {
	sourcePath string
	name       string
	class      mediaclass.Class
	sizeBytes  int64
	lm         *lifecycle.Manager

	metadata Metadata
	analysis *analyze.Result
	thumbs   *thumbnail.Resolver
	doc      *pagedoc.Document
	view     *pagedoc.ViewState
	notices  []string
}

// Options configures a Controller.
type Options struct {
	Analyzer  *analyze.Analyzer
	Generator *thumbnail.Generator
	Renderer  *pagedoc.Renderer
	Transport *uploader.Transport
	Store     *catalog.Store // optional
	Limits    validate.Limits
	Endpoint  string // Catalogue Storage asset endpoint
	CoversDir string // durable home for covers of committed assets
}

// Controller drives one asset through selection, preview, editing and
// commit. All public methods are safe for concurrent use; derivation and
// upload run on background goroutines and report back through the state.
type Controller struct {
	analyzer  *analyze.Analyzer
	generator *thumbnail.Generator
	renderer  *pagedoc.Renderer
	transport *uploader.Transport
	store     *catalog.Store
	limits    validate.Limits
	endpoint  string
	coversDir string

	mu         sync.Mutex
	state      State
	generation uint64
	asset      *assetPreview
	scratch    *Metadata

	deriveStop context.CancelFunc
	uploadJob  *uploader.Job
	uploadStop context.CancelFunc
}

// NewController creates an idle Controller.
func NewController(opts Options) *Controller {
	return &Controller{
		analyzer:  opts.Analyzer,
		generator: opts.Generator,
		renderer:  opts.Renderer,
		transport: opts.Transport,
		store:     opts.Store,
		limits:    opts.Limits,
		endpoint:  opts.Endpoint,
		coversDir: opts.CoversDir,
		state:     StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the controller's visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{State: c.state}
	if c.asset != nil {
		snap.SourcePath = c.asset.sourcePath
		snap.Name = c.asset.name
		snap.Class = string(c.asset.class)
		snap.SizeBytes = c.asset.sizeBytes
		snap.Metadata = c.asset.metadata
		snap.Analysis = c.asset.analysis
		snap.Thumbnail = c.asset.thumbs.Current()
		snap.Notices = append([]string(nil), c.asset.notices...)
		if c.asset.doc != nil {
			snap.PageCount = c.asset.doc.PageCount
		}
		if c.asset.view != nil {
			snap.Page = c.asset.view.Page()
			snap.Zoom = c.asset.view.Zoom()
			snap.Rotation = c.asset.view.Rotation()
		}
	}
	if c.scratch != nil {
		snap.Metadata = *c.scratch
	}
	if c.uploadJob != nil {
		snap.Upload = &UploadStatus{
			BytesSent:  c.uploadJob.BytesSent.Load(),
			BytesTotal: c.uploadJob.BytesTotal,
			Outcome:    string(c.uploadJob.Outcome()),
		}
	}
	return snap
}

// Select validates path and, if acceptable, replaces the current selection.
// Previously derived resources are released before any new derivation
// starts. Selection is rejected while an upload is in flight.
func (c *Controller) Select(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	class, ok := mediaclass.ClassForExt(ext)
	if !ok {
		return &validate.Error{Field: "source", Message: fmt.Sprintf("unsupported file type %q", ext)}
	}
	if err := validate.CheckSource(name, info.Size(), class, c.limits); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transitionLocked(StateAnalyzing); err != nil {
		return err
	}

	// Old artifacts are released before the new derivation allocates
	// anything.
	if c.deriveStop != nil {
		c.deriveStop()
	}
	if c.asset != nil {
		c.asset.lm.ReleaseAll()
	}
	c.scratch = nil
	c.uploadJob = nil

	c.generation++
	gen := c.generation

	asset := &assetPreview{
		sourcePath: path,
		name:       name,
		class:      class,
		sizeBytes:  info.Size(),
		lm:         lifecycle.NewManager(),
		thumbs:     thumbnail.NewResolver(),
		metadata:   Metadata{Title: strings.TrimSuffix(name, ext)},
	}
	c.asset = asset

	ctx, cancel := context.WithCancel(context.Background())
	c.deriveStop = cancel

	logging.Info("Selected %s (%s, %d bytes), generation %d", name, class, info.Size(), gen)
	go c.derive(ctx, gen, asset)
	return nil
}

// derive runs every derivation step for one selection and settles the state.
// Results are assigned only while the generation is still current; a
// superseded derivation cleans up its own artifacts on the way out.
func (c *Controller) derive(ctx context.Context, gen uint64, asset *assetPreview) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.deriveMetadata(ctx, gen, asset)
	}()

	if c.store != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cover, err := c.store.PersistedCover(ctx, asset.sourcePath)
			if err != nil {
				logging.Warn("Persisted cover lookup failed: %v", err)
				return
			}
			if cover != "" {
				c.offer(gen, asset, thumbnail.ImageRef{Path: cover, Tier: thumbnail.TierPersisted})
			}
		}()
	}

	if asset.class == mediaclass.ClassBook && strings.ToLower(filepath.Ext(asset.sourcePath)) != ".txt" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.deriveDocument(ctx, gen, asset)
		}()
	}

	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// Superseded while running: nothing was assigned, drop our
		// own artifacts.
		asset.lm.ReleaseAll()
		return
	}
	if c.state != StateAnalyzing {
		return
	}

	tier := "none"
	if ref := asset.thumbs.Current(); ref != nil {
		tier = ref.Tier.String()
	}
	metrics.ThumbnailsResolvedTotal.WithLabelValues(tier).Inc()

	if err := c.transitionLocked(StatePreviewReady); err != nil {
		logging.Error("Failed to settle preview: %v", err)
	}
}

// deriveMetadata runs the analyzer and, for video, the dependent frame
// capture (the capture seek point needs the probed duration).
func (c *Controller) deriveMetadata(ctx context.Context, gen uint64, asset *assetPreview) {
	result, err := c.analyzer.Analyze(ctx, asset.sourcePath, asset.class)
	if err != nil {
		logging.Error("Analysis of %s failed: %v", asset.name, err)
		return
	}
	c.assign(gen, func(a *assetPreview) {
		a.analysis = result
		if result.Degraded && result.Notice != "" {
			a.notices = append(a.notices, result.Notice)
		}
	})

	if asset.class != mediaclass.ClassVideo || ctx.Err() != nil {
		return
	}
	ref, err := c.generator.CaptureFrame(ctx, asset.sourcePath, result.DurationSeconds, asset.lm)
	if err != nil {
		logging.Warn("Frame capture for %s failed: %v", asset.name, err)
		return
	}
	c.offer(gen, asset, ref)
}

// deriveDocument rasterizes a paginated document, falling back to a
// placeholder card when the document cannot be opened or rendered.
func (c *Controller) deriveDocument(ctx context.Context, gen uint64, asset *assetPreview) {
	doc, err := c.renderer.Load(ctx, asset.sourcePath, asset.lm)
	if err != nil {
		logging.Warn("Document render for %s failed: %v", asset.name, err)
		placeholder, perr := c.renderer.Placeholder(asset.sourcePath, asset.sizeBytes, asset.lm)
		if perr != nil {
			logging.Error("Placeholder for %s failed: %v", asset.name, perr)
			return
		}
		c.assign(gen, func(a *assetPreview) {
			a.doc = placeholder
			a.view = pagedoc.NewViewState(placeholder.PageCount)
			a.notices = append(a.notices, fmt.Sprintf("page preview unavailable: %v", err))
		})
		return
	}

	c.assign(gen, func(a *assetPreview) {
		a.doc = doc
		a.view = pagedoc.NewViewState(doc.PageCount)
	})
	if strip, ok := doc.StripThumbnail(); ok {
		c.offer(gen, asset, thumbnail.ImageRef{Path: strip, Tier: thumbnail.TierGenerated})
	}
}

// assign applies fn to the current asset iff gen is still the live
// generation. Stale results are discarded here, at assignment time.
func (c *Controller) assign(gen uint64, fn func(a *assetPreview)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.asset == nil {
		logging.Debug("Discarding stale derivation result (generation %d)", gen)
		return
	}
	fn(c.asset)
}

// offer proposes a thumbnail for a specific generation.
func (c *Controller) offer(gen uint64, asset *assetPreview, ref thumbnail.ImageRef) {
	c.mu.Lock()
	current := gen == c.generation && c.asset == asset
	c.mu.Unlock()
	if !current {
		logging.Debug("Discarding stale thumbnail (generation %d)", gen)
		return
	}
	asset.thumbs.Offer(ref)
}

// SetCustomCover validates and installs an operator-chosen cover image. A
// custom cover always wins, including over an earlier custom cover.
func (c *Controller) SetCustomCover(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat cover file: %w", err)
	}

	c.mu.Lock()
	if c.asset == nil || (c.state != StatePreviewReady && c.state != StateEditing && c.state != StateAnalyzing) {
		c.mu.Unlock()
		return &validate.Error{Field: "cover", Message: "no asset selected"}
	}
	asset := c.asset
	gen := c.generation
	c.mu.Unlock()

	if err := validate.CheckCover(filepath.Base(path), info.Size(), asset.class, c.limits); err != nil {
		return err
	}

	ref, err := c.generator.ProcessCover(path, asset.lm)
	if err != nil {
		return fmt.Errorf("failed to process cover: %w", err)
	}
	c.offer(gen, asset, ref)
	return nil
}

// SetExternalCover installs a cover reference resolved from a canonical
// external identifier. It yields to an existing custom cover.
func (c *Controller) SetExternalCover(ref string) error {
	c.mu.Lock()
	if c.asset == nil {
		c.mu.Unlock()
		return &validate.Error{Field: "cover", Message: "no asset selected"}
	}
	asset := c.asset
	gen := c.generation
	c.mu.Unlock()

	c.offer(gen, asset, thumbnail.ImageRef{Path: ref, Remote: true, Tier: thumbnail.TierExternal})
	return nil
}

// Edit opens a scratch metadata copy.
func (c *Controller) Edit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transitionLocked(StateEditing); err != nil {
		return err
	}
	scratch := c.asset.metadata
	c.scratch = &scratch
	return nil
}

// UpdateMetadata replaces the scratch metadata. Only legal while editing.
func (c *Controller) UpdateMetadata(meta Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEditing || c.scratch == nil {
		return &TransitionError{From: c.state, To: StateEditing}
	}
	if err := validate.CheckMetadata(c.asset.class, meta.Language, meta.Genre); err != nil {
		return err
	}
	*c.scratch = meta
	return nil
}

// Save promotes the scratch metadata and returns to the ready state.
func (c *Controller) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transitionLocked(StatePreviewReady); err != nil {
		return err
	}
	if c.scratch != nil {
		c.asset.metadata = *c.scratch
		c.scratch = nil
	}
	return nil
}

// CancelEdit discards the scratch metadata and returns to the ready state.
func (c *Controller) CancelEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transitionLocked(StatePreviewReady); err != nil {
		return err
	}
	c.scratch = nil
	return nil
}

// View applies fn to the page view under the controller's lock. The view is
// single-writer; this is the writer.
func (c *Controller) View(fn func(v *pagedoc.ViewState)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.asset == nil || c.asset.view == nil {
		return &validate.Error{Field: "view", Message: "no paged document loaded"}
	}
	fn(c.asset.view)
	return nil
}

// Artifacts returns the current asset's thumbnail and document for serving.
// The document may be nil.
func (c *Controller) Artifacts() (*thumbnail.ImageRef, *pagedoc.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.asset == nil {
		return nil, nil
	}
	return c.asset.thumbs.Current(), c.asset.doc
}

// Commit starts an upload of the current selection to Catalogue Storage and
// returns without waiting for it. Progress and the terminal outcome are
// visible through Snapshot.
func (c *Controller) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transitionLocked(StateCommitting); err != nil {
		return err
	}

	asset := c.asset
	gen := c.generation

	replace := false
	if c.store != nil {
		if existing, err := c.store.GetAsset(context.Background(), asset.sourcePath); err == nil && existing != nil {
			replace = true
		}
	}

	job := uploader.NewJob(c.endpoint, replace)
	job.SourcePath = asset.sourcePath
	job.Fields = commitFields(asset)
	if ref := asset.thumbs.Current(); ref != nil {
		if ref.Remote {
			job.CoverRef = ref.Path
		} else if ref.Tier != thumbnail.TierPersisted {
			// A persisted cover is already in the catalogue.
			job.CoverPath = ref.Path
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.uploadJob = job
	c.uploadStop = cancel

	go c.runUpload(ctx, gen, asset, job)
	return nil
}

// CancelUpload aborts the in-flight upload, if any. The state settles back
// to ready from the upload goroutine.
func (c *Controller) CancelUpload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCommitting || c.uploadStop == nil {
		return &TransitionError{From: c.state, To: StatePreviewReady}
	}
	c.uploadStop()
	return nil
}

func (c *Controller) runUpload(ctx context.Context, gen uint64, asset *assetPreview, job *uploader.Job) {
	err := c.transport.Upload(ctx, job, nil)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != StateCommitting {
		return
	}

	c.recordUpload(asset, job)

	switch {
	case err == nil:
		c.finishCommit(asset, job)
	case uploader.OutcomeForError(err) == uploader.OutcomeCancelled:
		logging.Info("Upload of %s cancelled", asset.name)
		if terr := c.transitionLocked(StatePreviewReady); terr != nil {
			logging.Error("Failed to settle cancelled upload: %v", terr)
		}
	default:
		asset.notices = append(asset.notices, fmt.Sprintf("upload failed: %v", err))
		if terr := c.transitionLocked(StateFailed); terr != nil {
			logging.Error("Failed to settle failed upload: %v", terr)
		}
	}
}

// finishCommit records the accepted asset and tears the preview down. The
// winning local cover is copied to durable storage first so the next
// selection of this file can reuse it.
func (c *Controller) finishCommit(asset *assetPreview, job *uploader.Job) {
	coverPath := ""
	if ref := asset.thumbs.Current(); ref != nil && !ref.Remote {
		persisted, err := c.persistCover(ref.Path)
		if err != nil {
			logging.Warn("Failed to persist cover for %s: %v", asset.name, err)
		} else {
			coverPath = persisted
		}
	}

	if c.store != nil {
		entry := &catalog.Asset{
			Title:      asset.metadata.Title,
			Class:      string(asset.class),
			SourcePath: asset.sourcePath,
			CoverPath:  coverPath,
			SizeBytes:  asset.sizeBytes,
		}
		if asset.analysis != nil {
			entry.DurationSeconds = float64(asset.analysis.DurationSeconds)
		}
		if asset.doc != nil {
			entry.PageCount = asset.doc.PageCount
		}
		if err := c.store.RecordCommit(context.Background(), entry); err != nil {
			logging.Error("Failed to record commit of %s: %v", asset.name, err)
		}
	}

	asset.lm.ReleaseAll()
	asset.doc = nil
	asset.view = nil
	asset.thumbs.Reset()

	if err := c.transitionLocked(StateUploaded); err != nil {
		logging.Error("Failed to settle upload: %v", err)
	}
	logging.Info("Committed %s to Catalogue Storage", asset.name)
}

func (c *Controller) recordUpload(asset *assetPreview, job *uploader.Job) {
	if c.store == nil {
		return
	}
	rec := &catalog.UploadRecord{
		SourcePath: asset.sourcePath,
		Endpoint:   job.Endpoint,
		Outcome:    string(job.Outcome()),
		Bytes:      job.BytesSent.Load(),
	}
	if err := c.store.RecordUpload(context.Background(), rec); err != nil {
		logging.Warn("Failed to record upload history: %v", err)
	}
}

// persistCover copies a transient cover artifact into the durable covers
// directory.
func (c *Controller) persistCover(src string) (string, error) {
	if c.coversDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(c.coversDir, 0o755); err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dst := filepath.Join(c.coversDir, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}

// Close releases everything and returns the controller to idle. Safe to
// call at shutdown regardless of state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deriveStop != nil {
		c.deriveStop()
	}
	if c.uploadStop != nil {
		c.uploadStop()
	}
	if c.asset != nil {
		c.asset.lm.ReleaseAll()
	}
	c.generation++
	c.asset = nil
	c.scratch = nil
	c.uploadJob = nil
	c.state = StateIdle
}

func (c *Controller) transitionLocked(to State) error {
	if !CanTransition(c.state, to) {
		return &TransitionError{From: c.state, To: to}
	}
	logging.Debug("Preview state %s -> %s", c.state, to)
	c.state = to
	return nil
}

func commitFields(asset *assetPreview) []uploader.Field {
	fields := []uploader.Field{
		{Name: "title", Value: asset.metadata.Title},
		{Name: "mediaClass", Value: string(asset.class)},
	}
	optional := []uploader.Field{
		{Name: "description", Value: asset.metadata.Description},
		{Name: "creator", Value: asset.metadata.Creator},
		{Name: "language", Value: asset.metadata.Language},
		{Name: "genre", Value: asset.metadata.Genre},
		{Name: "publishedYear", Value: asset.metadata.PublishedYear},
		{Name: "isbn", Value: asset.metadata.ISBN},
	}
	for _, field := range optional {
		if field.Value != "" {
			fields = append(fields, field)
		}
	}
	if asset.analysis != nil {
		if asset.analysis.DurationSeconds > 0 {
			fields = append(fields, uploader.Field{Name: "durationSeconds", Value: strconv.Itoa(asset.analysis.DurationSeconds)})
		}
		if asset.analysis.Width > 0 {
			fields = append(fields, uploader.Field{Name: "width", Value: strconv.Itoa(asset.analysis.Width)})
			fields = append(fields, uploader.Field{Name: "height", Value: strconv.Itoa(asset.analysis.Height)})
		}
	}
	if asset.doc != nil && asset.doc.PageCount > 0 {
		fields = append(fields, uploader.Field{Name: "pageCount", Value: strconv.Itoa(asset.doc.PageCount)})
	}
	return fields
}
