package pagedoc

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"media-author/internal/lifecycle"
	"media-author/internal/logging"
	"media-author/internal/metrics"
	"media-author/internal/workers"

	"github.com/google/uuid"
)

const (
	// lowDPI renders the quick-scan strip; highDPI the full viewer set.
	lowDPI  = 36.0
	highDPI = 144.0

	lowQuality  = 70
	highQuality = 85
)

// Document is a fully rasterized paginated document. Both resolution sets
// are complete by the time a Document exists; pages are addressed 1-based.
type Document struct {
	PageCount int
	lowRes    []string
	highRes   []string
}

// LowRes returns the low-resolution raster for a page, if the page exists.
func (d *Document) LowRes(page int) (string, bool) {
	if page < 1 || page > len(d.lowRes) {
		return "", false
	}
	return d.lowRes[page-1], true
}

// HighRes returns the high-resolution raster for a page, if the page exists.
func (d *Document) HighRes(page int) (string, bool) {
	if page < 1 || page > len(d.highRes) {
		return "", false
	}
	return d.highRes[page-1], true
}

// StripThumbnail returns the image used as the document's static thumbnail:
// the low-resolution raster of the first page.
func (d *Document) StripThumbnail() (string, bool) {
	return d.LowRes(1)
}

// Throttle gates render work under memory pressure. WaitIfPaused blocks
// until it is safe to allocate again and returns false on shutdown.
type Throttle interface {
	WaitIfPaused() bool
}

// Renderer rasterizes documents into a working directory.
type Renderer struct {
	engine   Engine
	workDir  string
	workers  int
	throttle Throttle
}

// NewRenderer creates a Renderer. Pass nil to use the MuPDF engine.
func NewRenderer(engine Engine, workDir string) *Renderer {
	if engine == nil {
		engine = NewFitzEngine()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		logging.Warn("Pagedoc: failed to create work dir: %v", err)
	}
	return &Renderer{
		engine:  engine,
		workDir: workDir,
		workers: workers.ForCPU(8),
	}
}

// SetThrottle installs a memory-pressure gate checked before each page.
func (r *Renderer) SetThrottle(t Throttle) {
	r.throttle = t
}

// Load opens a document and rasterizes every page at both resolutions. The
// low and high passes run concurrently; Load returns only when both are
// complete, so a returned Document is always fully usable. The page files
// are registered with the lifecycle manager as a single set.
//
// On failure nothing stays behind on disk; callers fall back to Placeholder
// and surface the error as a non-fatal notice.
func (r *Renderer) Load(ctx context.Context, path string, lm *lifecycle.Manager) (*Document, error) {
	start := time.Now()

	doc, err := r.engine.Open(path)
	if err != nil {
		metrics.DocumentRenderErrors.Inc()
		return nil, err
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	if pageCount < 1 {
		metrics.DocumentRenderErrors.Inc()
		return nil, fmt.Errorf("document has no pages")
	}

	var wg sync.WaitGroup
	var lowPaths, highPaths []string
	var lowErr, highErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		lowPaths, lowErr = r.renderPass(ctx, doc, pageCount, lowDPI, lowQuality, "low")
	}()
	go func() {
		defer wg.Done()
		highPaths, highErr = r.renderPass(ctx, doc, pageCount, highDPI, highQuality, "high")
	}()
	wg.Wait()

	if lowErr != nil || highErr != nil {
		removeAll(lowPaths)
		removeAll(highPaths)
		metrics.DocumentRenderErrors.Inc()
		if lowErr != nil {
			return nil, lowErr
		}
		return nil, highErr
	}

	// Register the complete page set as one handle: rasters are rebuilt
	// wholesale when the source changes, never patched page by page.
	all := append(append([]string{}, lowPaths...), highPaths...)
	lm.Register(fmt.Sprintf("page rasters for %s", filepath.Base(path)), func() error {
		removeAll(all)
		return nil
	})

	logging.Info("Rendered %d pages of %s in %s", pageCount, filepath.Base(path), time.Since(start).Round(time.Millisecond))
	return &Document{PageCount: pageCount, lowRes: lowPaths, highRes: highPaths}, nil
}

// renderPass rasterizes every page at one DPI across the worker pool.
func (r *Renderer) renderPass(ctx context.Context, doc EngineDoc, pageCount int, dpi float64, quality int, label string) ([]string, error) {
	paths := make([]string, pageCount)
	errs := make([]error, pageCount)

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for i := 0; i < pageCount; i++ {
		if r.throttle != nil && !r.throttle.WaitIfPaused() {
			wg.Wait()
			removeAll(paths)
			return nil, fmt.Errorf("render aborted during shutdown")
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			removeAll(paths)
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			defer func() { <-sem }()
			paths[page], errs[page] = r.renderPage(doc, page, dpi, quality, label)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			removeAll(paths)
			return nil, err
		}
	}

	metrics.PagesRenderedTotal.WithLabelValues(label).Add(float64(pageCount))
	return paths, nil
}

func (r *Renderer) renderPage(doc EngineDoc, page int, dpi float64, quality int, label string) (string, error) {
	img, err := doc.RenderPage(page, dpi)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("failed to encode page %d: %w", page+1, err)
	}

	path := filepath.Join(r.workDir, fmt.Sprintf("%s-%s-p%04d.jpg", uuid.NewString()[:8], label, page+1))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write page %d: %w", page+1, err)
	}
	return path, nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		if p != "" {
			os.Remove(p)
		}
	}
}
