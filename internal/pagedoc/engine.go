package pagedoc

import (
	"fmt"
	"image"
	"sync"

	"media-author/internal/logging"

	"github.com/gen2brain/go-fitz"
)

// Engine abstracts the document rendering engine so tests can substitute a
// synthetic one. The production engine is MuPDF via go-fitz.
type Engine interface {
	// Open parses a document and returns a handle for rendering.
	Open(path string) (EngineDoc, error)
}

// EngineDoc is an open document inside the engine.
type EngineDoc interface {
	// PageCount returns the number of pages.
	PageCount() int
	// RenderPage rasterizes a page (0-based) at the given DPI.
	RenderPage(page int, dpi float64) (image.Image, error)
	// Close releases the engine's document state.
	Close() error
}

// fitzEngine renders through MuPDF. The engine itself is acquired lazily on
// first use; Open is the second acquisition, per document.
type fitzEngine struct {
	once sync.Once
	err  error
}

// NewFitzEngine returns the MuPDF-backed engine.
func NewFitzEngine() Engine {
	return &fitzEngine{}
}

// probeDoc is a one-page PDF small enough to embed. Opening it forces MuPDF
// to build its context, so an unusable engine shows up here rather than on
// the first operator-selected document.
var probeDoc = []byte("%PDF-1.4\n" +
	"1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
	"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
	"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 72 72]>>endobj\n" +
	"trailer<</Size 4/Root 1 0 R>>\n" +
	"%%EOF\n")

// load performs the one-time engine acquisition. The probe result is cached;
// a failed acquisition fails every subsequent Open the same way.
func (e *fitzEngine) load() error {
	e.once.Do(func() {
		doc, err := fitz.NewFromMemory(probeDoc)
		if err != nil {
			e.err = fmt.Errorf("mupdf unavailable: %w", err)
			logging.Error("Pagedoc: MuPDF engine probe failed: %v", err)
			return
		}
		doc.Close()
		logging.Debug("Pagedoc: MuPDF engine ready (version %s)", fitz.Version)
	})
	return e.err
}

func (e *fitzEngine) Open(path string) (EngineDoc, error) {
	if err := e.load(); err != nil {
		return nil, fmt.Errorf("rendering engine unavailable: %w", err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return &fitzDoc{doc: doc}, nil
}

type fitzDoc struct {
	doc *fitz.Document
}

func (d *fitzDoc) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDoc) RenderPage(page int, dpi float64) (image.Image, error) {
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *fitzDoc) Close() error {
	return d.doc.Close()
}
