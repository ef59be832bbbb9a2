package pagedoc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"

	"media-author/internal/lifecycle"
	"media-author/internal/logging"

	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderWidth  = 320
	placeholderHeight = 420
)

// Placeholder synthesizes a single-page stand-in for a document that could
// not be rendered. It carries the file name and size so the operator still
// sees what they selected; the authoring flow continues unaffected.
func (r *Renderer) Placeholder(path string, size int64, lm *lifecycle.Manager) (*Document, error) {
	img := drawPlaceholder(filepath.Base(path), size)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: highQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}

	out := filepath.Join(r.workDir, uuid.NewString()[:8]+"-placeholder.jpg")
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write placeholder: %w", err)
	}

	lm.Register("placeholder for "+filepath.Base(path), func() error {
		return os.Remove(out)
	})

	logging.Debug("Placeholder written for %s", filepath.Base(path))
	return &Document{
		PageCount: 1,
		lowRes:    []string{out},
		highRes:   []string{out},
	}, nil
}

func drawPlaceholder(name string, size int64) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))

	bg := color.RGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF}
	border := color.RGBA{R: 0xAA, G: 0xAA, B: 0xAA, A: 0xFF}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	for x := 0; x < placeholderWidth; x++ {
		img.Set(x, 0, border)
		img.Set(x, placeholderHeight-1, border)
	}
	for y := 0; y < placeholderHeight; y++ {
		img.Set(0, y, border)
		img.Set(placeholderWidth-1, y, border)
	}

	drawText(img, "preview unavailable", 40)
	drawText(img, truncateName(name), placeholderHeight/2)
	drawText(img, placeholderSize(size), placeholderHeight/2+24)

	return img
}

// drawText renders a centered line with the basic bitmap face.
func drawText(img *image.RGBA, text string, y int) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	x := (placeholderWidth - width) / 2
	if x < 4 {
		x = 4
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// truncateName keeps file names inside the placeholder width.
func truncateName(name string) string {
	const maxChars = 40
	if len(name) <= maxChars {
		return name
	}
	return name[:maxChars-3] + "..."
}

func placeholderSize(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}
