package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"

	"media-author/internal/lifecycle"
	"media-author/internal/logging"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const (
	// frameWidth is the fixed raster width for auto-captured video frames.
	frameWidth = 320
	// coverMaxWidth caps operator-supplied covers for preview display.
	coverMaxWidth = 640
)

// Generator derives thumbnail images into a working directory. Every file it
// writes is registered with the lifecycle manager it is handed, so artifacts
// disappear together with the preview that owns them.
type Generator struct {
	workDir string
}

// NewGenerator creates a Generator writing into workDir.
func NewGenerator(workDir string) *Generator {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		logging.Warn("Thumbnail: failed to create work dir: %v", err)
	}
	return &Generator{workDir: workDir}
}

// CaptureFrame extracts a representative frame from a video and scales it to
// the fixed thumbnail width. The seek offset is 1 second clamped to the clip
// duration: clips shorter than a second are captured from their first
// decodable frame instead of failing.
func (g *Generator) CaptureFrame(ctx context.Context, path string, durationSeconds int, lm *lifecycle.Manager) (ImageRef, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return ImageRef{}, fmt.Errorf("ffmpeg not found: %w", err)
	}

	seek := durationSeconds >= 1
	frame, err := g.extractFrame(ctx, path, seek)
	if err != nil && seek {
		// Seek past the end of a stream with a misreported duration;
		// clamp by retrying from the start.
		logging.Debug("Frame capture with seek failed for %s: %v, retrying without seek", filepath.Base(path), err)
		frame, err = g.extractFrame(ctx, path, false)
	}
	if err != nil {
		return ImageRef{}, fmt.Errorf("frame capture failed: %w", err)
	}

	thumb := imaging.Resize(frame, frameWidth, 0, imaging.Lanczos)
	return g.write(thumb, TierGenerated, lm)
}

// extractFrame runs ffmpeg to pull a single frame to stdout as PNG.
func (g *Generator) extractFrame(ctx context.Context, path string, seek bool) (image.Image, error) {
	args := []string{"-i", path}
	if seek {
		args = []string{"-ss", "00:00:01", "-i", path}
	}
	args = append(args,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// ProcessCover decodes an operator-supplied cover image and normalizes it
// for preview display.
func (g *Generator) ProcessCover(path string, lm *lifecycle.Manager) (ImageRef, error) {
	img, err := decodeCover(path)
	if err != nil {
		return ImageRef{}, fmt.Errorf("cover decode failed: %w", err)
	}

	if img.Bounds().Dx() > coverMaxWidth {
		img = imaging.Resize(img, coverMaxWidth, 0, imaging.Lanczos)
	}
	return g.write(img, TierCustom, lm)
}

// decodeCover tries libvips first for decode-time shrinking, then imaging,
// then the registered stdlib decoders (webp comes from x/image).
func decodeCover(path string) (image.Image, error) {
	if img, err := LoadImageWithVips(path, coverMaxWidth, 0); err == nil {
		return img, nil
	}

	if img, err := imaging.Open(path, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	logging.Debug("Decoded cover format: %s for %s", format, filepath.Base(path))
	return img, nil
}

// write encodes the image as JPEG into the work directory and registers the
// file with the lifecycle manager.
func (g *Generator) write(img image.Image, tier Tier, lm *lifecycle.Manager) (ImageRef, error) {
	path := filepath.Join(g.workDir, uuid.NewString()+".jpg")

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return ImageRef{}, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return ImageRef{}, fmt.Errorf("failed to write thumbnail: %w", err)
	}

	lm.Register("thumbnail "+filepath.Base(path), func() error {
		return os.Remove(path)
	})

	logging.Debug("Thumbnail written: %s (%s, %d bytes)", filepath.Base(path), tier, buf.Len())
	return ImageRef{Path: path, Tier: tier}, nil
}
