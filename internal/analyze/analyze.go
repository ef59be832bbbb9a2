package analyze

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"media-author/internal/logging"
	"media-author/internal/mediaclass"
	"media-author/internal/metrics"
)

// Result holds extracted metadata. Zero fields mean "unknown"; the Degraded
// flag distinguishes "decoder failed" from "field does not apply".
type Result struct {
	// DurationSeconds is the playable duration rounded down to whole
	// seconds. Audio and video only.
	DurationSeconds int `json:"durationSeconds,omitempty"`

	// Width and Height are intrinsic pixel dimensions. Video only.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Lines, Words and Chars summarize plain-text documents.
	Lines int `json:"lines,omitempty"`
	Words int `json:"words,omitempty"`
	Chars int `json:"chars,omitempty"`

	// Degraded is set when the decoder reported an error. The preview
	// shows metadata as unavailable but the upload stays permitted.
	Degraded bool `json:"degraded,omitempty"`
	// Notice is the operator-facing explanation when Degraded is set.
	Notice string `json:"notice,omitempty"`
}

// Analyzer extracts intrinsic metadata from media files.
type Analyzer struct {
	newDecoder func() Decoder
}

// New creates an Analyzer. newDecoder is called once per analysis so that
// concurrent previews never share a decoder instance; pass nil to use
// ffprobe.
func New(newDecoder func() Decoder) *Analyzer {
	if newDecoder == nil {
		newDecoder = func() Decoder { return NewFFprobeDecoder() }
	}
	return &Analyzer{newDecoder: newDecoder}
}

// Analyze extracts metadata for a file of the given class. Decoder failures
// degrade the result instead of failing the call; the returned error is
// reserved for programmer mistakes (unknown class).
func (a *Analyzer) Analyze(ctx context.Context, path string, class mediaclass.Class) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.WithLabelValues(string(class)).Observe(time.Since(start).Seconds())
	}()

	switch class {
	case mediaclass.ClassAudio, mediaclass.ClassVideo:
		return a.probeMedia(ctx, path, class), nil
	case mediaclass.ClassBook:
		return a.analyzeBook(path), nil
	}
	return nil, fmt.Errorf("unknown media class %q", class)
}

func (a *Analyzer) probeMedia(ctx context.Context, path string, class mediaclass.Class) *Result {
	info, err := a.newDecoder().Probe(ctx, path)
	if err != nil {
		logging.Warn("Analysis degraded for %s: %v", filepath.Base(path), err)
		metrics.AnalysesTotal.WithLabelValues(string(class), "degraded").Inc()
		return &Result{
			Degraded: true,
			Notice:   "media metadata unavailable: the file could not be decoded",
		}
	}

	result := &Result{DurationSeconds: int(info.Duration)}
	if class == mediaclass.ClassVideo {
		result.Width = info.Width
		result.Height = info.Height
	}

	logging.Debug("Analyzed %s: duration %ds, %dx%d",
		filepath.Base(path), result.DurationSeconds, result.Width, result.Height)
	metrics.AnalysesTotal.WithLabelValues(string(class), "ok").Inc()
	return result
}

// analyzeBook handles the book class. Only plain text is summarized here;
// paginated formats get their page count from the document renderer.
func (a *Analyzer) analyzeBook(path string) *Result {
	if strings.ToLower(filepath.Ext(path)) != ".txt" {
		metrics.AnalysesTotal.WithLabelValues(string(mediaclass.ClassBook), "ok").Inc()
		return &Result{}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Analysis degraded for %s: %v", filepath.Base(path), err)
		metrics.AnalysesTotal.WithLabelValues(string(mediaclass.ClassBook), "degraded").Inc()
		return &Result{
			Degraded: true,
			Notice:   "text metadata unavailable: the file could not be read",
		}
	}

	text := string(data)
	result := &Result{
		Lines: countLines(text),
		Words: len(strings.Fields(text)),
		Chars: utf8.RuneCountInString(text),
	}

	logging.Debug("Analyzed %s: %d lines, %d words, %d chars",
		filepath.Base(path), result.Lines, result.Words, result.Chars)
	metrics.AnalysesTotal.WithLabelValues(string(mediaclass.ClassBook), "ok").Inc()
	return result
}

// countLines counts lines the way an editor does: a trailing newline does
// not start an extra line, and an empty file has zero lines.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
