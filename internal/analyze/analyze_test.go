package analyze

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"media-author/internal/mediaclass"
)

type fakeDecoder struct {
	info   ProbeInfo
	err    error
	probes int
}

func (f *fakeDecoder) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	f.probes++
	return f.info, f.err
}

func newFakeAnalyzer(decoder *fakeDecoder) *Analyzer {
	return New(func() Decoder { return decoder })
}

func TestAnalyzeVideo(t *testing.T) {
	decoder := &fakeDecoder{info: ProbeInfo{Duration: 12.9, Width: 1920, Height: 1080}}
	a := newFakeAnalyzer(decoder)

	result, err := a.Analyze(context.Background(), "/tmp/clip.mp4", mediaclass.ClassVideo)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if result.Degraded {
		t.Error("unexpected degraded result")
	}
	if result.DurationSeconds != 12 {
		t.Errorf("DurationSeconds = %d, want 12 (floor of 12.9)", result.DurationSeconds)
	}
	if result.Width != 1920 || result.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", result.Width, result.Height)
	}
}

func TestAnalyzeAudioOmitsDimensions(t *testing.T) {
	decoder := &fakeDecoder{info: ProbeInfo{Duration: 300.2, Width: 640, Height: 480}}
	a := newFakeAnalyzer(decoder)

	result, err := a.Analyze(context.Background(), "/tmp/track.mp3", mediaclass.ClassAudio)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if result.DurationSeconds != 300 {
		t.Errorf("DurationSeconds = %d, want 300", result.DurationSeconds)
	}
	if result.Width != 0 || result.Height != 0 {
		t.Errorf("audio result carries dimensions %dx%d, want none", result.Width, result.Height)
	}
}

func TestAnalyzeDecoderFailureDegrades(t *testing.T) {
	decoder := &fakeDecoder{err: errors.New("moov atom not found")}
	a := newFakeAnalyzer(decoder)

	result, err := a.Analyze(context.Background(), "/tmp/broken.mp4", mediaclass.ClassVideo)
	if err != nil {
		t.Fatalf("decoder failure must not fail the call, got %v", err)
	}

	if !result.Degraded {
		t.Error("expected degraded result")
	}
	if result.Notice == "" {
		t.Error("degraded result is missing an operator notice")
	}
	if result.DurationSeconds != 0 {
		t.Errorf("degraded result has duration %d, want 0", result.DurationSeconds)
	}
}

func TestAnalyzePlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	// Two lines, a trailing newline must not count as a third.
	content := "hello brave new world\nsecond line here\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	decoder := &fakeDecoder{}
	a := newFakeAnalyzer(decoder)

	result, err := a.Analyze(context.Background(), path, mediaclass.ClassBook)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if result.Lines != 2 {
		t.Errorf("Lines = %d, want 2", result.Lines)
	}
	if result.Words != 7 {
		t.Errorf("Words = %d, want 7", result.Words)
	}
	if result.Chars != len([]rune(content)) {
		t.Errorf("Chars = %d, want %d", result.Chars, len([]rune(content)))
	}
	if result.DurationSeconds != 0 {
		t.Error("text documents must not carry a duration")
	}
	if decoder.probes != 0 {
		t.Errorf("plain text analysis invoked the decoder %d times, want 0", decoder.probes)
	}
}

func TestAnalyzePaginatedBookSkipsDecoder(t *testing.T) {
	decoder := &fakeDecoder{}
	a := newFakeAnalyzer(decoder)

	result, err := a.Analyze(context.Background(), "/tmp/manual.pdf", mediaclass.ClassBook)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.Degraded {
		t.Error("pdf without text analysis must not be degraded")
	}
	if decoder.probes != 0 {
		t.Errorf("pdf analysis invoked the media decoder %d times, want 0", decoder.probes)
	}
}

func TestAnalyzeUnreadableTextDegrades(t *testing.T) {
	a := newFakeAnalyzer(&fakeDecoder{})

	result, err := a.Analyze(context.Background(), "/nonexistent/gone.txt", mediaclass.ClassBook)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !result.Degraded {
		t.Error("expected degraded result for unreadable file")
	}
}

func TestAnalyzeUnknownClass(t *testing.T) {
	a := newFakeAnalyzer(&fakeDecoder{})

	if _, err := a.Analyze(context.Background(), "/tmp/x", mediaclass.Class("podcast")); err == nil {
		t.Error("expected error for unknown class")
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"Empty", "", 0},
		{"SingleNoNewline", "one", 1},
		{"SingleWithNewline", "one\n", 1},
		{"TwoLines", "one\ntwo", 2},
		{"TrailingNewline", "one\ntwo\n", 2},
		{"BlankLinesCount", "one\n\nthree\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countLines(tt.text); got != tt.expected {
				t.Errorf("countLines(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}
}
