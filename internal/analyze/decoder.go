package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"media-author/internal/logging"
)

// ProbeInfo is what a decoder reports about a media file.
type ProbeInfo struct {
	Duration float64 // seconds, 0 if the decoder could not determine it
	Width    int     // video only
	Height   int     // video only
}

// Decoder is the platform decoder capability. Each analysis call may assume
// exclusive use of the instance it is given; injecting one per operation
// avoids cross-talk between concurrent previews.
type Decoder interface {
	Probe(ctx context.Context, path string) (ProbeInfo, error)
}

// FFprobeDecoder probes media files with an ffprobe subprocess.
type FFprobeDecoder struct{}

// NewFFprobeDecoder returns a Decoder backed by the ffprobe binary on PATH.
func NewFFprobeDecoder() *FFprobeDecoder {
	return &FFprobeDecoder{}
}

// ffprobe's JSON output. Numeric fields in the format section arrive as
// strings.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe runs ffprobe against the file and extracts duration and dimensions.
func (d *FFprobeDecoder) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ProbeInfo{}, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return ProbeInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := ProbeInfo{}
	if out.Format.Duration != "" {
		if dur, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
			info.Duration = dur
		} else {
			logging.Debug("ffprobe reported unparseable duration %q for %s", out.Format.Duration, path)
		}
	}

	for _, stream := range out.Streams {
		if stream.CodecType == "video" && stream.Width > 0 && stream.Height > 0 {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}

	return info, nil
}
