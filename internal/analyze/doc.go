// Package analyze extracts intrinsic metadata from raw media files before
// they are previewed or uploaded.
//
// Audio and video files are handed to a Decoder capability (by default an
// ffprobe subprocess) which reports duration and, for video, intrinsic pixel
// dimensions. Plain-text documents are read directly and summarized as
// line/word/character counts; they carry no duration.
//
// Analysis never blocks the authoring flow. When the decoder cannot make
// sense of a file (corrupt data, unsupported codec), Analyze returns a
// degraded Result with a notice for the operator instead of an error; the
// preview renders with metadata shown as unavailable and the upload stays
// permitted.
package analyze
