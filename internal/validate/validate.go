package validate

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"media-author/internal/mediaclass"
)

// Limits holds the per-class size ceilings in bytes. The ceilings are
// configuration, not business logic; startup resolves them from the
// environment and passes them down.
type Limits struct {
	VideoMaxBytes int64
	AudioMaxBytes int64
	BookMaxBytes  int64
	CoverMaxBytes int64
}

// DefaultLimits returns the ceilings used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		VideoMaxBytes: 500 * 1024 * 1024,
		AudioMaxBytes: 100 * 1024 * 1024,
		BookMaxBytes:  50 * 1024 * 1024,
		CoverMaxBytes: 10 * 1024 * 1024,
	}
}

// sourceMax returns the ceiling for a class's source file.
func (l Limits) sourceMax(class mediaclass.Class) int64 {
	switch class {
	case mediaclass.ClassVideo:
		return l.VideoMaxBytes
	case mediaclass.ClassAudio:
		return l.AudioMaxBytes
	case mediaclass.ClassBook:
		return l.BookMaxBytes
	}
	return 0
}

// Error is a validation failure with an operator-facing message. It blocks
// submission and never reaches the network.
type Error struct {
	Field   string // "sourceFile", "coverFile" or a metadata field name
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// CheckSource validates a source file for the given media class.
// It returns nil when the file may proceed to analysis.
func CheckSource(name string, size int64, class mediaclass.Class, limits Limits) error {
	if !class.Valid() {
		return &Error{Field: "sourceFile", Message: fmt.Sprintf("unknown media class %q", class)}
	}

	ext := strings.ToLower(filepath.Ext(name))
	allowed := mediaclass.Extensions(class)
	if !allowed[ext] {
		return &Error{
			Field:   "sourceFile",
			Message: fmt.Sprintf("unsupported %s format %q, expected one of: %s", class, ext, extList(allowed)),
		}
	}

	if max := limits.sourceMax(class); max > 0 && size > max {
		return &Error{
			Field:   "sourceFile",
			Message: fmt.Sprintf("file exceeds the %s size limit of %s", class, humanBytes(max)),
		}
	}

	if size <= 0 {
		return &Error{Field: "sourceFile", Message: "file is empty or corrupted"}
	}

	return nil
}

// CheckCover validates a cover image intended for an asset of the given class.
func CheckCover(name string, size int64, class mediaclass.Class, limits Limits) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !mediaclass.CoverExtensions(ext, class) {
		return &Error{
			Field:   "coverFile",
			Message: fmt.Sprintf("unsupported cover format %q, expected jpeg, png or webp", ext),
		}
	}

	if limits.CoverMaxBytes > 0 && size > limits.CoverMaxBytes {
		return &Error{
			Field:   "coverFile",
			Message: fmt.Sprintf("cover exceeds the size limit of %s", humanBytes(limits.CoverMaxBytes)),
		}
	}

	if size <= 0 {
		return &Error{Field: "coverFile", Message: "file is empty or corrupted"}
	}

	return nil
}

// Languages is the closed vocabulary for the metadata language field,
// as ISO 639-1 codes.
var Languages = map[string]bool{
	"de": true, "en": true, "es": true, "fr": true, "it": true,
	"ja": true, "nl": true, "pt": true, "ru": true, "zh": true,
}

// Genres enumerates the accepted genre/category values per media class.
var Genres = map[mediaclass.Class]map[string]bool{
	mediaclass.ClassBook: {
		"fiction": true, "non-fiction": true, "reference": true,
		"comics": true, "poetry": true, "technical": true,
	},
	mediaclass.ClassAudio: {
		"music": true, "audiobook": true, "podcast": true,
		"field-recording": true,
	},
	mediaclass.ClassVideo: {
		"film": true, "documentary": true, "series": true,
		"home-video": true, "lecture": true,
	},
}

// CheckMetadata validates the enumerated metadata fields for the given
// class. Empty values pass: both fields are optional. The free-text fields
// are not checked here.
func CheckMetadata(class mediaclass.Class, language, genre string) error {
	if language != "" && !Languages[language] {
		return &Error{
			Field:   "language",
			Message: fmt.Sprintf("unknown language %q, expected one of: %s", language, extList(Languages)),
		}
	}
	if genre != "" && !Genres[class][genre] {
		return &Error{
			Field:   "genre",
			Message: fmt.Sprintf("unknown %s genre %q, expected one of: %s", class, genre, extList(Genres[class])),
		}
	}
	return nil
}

// extList renders an allow-list as a stable comma-separated string for
// operator messages.
func extList(allowed map[string]bool) string {
	exts := make([]string, 0, len(allowed))
	for ext := range allowed {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

// humanBytes formats a byte count in whole binary units for messages.
func humanBytes(n int64) string {
	switch {
	case n >= 1024*1024*1024:
		return fmt.Sprintf("%dGB", n/(1024*1024*1024))
	case n >= 1024*1024:
		return fmt.Sprintf("%dMB", n/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%dKB", n/1024)
	}
	return fmt.Sprintf("%dB", n)
}
