package mediaclass

// Class represents the kind of media asset under authoring.
type Class string

const (
	// ClassBook represents paginated documents and plain text.
	ClassBook Class = "book"
	// ClassAudio represents audio recordings.
	ClassAudio Class = "audio"
	// ClassVideo represents video files.
	ClassVideo Class = "video"
)

// All lists every valid media class.
var All = []Class{ClassBook, ClassAudio, ClassVideo}

// Valid reports whether c is a known media class.
func (c Class) Valid() bool {
	switch c {
	case ClassBook, ClassAudio, ClassVideo:
		return true
	}
	return false
}

// BookExtensions maps file extensions to whether they are supported book formats.
var BookExtensions = map[string]bool{
	".pdf":  true,
	".epub": true,
	".mobi": true,
	".txt":  true,
}

// AudioExtensions maps file extensions to whether they are supported audio formats.
var AudioExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".ogg": true,
	".m4a": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".webm": true,
	".mkv":  true,
	".mpeg": true,
	".mpg":  true,
}

// coverExtensions maps file extensions to whether they are supported cover
// image formats. GIF covers are only accepted for video assets.
var coverExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Books
	".pdf":  "application/pdf",
	".epub": "application/epub+zip",
	".mobi": "application/x-mobipocket-ebook",
	".txt":  "text/plain",

	// Audio
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".ogg": "audio/ogg",
	".m4a": "audio/mp4",

	// Video
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",

	// Covers
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// Extensions returns the source-file extension allow-list for a class.
func Extensions(class Class) map[string]bool {
	switch class {
	case ClassBook:
		return BookExtensions
	case ClassAudio:
		return AudioExtensions
	case ClassVideo:
		return VideoExtensions
	}
	return nil
}

// CoverExtensions reports whether ext is an acceptable cover image extension
// for the given class. The extension should be lowercase and include the
// leading dot (e.g., ".jpg").
func CoverExtensions(ext string, class Class) bool {
	if coverExtensions[ext] {
		return true
	}
	// Animated covers are only meaningful next to a video preview.
	return ext == ".gif" && class == ClassVideo
}

// ClassForExt returns the media class a file extension belongs to.
// The extension should be lowercase and include the leading dot.
func ClassForExt(ext string) (Class, bool) {
	switch {
	case BookExtensions[ext]:
		return ClassBook, true
	case AudioExtensions[ext]:
		return ClassAudio, true
	case VideoExtensions[ext]:
		return ClassVideo, true
	}
	return "", false
}

// MimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".pdf").
// Returns "application/octet-stream" if the extension is not recognized.
func MimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
