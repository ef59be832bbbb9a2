// Package mediaclass provides shared type definitions and utilities for media
// classification across the media-author application.
//
// This package exists as a dependency-free foundation that can be imported by other
// packages without creating import cycles. It contains primitive types, constants,
// and pure utility functions with no external dependencies beyond the standard library.
//
// # Media Classes
//
// The package defines a Class enum for the three kinds of assets the authoring
// pipeline handles:
//
//	mediaclass.ClassBook  // Paginated documents and plain text (pdf, epub, mobi, txt)
//	mediaclass.ClassAudio // Audio recordings (mp3, wav, ogg, m4a)
//	mediaclass.ClassVideo // Video files (mp4, mkv, avi, mov, ...)
//
// # Extension Detection
//
// Use ClassForExt to determine which class a file belongs to based on its
// extension:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	class, ok := mediaclass.ClassForExt(ext)
//
// Cover images are not a class of their own; use CoverExtensions to check
// whether a file is acceptable as a cover for a given class.
//
// # MIME Types
//
// Use MimeType to get the appropriate MIME type for multipart fields and HTTP
// responses:
//
//	mime := mediaclass.MimeType(".pdf") // "application/pdf"
package mediaclass
