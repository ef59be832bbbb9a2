// Package validate implements pre-analysis checks for files entering the
// authoring pipeline.
//
// Validation is pure: it inspects only the file name and reported size, never
// the file contents. A file that fails validation must not reach the analyzer
// or any decoder; callers surface the returned message to the operator and
// stop.
//
// Checks run in a fixed order and the first failure wins:
//
//  1. Extension allow-list for the media class (or cover allow-list)
//  2. Per-class size ceiling (configured, see Limits)
//  3. Non-zero byte length
package validate
