// Package uploader transmits authored assets to Catalogue Storage.
//
// An upload is a streamed multipart form: the asset's metadata fields, at
// most one binary source file and at most one cover file (or a remote cover
// reference). The payload is assembled through an io.Pipe so arbitrarily
// large files never sit fully in memory, and byte-level progress is reported
// through a counting reader wrapped around the pipe.
//
// Failures map to a small typed taxonomy: *ServerError for HTTP statuses at
// or above 300 (carrying the server's message when it is parseable),
// *NetworkError for connection-level problems, and ErrCancelled when the
// operator aborts the transfer. There is no automatic retry; retrying is an
// explicit operator action.
//
// Update-in-place is signaled with a method override field because the
// upstream endpoint only accepts POST; authorization is a bearer token read
// from the session store.
package uploader
