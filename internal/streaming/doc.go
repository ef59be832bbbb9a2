/*
Package streaming provides timeout-protected streaming for HTTP responses.

The authoring console plays the selected source file back to the operator
before commit. A stalled or disconnected player would otherwise hold the
daemon's file handle open indefinitely; TimeoutWriter bounds each write,
terminates idle connections, and splits large writes into flushed chunks.

Usage:

	file, err := os.Open(sourcePath)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	err = streaming.Stream(r.Context(), w, file, streaming.DefaultConfig())
	if err != nil && err != streaming.ErrClientGone {
		logging.Warn("Playback stream failed: %v", err)
	}

ErrClientGone is an expected outcome (the operator closed the player), not a
server fault.
*/
package streaming
