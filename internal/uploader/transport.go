package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"media-author/internal/logging"
	"media-author/internal/mediaclass"
	"media-author/internal/metrics"

	"github.com/google/uuid"
)

// methodOverrideField signals an update to an endpoint that only accepts
// POST.
const methodOverrideField = "_method"

// Field is one metadata key/value pair in the multipart payload. Jobs carry
// an ordered slice rather than a map so the wire layout is deterministic.
type Field struct {
	Name  string
	Value string
}

// Job describes one attempt to transmit an asset. It is created on commit
// and destroyed once a terminal Outcome is recorded.
type Job struct {
	ID       string
	Endpoint string
	// Replace marks an update of an existing catalogue entry; it is sent
	// as a PUT method override.
	Replace bool

	Fields     []Field
	SourcePath string // local source file, empty when editing metadata only
	CoverPath  string // local cover file
	CoverRef   string // remote cover reference, mutually exclusive with CoverPath

	BytesTotal int64
	BytesSent  atomic.Int64
	outcome    atomic.Value // Outcome
}

// NewJob creates a pending Job for the given endpoint.
func NewJob(endpoint string, replace bool) *Job {
	job := &Job{
		ID:       uuid.NewString(),
		Endpoint: endpoint,
		Replace:  replace,
	}
	job.outcome.Store(OutcomePending)
	return job
}

// Outcome returns the job's terminal outcome, or OutcomePending while the
// transfer is still running. Safe to call from any goroutine.
func (j *Job) Outcome() Outcome {
	return j.outcome.Load().(Outcome)
}

func (j *Job) setOutcome(o Outcome) {
	j.outcome.Store(o)
}

// TokenSource supplies the bearer token for Catalogue Storage. Acquisition
// and refresh belong to the external session collaborator.
type TokenSource interface {
	Token() (string, error)
}

// ProgressFunc receives byte-level progress. sent is non-decreasing and
// reaches total exactly when the payload has been fully handed to the
// transport.
type ProgressFunc func(sent, total int64)

// Transport uploads multipart payloads to Catalogue Storage.
type Transport struct {
	client *http.Client
	tokens TokenSource
}

// New creates a Transport. A nil client gets a default with no overall
// timeout: uploads are bounded by cancellation, not a fixed deadline.
func New(client *http.Client, tokens TokenSource) *Transport {
	if client == nil {
		client = &http.Client{}
	}
	return &Transport{client: client, tokens: tokens}
}

// Upload streams the job's payload to its endpoint. Progress is reported
// through onProgress (which may be nil). Cancelling the context aborts the
// transfer and returns ErrCancelled; other failures return *NetworkError or
// *ServerError. The job's Outcome is set before Upload returns.
func (t *Transport) Upload(ctx context.Context, job *Job, onProgress ProgressFunc) error {
	start := time.Now()
	err := t.upload(ctx, job, onProgress)
	job.setOutcome(OutcomeForError(err))

	metrics.UploadsTotal.WithLabelValues(string(job.Outcome())).Inc()
	metrics.UploadDuration.Observe(time.Since(start).Seconds())
	metrics.UploadBytesTotal.Add(float64(job.BytesSent.Load()))

	if err != nil {
		logging.Warn("Upload %s finished %s: %v", job.ID, job.Outcome(), err)
	} else {
		logging.Info("Upload %s finished: %d bytes in %s", job.ID, job.BytesSent.Load(), time.Since(start).Round(time.Millisecond))
	}
	return err
}

func (t *Transport) upload(ctx context.Context, job *Job, onProgress ProgressFunc) error {
	total, err := t.payloadSize(job)
	if err != nil {
		return &NetworkError{Err: err}
	}
	job.BytesTotal = total

	pr, pw := io.Pipe()
	// Closing the reader unblocks the form writer on every exit path,
	// including when the client abandons the body mid-transfer on
	// cancellation or an early server rejection.
	defer pr.Close()
	form := multipart.NewWriter(pw)

	go func() {
		err := t.writeForm(form, job, true)
		if cerr := form.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	counted := &progressReader{
		reader: pr,
		total:  total,
		job:    job,
		report: onProgress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.Endpoint, counted)
	if err != nil {
		return &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.ContentLength = total

	if t.tokens != nil {
		token, err := t.tokens.Token()
		if err != nil {
			return &NetworkError{Err: fmt.Errorf("no session token: %w", err)}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &ServerError{Status: resp.StatusCode, Message: serverMessage(resp.Body)}
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}

// payloadSize computes the exact multipart length without reading file
// contents: the structural bytes come from a dry-run of the form assembly
// and the parts' content lengths equal the file sizes on disk.
func (t *Transport) payloadSize(job *Job) (int64, error) {
	counter := &countingWriter{}
	form := multipart.NewWriter(counter)
	if err := t.writeForm(form, job, false); err != nil {
		return 0, err
	}
	if err := form.Close(); err != nil {
		return 0, err
	}

	total := counter.n
	for _, path := range []string{job.SourcePath, job.CoverPath} {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// writeForm assembles the multipart body. With includeFiles false it writes
// only the structure, for size accounting.
func (t *Transport) writeForm(form *multipart.Writer, job *Job, includeFiles bool) error {
	if job.Replace {
		if err := form.WriteField(methodOverrideField, http.MethodPut); err != nil {
			return err
		}
	}

	for _, field := range job.Fields {
		if err := form.WriteField(field.Name, field.Value); err != nil {
			return err
		}
	}

	if job.CoverRef != "" {
		if err := form.WriteField("coverRef", job.CoverRef); err != nil {
			return err
		}
	}

	if err := writeFilePart(form, "sourceFile", job.SourcePath, includeFiles); err != nil {
		return err
	}
	return writeFilePart(form, "coverFile", job.CoverPath, includeFiles)
}

func writeFilePart(form *multipart.Writer, field, path string, includeContent bool) error {
	if path == "" {
		return nil
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		field, escapeQuotes(filepath.Base(path))))
	header.Set("Content-Type", mediaclass.MimeType(strings.ToLower(filepath.Ext(path))))

	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if !includeContent {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(part, file)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// serverMessage extracts the human-readable error from a rejection body.
// JSON bodies with an "error" or "message" key are preferred; small plain
// bodies are used verbatim.
func serverMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}

	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}

// progressReader counts payload bytes as the HTTP client consumes them.
type progressReader struct {
	reader io.Reader
	total  int64
	job    *Job
	report ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		sent := r.job.BytesSent.Add(int64(n))
		if r.report != nil {
			r.report(sent, r.total)
		}
	}
	return n, err
}

// countingWriter tallies bytes without storing them.
type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}
