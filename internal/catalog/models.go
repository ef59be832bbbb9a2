package catalog

import "time"

// Asset is a locally tracked entry that has been committed to Catalogue
// Storage. SourcePath identifies the asset across commits of the same file;
// RemoteID is the identifier Catalogue Storage assigned, when known.
type Asset struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Class           string    `json:"class"`
	SourcePath      string    `json:"sourcePath"`
	RemoteID        string    `json:"remoteId,omitempty"`
	CoverPath       string    `json:"coverPath,omitempty"`
	SizeBytes       int64     `json:"sizeBytes"`
	DurationSeconds float64   `json:"durationSeconds,omitempty"`
	PageCount       int       `json:"pageCount,omitempty"`
	CommittedAt     time.Time `json:"committedAt"`
}

// UploadRecord is one row of upload history.
type UploadRecord struct {
	ID         int64     `json:"id"`
	SourcePath string    `json:"sourcePath"`
	Endpoint   string    `json:"endpoint"`
	Outcome    string    `json:"outcome"`
	Bytes      int64     `json:"bytes"`
	Message    string    `json:"message,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}
