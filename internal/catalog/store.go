package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-author/internal/logging"
	"media-author/internal/metrics"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// Store tracks committed assets and upload history in a local SQLite
// database. It also remembers the cover used for each asset so a later
// selection of the same file can show it before any generation work starts.
type Store struct {
	db      *sql.DB
	dbPath  string
	stats   metrics.Stats
	statsMu sync.RWMutex
}

// New opens (creating if necessary) the catalogue store at dbPath. The
// parent directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Catalogue store path: %s", dbPath)

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogue store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalogue store: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}

	if err := s.refreshStats(ctx); err != nil {
		logging.Warn("Failed to load initial catalogue stats: %v", err)
	}

	logging.Info("Catalogue store initialized at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	-- Committed assets
	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		class TEXT NOT NULL,
		source_path TEXT NOT NULL UNIQUE,
		remote_id TEXT,
		cover_path TEXT,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		duration_seconds REAL NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		committed_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_assets_class ON assets(class);
	CREATE INDEX IF NOT EXISTS idx_assets_committed ON assets(committed_at);

	-- Upload history
	CREATE TABLE IF NOT EXISTS uploads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_path TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		outcome TEXT NOT NULL,
		bytes INTEGER NOT NULL DEFAULT 0,
		message TEXT,
		finished_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_uploads_source ON uploads(source_path);
	CREATE INDEX IF NOT EXISTS idx_uploads_finished ON uploads(finished_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordCommit inserts or updates the asset row for a successful upload.
func (s *Store) RecordCommit(ctx context.Context, asset *Asset) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_commit", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	INSERT INTO assets (title, class, source_path, remote_id, cover_path, size_bytes, duration_seconds, page_count, committed_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'), strftime('%s', 'now'))
	ON CONFLICT(source_path) DO UPDATE SET
		title = excluded.title,
		class = excluded.class,
		remote_id = CASE WHEN excluded.remote_id != '' THEN excluded.remote_id ELSE assets.remote_id END,
		cover_path = CASE WHEN excluded.cover_path != '' THEN excluded.cover_path ELSE assets.cover_path END,
		size_bytes = excluded.size_bytes,
		duration_seconds = excluded.duration_seconds,
		page_count = excluded.page_count,
		updated_at = strftime('%s', 'now')
	`

	_, err = s.db.ExecContext(ctx, query,
		asset.Title, asset.Class, asset.SourcePath, asset.RemoteID, asset.CoverPath,
		asset.SizeBytes, asset.DurationSeconds, asset.PageCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record commit: %w", err)
	}

	if statsErr := s.refreshStats(ctx); statsErr != nil {
		logging.Warn("Failed to refresh catalogue stats: %v", statsErr)
	}
	return nil
}

// GetAsset returns the committed asset for a source path, or nil when the
// path has never been committed.
func (s *Store) GetAsset(ctx context.Context, sourcePath string) (*Asset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_asset", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	SELECT id, title, class, source_path, COALESCE(remote_id, ''), COALESCE(cover_path, ''),
	       size_bytes, duration_seconds, page_count, committed_at
	FROM assets WHERE source_path = ?
	`

	var asset Asset
	var committedAt int64

	err = s.db.QueryRowContext(ctx, query, sourcePath).Scan(
		&asset.ID, &asset.Title, &asset.Class, &asset.SourcePath,
		&asset.RemoteID, &asset.CoverPath,
		&asset.SizeBytes, &asset.DurationSeconds, &asset.PageCount, &committedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load asset: %w", err)
	}

	asset.CommittedAt = time.Unix(committedAt, 0)
	return &asset, nil
}

// PersistedCover returns the cover recorded for a source path on a previous
// commit, or "" when none is known.
func (s *Store) PersistedCover(ctx context.Context, sourcePath string) (string, error) {
	asset, err := s.GetAsset(ctx, sourcePath)
	if err != nil || asset == nil {
		return "", err
	}
	return asset.CoverPath, nil
}

// ListAssets returns committed assets, newest first. class filters by media
// class when non-empty.
func (s *Store) ListAssets(ctx context.Context, class string, limit int) ([]Asset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_assets", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	query := `
	SELECT id, title, class, source_path, COALESCE(remote_id, ''), COALESCE(cover_path, ''),
	       size_bytes, duration_seconds, page_count, committed_at
	FROM assets
	`
	args := []interface{}{}
	if class != "" {
		query += " WHERE class = ?"
		args = append(args, class)
	}
	query += " ORDER BY committed_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var asset Asset
		var committedAt int64
		if err = rows.Scan(
			&asset.ID, &asset.Title, &asset.Class, &asset.SourcePath,
			&asset.RemoteID, &asset.CoverPath,
			&asset.SizeBytes, &asset.DurationSeconds, &asset.PageCount, &committedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		asset.CommittedAt = time.Unix(committedAt, 0)
		assets = append(assets, asset)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// RecordUpload appends one row of upload history.
func (s *Store) RecordUpload(ctx context.Context, rec *UploadRecord) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_upload", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO uploads (source_path, endpoint, outcome, bytes, message)
		VALUES (?, ?, ?, ?, ?)
	`, rec.SourcePath, rec.Endpoint, rec.Outcome, rec.Bytes, rec.Message)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// RecentUploads returns upload history, newest first.
func (s *Store) RecentUploads(ctx context.Context, limit int) ([]UploadRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("recent_uploads", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_path, endpoint, outcome, bytes, COALESCE(message, ''), finished_at
		FROM uploads ORDER BY finished_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var records []UploadRecord
	for rows.Next() {
		var rec UploadRecord
		var finishedAt int64
		if err = rows.Scan(&rec.ID, &rec.SourcePath, &rec.Endpoint, &rec.Outcome, &rec.Bytes, &rec.Message, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		rec.FinishedAt = time.Unix(finishedAt, 0)
		records = append(records, rec)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetStats returns cached asset counts for the metrics collector.
func (s *Store) GetStats() metrics.Stats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	return s.stats
}

func (s *Store) refreshStats(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT class, COUNT(*) FROM assets GROUP BY class")
	if err != nil {
		return err
	}
	defer rows.Close()

	var stats metrics.Stats
	for rows.Next() {
		var class string
		var count int
		if err := rows.Scan(&class, &count); err != nil {
			return err
		}
		switch class {
		case "book":
			stats.Books = count
		case "audio":
			stats.Audio = count
		case "video":
			stats.Videos = count
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.statsMu.Lock()
	s.stats = stats
	s.statsMu.Unlock()
	return nil
}

// UpdateDBMetrics exports connection pool gauges.
func (s *Store) UpdateDBMetrics() {
	metrics.DBConnectionsOpen.Set(float64(s.db.Stats().OpenConnections))
}

// recordQuery records store query metrics
func recordQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
