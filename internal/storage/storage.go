// Package storage persists processed scan results. The core pipeline
// never touches the store; the CLI and server wire it in.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/scanforge/scanforge/internal/fields"
)

// ErrNotFound reports a lookup for an id with no stored record.
var ErrNotFound = errors.New("scan record not found")

// maxImagePayload caps stored image blobs. Payloads over the cap are
// dropped silently on save; the record itself is still stored.
const maxImagePayload = 4 << 20

// ScanRecord is one processed document as persisted.
type ScanRecord struct {
	ID                string         `json:"id"`
	FileName          string         `json:"file_name"`
	FileType          string         `json:"file_type"`
	TimestampMillis   int64          `json:"timestamp_millis"`
	ExtractedText     string         `json:"extracted_text"`
	Confidence        float64        `json:"confidence"`
	Fields            []fields.Field `json:"fields"`
	ImageData         []byte         `json:"image_data,omitempty"`
	EnhancedImageData []byte         `json:"enhanced_image_data,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	file_type TEXT NOT NULL,
	timestamp_millis INTEGER NOT NULL,
	extracted_text TEXT NOT NULL,
	confidence REAL NOT NULL,
	fields TEXT NOT NULL,
	image_data BLOB,
	enhanced_image_data BLOB
);
CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(timestamp_millis);
`

// Store is a SQLite-backed scan record store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and if needed initializes) the store at path. Use
// ":memory:" for an ephemeral store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing store schema: %w", err)
	}
	logger.Debug("scan store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save stores the record, assigning a UUID and timestamp when unset.
// Image payloads over the size cap are omitted.
func (s *Store) Save(ctx context.Context, rec *ScanRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.TimestampMillis == 0 {
		rec.TimestampMillis = time.Now().UnixMilli()
	}

	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encoding fields: %w", err)
	}

	imageData := rec.ImageData
	if len(imageData) > maxImagePayload {
		s.logger.Warn("image payload over cap, dropping", "id", rec.ID, "bytes", len(imageData))
		imageData = nil
	}
	enhancedData := rec.EnhancedImageData
	if len(enhancedData) > maxImagePayload {
		s.logger.Warn("enhanced image payload over cap, dropping", "id", rec.ID, "bytes", len(enhancedData))
		enhancedData = nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO scans
		(id, file_name, file_type, timestamp_millis, extracted_text, confidence, fields, image_data, enhanced_image_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, rec.FileType, rec.TimestampMillis,
		rec.ExtractedText, rec.Confidence, string(fieldsJSON), imageData, enhancedData)
	if err != nil {
		return fmt.Errorf("saving scan %s: %w", rec.ID, err)
	}
	s.logger.Debug("scan saved", "id", rec.ID, "file", rec.FileName)
	return nil
}

// Get returns the record with the given id, including image payloads.
func (s *Store) Get(ctx context.Context, id string) (*ScanRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, file_type, timestamp_millis, extracted_text, confidence, fields, image_data, enhanced_image_data
		FROM scans WHERE id = ?`, id)

	var rec ScanRecord
	var fieldsJSON string
	err := row.Scan(&rec.ID, &rec.FileName, &rec.FileType, &rec.TimestampMillis,
		&rec.ExtractedText, &rec.Confidence, &fieldsJSON, &rec.ImageData, &rec.EnhancedImageData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading scan %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
		return nil, fmt.Errorf("decoding fields of scan %s: %w", id, err)
	}
	return &rec, nil
}

// List returns all records newest first, without image payloads.
func (s *Store) List(ctx context.Context) ([]ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, file_type, timestamp_millis, extracted_text, confidence, fields
		FROM scans ORDER BY timestamp_millis DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var fieldsJSON string
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.FileType, &rec.TimestampMillis,
			&rec.ExtractedText, &rec.Confidence, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields of scan %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting scan %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
