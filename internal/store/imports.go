package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// WorkbookImport is a stored copy of an imported dataset workbook.
type WorkbookImport struct {
	ID          int64
	FetchedAt   time.Time
	Source      string
	PayloadHash string
	Records     sql.NullInt64
	SizeBytes   int64
}

// HashPayload returns the hex SHA-256 used to deduplicate imports.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// StoreWorkbook stores a compressed workbook payload.
// Returns the import ID, or 0 if an identical payload was already stored.
func (s *Store) StoreWorkbook(source string, payload []byte) (int64, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return 0, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("close gzip: %w", err)
	}

	result, err := s.db.Exec(`
		INSERT INTO workbook_imports (fetched_at, source, payload_compressed, payload_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(payload_hash) DO NOTHING
	`, s.clock.Now().UTC(), source, buf.Bytes(), HashPayload(payload))
	if err != nil {
		return 0, fmt.Errorf("insert workbook: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, nil
	}
	return result.LastInsertId()
}

// SetImportRecordCount records how many dataset rows an import produced.
func (s *Store) SetImportRecordCount(id int64, records int) error {
	_, err := s.db.Exec(`UPDATE workbook_imports SET records = ? WHERE id = ?`, records, id)
	return err
}

// GetWorkbook retrieves and decompresses a stored workbook by ID.
func (s *Store) GetWorkbook(id int64) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRow(`SELECT payload_compressed FROM workbook_imports WHERE id = ?`, id).
		Scan(&compressed)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// LatestImport returns the most recent workbook import, or nil if there is none.
func (s *Store) LatestImport() (*WorkbookImport, error) {
	row := s.db.QueryRow(`
		SELECT id, fetched_at, source, payload_hash, records, LENGTH(payload_compressed)
		FROM workbook_imports
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`)

	var w WorkbookImport
	err := row.Scan(&w.ID, &w.FetchedAt, &w.Source, &w.PayloadHash, &w.Records, &w.SizeBytes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
