package upload

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// StateDB remembers which session logs were uploaded, by path, size and
// content hash, so unchanged files are not sent again.
type StateDB struct {
	db *sql.DB
}

// UploadedLog is one remembered file.
type UploadedLog struct {
	Path       string
	Size       int64
	Hash       string
	Sessions   int
	UploadedAt time.Time
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS uploaded_logs (
		path        TEXT PRIMARY KEY,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		sessions    INTEGER NOT NULL DEFAULT 0,
		uploaded_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsUploaded checks if a file has already been uploaded with the same size and hash.
func (s *StateDB) IsUploaded(relPath string, size int64, hash string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM uploaded_logs WHERE path = ? AND size = ? AND hash = ?`,
		relPath, size, hash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkUploaded records that a file and its sessions were uploaded.
func (s *StateDB) MarkUploaded(relPath string, size int64, hash string, sessions int) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO uploaded_logs (path, size, hash, sessions, uploaded_at) VALUES (?, ?, ?, ?, ?)`,
		relPath, size, hash, sessions, time.Now().Unix(),
	)
	return err
}

// Forget drops a file so the next run uploads it again.
func (s *StateDB) Forget(relPath string) error {
	_, err := s.db.Exec(`DELETE FROM uploaded_logs WHERE path = ?`, relPath)
	return err
}

// List returns every remembered file ordered by path.
func (s *StateDB) List() ([]UploadedLog, error) {
	rows, err := s.db.Query(`SELECT path, size, hash, sessions, uploaded_at FROM uploaded_logs ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UploadedLog
	for rows.Next() {
		var l UploadedLog
		var at int64
		if err := rows.Scan(&l.Path, &l.Size, &l.Hash, &l.Sessions, &at); err != nil {
			return nil, err
		}
		l.UploadedAt = time.Unix(at, 0).UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
