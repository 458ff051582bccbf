package upload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/sessionlog"
	"github.com/google/uuid"
)

// sessionNamespace seeds the IDs of log records that carry none.
var sessionNamespace = uuid.MustParse("0b8f5a52-6c1e-4d7a-9b43-5f0c2e7d9a61")

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SessionsSent     int
	SessionsInserted int
}

// Uploader walks a directory of YAML session logs and POSTs the sessions of
// every new or changed file to the SwimTrack server.
type Uploader struct {
	client    *Client
	state     *StateDB
	dir       string
	dryRun    bool
	batchSize int
	log       *slog.Logger
	stats     Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client *Client, state *StateDB, dir string, dryRun bool, batchSize int, log *slog.Logger) *Uploader {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Uploader{
		client:    client,
		state:     state,
		dir:       dir,
		dryRun:    dryRun,
		batchSize: batchSize,
		log:       log,
	}
}

// fileInfo tracks a file's metadata for state DB operations.
type fileInfo struct {
	path    string
	relPath string
	size    int64
	hash    string
}

// Run executes the upload pipeline. Files that fail to parse are counted and
// skipped; a failed upload stops the run so the file is retried next time.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := u.collect()
	if err != nil {
		return &u.stats, err
	}

	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		if err := u.processFile(ctx, fi); err != nil {
			return &u.stats, fmt.Errorf("uploading %s: %w", fi.relPath, err)
		}
	}
	return &u.stats, nil
}

// collect lists the session logs under the directory, sorted by path, that
// the state database has not seen with the same size and hash.
func (u *Uploader) collect() ([]fileInfo, error) {
	var paths []string
	err := filepath.WalkDir(u.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && sessionlog.IsLog(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", u.dir, err)
	}
	sort.Strings(paths)

	var files []fileInfo
	for _, f := range paths {
		u.stats.FilesTotal++

		relPath, _ := filepath.Rel(u.dir, f)
		info, err := os.Stat(f)
		if err != nil {
			u.log.Warn("stat failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		hash, err := HashFile(f)
		if err != nil {
			u.log.Warn("hash failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		uploaded, err := u.state.IsUploaded(relPath, info.Size(), hash)
		if err != nil {
			u.log.Warn("state check failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}
		if uploaded {
			u.stats.FilesSkipped++
			continue
		}
		files = append(files, fileInfo{path: f, relPath: relPath, size: info.Size(), hash: hash})
	}
	return files, nil
}

func (u *Uploader) processFile(ctx context.Context, fi fileInfo) error {
	lf, err := sessionlog.Read(fi.path)
	if err != nil {
		u.log.Warn("parse failed", "file", fi.relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}
	// Validate locally so one bad record does not cost a round trip.
	if _, err := lf.Sessions(); err != nil {
		u.log.Warn("invalid session", "file", fi.relPath, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	records := withStableIDs(lf.Records, fi.relPath)
	source := lf.Source
	if source == "" {
		source = "upload"
	}

	for i := 0; i < len(records); i += u.batchSize {
		batch := records[i:min(i+u.batchSize, len(records))]

		if u.dryRun {
			u.log.Info("dry-run: would send", "file", fi.relPath, "sessions", len(batch))
			u.stats.SessionsSent += len(batch)
			continue
		}

		res, err := u.client.SendSessions(ctx, source, batch)
		if err != nil {
			return err
		}
		u.stats.SessionsSent += res.Received
		u.stats.SessionsInserted += res.Inserted
	}

	if !u.dryRun {
		if err := u.state.MarkUploaded(fi.relPath, fi.size, fi.hash, len(records)); err != nil {
			u.log.Warn("failed to mark uploaded", "file", fi.relPath, "error", err)
		}
	}
	u.stats.FilesUploaded++

	u.log.Info("uploaded session log", "file", fi.relPath, "sessions", len(records))
	return nil
}

// withStableIDs gives records without an ID one derived from the file and
// position, so re-uploading an edited file does not duplicate its sessions.
func withStableIDs(records []models.SessionRecord, relPath string) []models.SessionRecord {
	out := make([]models.SessionRecord, len(records))
	for i, r := range records {
		if r.ID == "" {
			r.ID = recordID(relPath, i, r.Date).String()
		}
		out[i] = r
	}
	return out
}

func recordID(relPath string, i int, date string) uuid.UUID {
	return uuid.NewSHA1(sessionNamespace, []byte(fmt.Sprintf("%s#%d#%s", filepath.ToSlash(relPath), i, date)))
}
