package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bloglist/internal/domain"
	"bloglist/internal/repository"
	"bloglist/internal/storage"
)

// ErrExportDisabled is returned when no object storage is configured.
var ErrExportDisabled = errors.New("snapshot export is not configured")

const snapshotContentType = "application/json"

// Snapshot is the document written for every export.
type Snapshot struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Entries     []SnapshotEntry `json:"entries"`
	Stats       Summary         `json:"stats"`
}

type SnapshotEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	URL       string    `json:"url"`
	Likes     int       `json:"likes"`
	OwnerID   string    `json:"user"`
	Comments  []string  `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func snapshotEntries(entries []domain.Entry) []SnapshotEntry {
	out := make([]SnapshotEntry, len(entries))
	for i, e := range entries {
		comments := e.Comments
		if comments == nil {
			comments = []string{}
		}
		out[i] = SnapshotEntry{
			ID:        e.ID,
			Title:     e.Title,
			Author:    e.Author,
			URL:       e.URL,
			Likes:     e.Likes,
			OwnerID:   e.OwnerID,
			Comments:  comments,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		}
	}
	return out
}

// ExportResult describes one stored snapshot.
type ExportResult struct {
	Key       string    `json:"key"`
	Location  string    `json:"location,omitempty"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportOptions configures where snapshots go.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
	// Keep is the number of most recent snapshots retained. Zero keeps all.
	Keep int
}

// ExportService writes snapshots of all entries to object storage.
type ExportService interface {
	Export(ctx context.Context) (ExportResult, error)
	List(ctx context.Context) ([]ExportResult, error)
}

type exportService struct {
	entries repository.EntryRepository
	store   storage.Service
	opts    ExportOptions
	logger  *logrus.Logger
	now     func() time.Time
}

// NewExportService returns a service whose operations fail with
// ErrExportDisabled when store is nil or no bucket is set.
func NewExportService(entries repository.EntryRepository, store storage.Service, opts ExportOptions, logger *logrus.Logger) ExportService {
	if logger == nil {
		logger = logrus.New()
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &exportService{
		entries: entries,
		store:   store,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *exportService) enabled() bool {
	return s.store != nil && strings.TrimSpace(s.opts.Bucket) != ""
}

func (s *exportService) Export(ctx context.Context) (ExportResult, error) {
	if !s.enabled() {
		return ExportResult{}, ErrExportDisabled
	}

	entries, err := s.entries.List(ctx, repository.SortByCreated)
	if err != nil {
		return ExportResult{}, err
	}

	generated := s.now().UTC()
	snap := Snapshot{
		GeneratedAt: generated,
		Entries:     snapshotEntries(entries),
		Stats:       Summarize(entries),
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode snapshot: %w", err)
	}

	key := s.snapshotKey(generated)
	location, err := s.store.PutObject(ctx, s.opts.Bucket, key, bytes.NewReader(body), snapshotContentType)
	if err != nil {
		return ExportResult{}, err
	}
	s.logger.WithFields(logrus.Fields{
		"key":     key,
		"entries": len(entries),
		"bytes":   len(body),
	}).Info("snapshot exported")

	if s.opts.Keep > 0 {
		if err := s.prune(ctx); err != nil {
			s.logger.Warnf("prune snapshots: %v", err)
		}
	}

	return ExportResult{
		Key:       key,
		Location:  location,
		Size:      int64(len(body)),
		CreatedAt: generated,
	}, nil
}

func (s *exportService) List(ctx context.Context) ([]ExportResult, error) {
	if !s.enabled() {
		return nil, ErrExportDisabled
	}

	objects, err := s.store.ListObjects(ctx, s.opts.Bucket, s.listPrefix())
	if err != nil {
		return nil, err
	}

	results := make([]ExportResult, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		res := ExportResult{Key: obj.Key, Size: obj.Size}
		if obj.LastModified != nil {
			res.CreatedAt = obj.LastModified.UTC()
		}
		results = append(results, res)
	}
	// keys embed a sortable timestamp, newest first
	sort.Slice(results, func(i, j int) bool { return results[i].Key > results[j].Key })
	return results, nil
}

func (s *exportService) prune(ctx context.Context) error {
	snapshots, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(snapshots) <= s.opts.Keep {
		return nil
	}

	stale := make([]string, 0, len(snapshots)-s.opts.Keep)
	for _, snap := range snapshots[s.opts.Keep:] {
		stale = append(stale, snap.Key)
	}
	return s.store.DeleteObjects(ctx, s.opts.Bucket, stale)
}

func (s *exportService) snapshotKey(at time.Time) string {
	name := fmt.Sprintf("blogs-%s.json", at.Format("20060102T150405.000000000Z"))
	if s.opts.KeyPrefix == "" {
		return name
	}
	return path.Join(s.opts.KeyPrefix, name)
}

func (s *exportService) listPrefix() string {
	if s.opts.KeyPrefix == "" {
		return "blogs-"
	}
	return s.opts.KeyPrefix + "/blogs-"
}
