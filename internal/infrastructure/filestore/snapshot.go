package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"price-tracker/internal/application"
	"price-tracker/internal/domain"
)

var ErrNoSnapshot = errors.New("no snapshot yet")

var _ application.SnapshotWriter = (*SnapshotStore)(nil)

type SnapshotEntry struct {
	Site      domain.SiteID        `json:"site"`
	Host      string               `json:"host"`
	URL       string               `json:"url"`
	Title     string               `json:"title,omitempty"`
	Price     *json.Number         `json:"price"`
	Currency  string               `json:"currency"`
	Status    domain.ReadingStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Error     string               `json:"error,omitempty"`
}

// Snapshot is the latest-state document; each run replaces it whole.
type Snapshot struct {
	LastUpdated time.Time                       `json:"last_updated"`
	Prices      map[domain.SiteID]SnapshotEntry `json:"prices"`
}

type SnapshotStore struct {
	Path string
	mu   sync.Mutex
}

func NewSnapshotStore(path string) *SnapshotStore { return &SnapshotStore{Path: path} }

func newSnapshot(readings []domain.PriceReading, at time.Time) Snapshot {
	doc := Snapshot{LastUpdated: at, Prices: make(map[domain.SiteID]SnapshotEntry, len(readings))}
	for _, r := range readings {
		e := SnapshotEntry{
			Site:      r.Site,
			Host:      r.Site.Host(),
			URL:       r.URL,
			Title:     r.Title,
			Currency:  r.Currency,
			Status:    r.Status,
			Timestamp: r.Timestamp,
			Error:     r.Error,
		}
		if p := r.PriceString(); p != "" {
			n := json.Number(p)
			e.Price = &n
		}
		doc.Prices[r.Site] = e
	}
	return doc
}

// WriteSnapshot replaces the snapshot file atomically: the document is
// written to a temp file in the same directory, synced, then renamed over
// the destination.
func (s *SnapshotStore) WriteSnapshot(readings []domain.PriceReading, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(newSnapshot(readings, at)); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("snapshot: chmod: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	committed = true
	return nil
}

// ReadSnapshot loads the document at path. A missing file yields ErrNoSnapshot.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: read: %w", err)
	}
	var doc Snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode: %w", err)
	}
	return doc, nil
}
