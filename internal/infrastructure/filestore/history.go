package filestore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"price-tracker/internal/application"
	"price-tracker/internal/domain"
)

var _ application.HistoryWriter = (*HistoryStore)(nil)

var historyHeader = []string{"timestamp", "site", "price", "status", "error", "title", "url"}

type HistoryRow struct {
	Timestamp time.Time            `json:"timestamp"`
	Site      domain.SiteID        `json:"site"`
	Price     string               `json:"price,omitempty"`
	Status    domain.ReadingStatus `json:"status"`
	Error     string               `json:"error,omitempty"`
	Title     string               `json:"title,omitempty"`
	URL       string               `json:"url"`
}

// HistoryStore is an append-only CSV log. Rows already in the file are
// never rewritten.
type HistoryStore struct {
	Path string
	mu   sync.Mutex
}

func NewHistoryStore(path string) *HistoryStore { return &HistoryStore{Path: path} }

func (h *HistoryStore) AppendHistory(readings []domain.PriceReading) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.Path), 0o755); err != nil {
		return fmt.Errorf("history: mkdir: %w", err)
	}
	f, err := os.OpenFile(h.Path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("history: open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("history: close: %w", cerr)
		}
	}()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("history: stat: %w", err)
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(historyHeader); err != nil {
			return fmt.Errorf("history: header: %w", err)
		}
	}
	for _, r := range readings {
		row := []string{
			r.Timestamp.Format(time.RFC3339),
			string(r.Site),
			r.PriceString(),
			string(r.Status),
			r.Error,
			r.Title,
			r.URL,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("history: write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("history: flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("history: sync: %w", err)
	}
	return nil
}

// ReadHistory returns up to limit of the most recent rows, oldest first.
// An empty site matches every site; limit <= 0 means no limit.
func ReadHistory(path string, site domain.SiteID, limit int) ([]HistoryRow, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(historyHeader)

	var out []HistoryRow
	for line := 0; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("history: read: %w", err)
		}
		if line == 0 && rec[0] == historyHeader[0] {
			continue
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("history: line %d: %w", line+1, err)
		}
		row := HistoryRow{
			Timestamp: ts,
			Site:      domain.SiteID(rec[1]),
			Price:     rec[2],
			Status:    domain.ReadingStatus(rec[3]),
			Error:     rec[4],
			Title:     rec[5],
			URL:       rec[6],
		}
		if site != "" && row.Site != site {
			continue
		}
		out = append(out, row)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
