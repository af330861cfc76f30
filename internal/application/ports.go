package application

import (
	"context"
	"time"

	"price-tracker/internal/domain"
)

// PageFetcher returns the raw HTML of a product page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor reads the price out of one site's product page. Implementations
// are pure: no I/O and deterministic for a given input.
type Extractor interface {
	Extract(html string) (domain.Extraction, error)
}

type SnapshotWriter interface {
	WriteSnapshot(readings []domain.PriceReading, at time.Time) error
}

type HistoryWriter interface {
	AppendHistory(readings []domain.PriceReading) error
}
