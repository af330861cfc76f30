package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"price-tracker/internal/domain"
)

var ErrDisk = errors.New("disk full")

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

// fakeFetcher serves canned pages per URL. delay lets a test control
// completion order.
type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	delay map[string]time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if d := f.delay[url]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", &domain.FetchError{URL: url, Attempts: 1, Err: ctx.Err()}
		}
	}
	if err := f.errs[url]; err != nil {
		return "", err
	}
	return f.pages[url], nil
}

// fakeExtractor treats the whole page as the amount, e.g. "799.00".
type fakeExtractor struct{ site domain.SiteID }

func (f fakeExtractor) Extract(html string) (domain.Extraction, error) {
	if html == "" {
		return domain.Extraction{}, domain.NewParseError(f.site, "price anchor not found")
	}
	d, err := decimal.NewFromString(html)
	if err != nil {
		return domain.Extraction{}, &domain.ParseError{Site: f.site, Reason: "invalid amount", Err: err}
	}
	return domain.Extraction{Title: "Galaxy S23", Price: d}, nil
}

func fakeExtractors() map[domain.SiteID]Extractor {
	out := map[domain.SiteID]Extractor{}
	for _, s := range domain.Sites() {
		out[s] = fakeExtractor{site: s}
	}
	return out
}

type fakeSnapshot struct {
	mu    sync.Mutex
	calls int
	last  []domain.PriceReading
	at    time.Time
	err   error
}

func (f *fakeSnapshot) WriteSnapshot(readings []domain.PriceReading, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.last, f.at = readings, at
	return nil
}

type fakeHistory struct {
	mu   sync.Mutex
	rows []domain.PriceReading
	err  error
}

func (f *fakeHistory) AppendHistory(readings []domain.PriceReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, readings...)
	return nil
}

type fakeRunLock struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released int
}

func (f *fakeRunLock) TryAcquire(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.held == nil {
		f.held = map[string]bool{}
	}
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeRunLock) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
	f.released++
	return nil
}

// barrierFetcher answers only once every pipeline has reached Fetch, so it
// fails unless the pipelines run concurrently.
type barrierFetcher struct {
	arrived sync.WaitGroup
}

func (b *barrierFetcher) Fetch(_ context.Context, url string) (string, error) {
	b.arrived.Done()
	all := make(chan struct{})
	go func() {
		b.arrived.Wait()
		close(all)
	}()
	select {
	case <-all:
		return "1.00", nil
	case <-time.After(2 * time.Second):
		return "", &domain.FetchError{URL: url, Attempts: 1, Err: context.DeadlineExceeded}
	}
}
