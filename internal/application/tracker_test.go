package application

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"price-tracker/internal/domain"
)

var now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

const (
	amazonURL     = "https://www.amazon.it/dp/B0BSLC3Y5Y"
	phoneclickURL = "https://www.phoneclick.it/galaxy-s23"
	teknozoneURL  = "https://www.teknozone.it/galaxy-s23"
)

func targets() []Target {
	// deliberately out of site order
	return []Target{
		{Site: domain.SiteTeknozone, URL: teknozoneURL},
		{Site: domain.SiteAmazon, URL: amazonURL},
		{Site: domain.SitePhoneclick, URL: phoneclickURL},
	}
}

func Test_Run_AllOK(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{pages: map[string]string{
		amazonURL:     "799",
		phoneclickURL: "649.9",
		teknozoneURL:  "799.00",
	}}
	snap, hist := &fakeSnapshot{}, &fakeHistory{}
	tr := NewTracker(f, fakeExtractors(), snap, hist, targets(), WithClock(fakeClock{t: now}))

	got, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, []domain.SiteID{domain.SiteAmazon, domain.SitePhoneclick, domain.SiteTeknozone},
		[]domain.SiteID{got[0].Site, got[1].Site, got[2].Site})
	require.Equal(t, "799.00", got[0].PriceString())
	require.Equal(t, "649.90", got[1].PriceString())
	for _, r := range got {
		require.Equal(t, domain.ReadingStatusOK, r.Status)
		require.Equal(t, domain.CurrencyEUR, r.Currency)
		require.Equal(t, now, r.Timestamp)
	}

	require.Equal(t, 1, snap.calls)
	require.Equal(t, got, snap.last)
	require.Equal(t, now, snap.at)
	require.Equal(t, got, hist.rows)
}

func Test_Run_OrderIndependentOfCompletion(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{
		pages: map[string]string{amazonURL: "1", phoneclickURL: "2", teknozoneURL: "3"},
		delay: map[string]time.Duration{amazonURL: 60 * time.Millisecond, phoneclickURL: 30 * time.Millisecond},
	}
	tr := NewTracker(f, fakeExtractors(), &fakeSnapshot{}, &fakeHistory{}, targets())

	got, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.SiteAmazon, got[0].Site)
	require.Equal(t, domain.SitePhoneclick, got[1].Site)
	require.Equal(t, domain.SiteTeknozone, got[2].Site)
}

func Test_Run_PipelinesConcurrent(t *testing.T) {
	t.Parallel()
	f := &barrierFetcher{}
	f.arrived.Add(3)
	tr := NewTracker(f, fakeExtractors(), &fakeSnapshot{}, &fakeHistory{}, targets())

	got, err := tr.Run(context.Background())
	require.NoError(t, err)
	for _, r := range got {
		require.Equal(t, domain.ReadingStatusOK, r.Status, r.Site)
	}
}

func Test_Run_FailureIsolated(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{
		pages: map[string]string{amazonURL: "799.00", teknozoneURL: ""},
		errs: map[string]error{
			phoneclickURL: &domain.FetchError{URL: phoneclickURL, StatusCode: http.StatusServiceUnavailable, Attempts: 3},
		},
	}
	hist := &fakeHistory{}
	tr := NewTracker(f, fakeExtractors(), &fakeSnapshot{}, hist, targets())

	got, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, domain.ReadingStatusOK, got[0].Status)
	require.Equal(t, "799.00", got[0].PriceString())

	require.Equal(t, domain.ReadingStatusFetchFailed, got[1].Status)
	require.Equal(t, "HTTP 503", got[1].Reason)
	require.False(t, got[1].Price.Valid)

	require.Equal(t, domain.ReadingStatusParseFailed, got[2].Status)
	require.Equal(t, "price anchor not found", got[2].Reason)
	require.False(t, got[2].Price.Valid)

	require.Len(t, hist.rows, 3)
}

func Test_Run_AllTimeouts(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{errs: map[string]error{}}
	for _, u := range []string{amazonURL, phoneclickURL, teknozoneURL} {
		f.errs[u] = &domain.FetchError{URL: u, Attempts: 3, Err: context.DeadlineExceeded}
	}
	snap := &fakeSnapshot{}
	tr := NewTracker(f, fakeExtractors(), snap, &fakeHistory{}, targets())

	got, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, r := range got {
		require.Equal(t, domain.ReadingStatusFetchFailed, r.Status)
		require.Equal(t, "timeout", r.Reason)
	}
	require.Equal(t, 1, snap.calls)
}

func Test_Run_NegativePriceIsParseFailure(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{pages: map[string]string{amazonURL: "-5.00"}}
	tr := NewTracker(f, fakeExtractors(), &fakeSnapshot{}, &fakeHistory{},
		[]Target{{Site: domain.SiteAmazon, URL: amazonURL}})

	got, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.ReadingStatusParseFailed, got[0].Status)
	require.Equal(t, "negative amount", got[0].Reason)
}

func Test_Run_SnapshotErrorIsOutputError(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{pages: map[string]string{amazonURL: "1", phoneclickURL: "2", teknozoneURL: "3"}}
	hist := &fakeHistory{}
	tr := NewTracker(f, fakeExtractors(), &fakeSnapshot{err: ErrDisk}, hist, targets())

	got, err := tr.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrOutput)
	require.ErrorIs(t, err, ErrDisk)
	require.Len(t, got, 3)
	require.Empty(t, hist.rows)
}

func Test_Run_HistoryErrorIsOutputError(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{pages: map[string]string{amazonURL: "1", phoneclickURL: "2", teknozoneURL: "3"}}
	snap := &fakeSnapshot{}
	tr := NewTracker(f, fakeExtractors(), snap, &fakeHistory{err: ErrDisk}, targets())

	_, err := tr.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrOutput)
	require.Equal(t, 1, snap.calls)
}

func Test_Run_LockHeld(t *testing.T) {
	t.Parallel()
	lock := &fakeRunLock{held: map[string]bool{DefaultLockKey: true}}
	snap := &fakeSnapshot{}
	tr := NewTracker(&fakeFetcher{}, fakeExtractors(), snap, &fakeHistory{}, targets(),
		WithRunLock(lock, DefaultLockKey))

	_, err := tr.Run(context.Background())
	require.ErrorIs(t, err, ErrRunInProgress)
	require.Zero(t, snap.calls)
	require.Zero(t, lock.released)
}

func Test_Run_ReleasesLock(t *testing.T) {
	t.Parallel()
	lock := &fakeRunLock{}
	f := &fakeFetcher{pages: map[string]string{amazonURL: "1", phoneclickURL: "2", teknozoneURL: "3"}}
	tr := NewTracker(f, fakeExtractors(), &fakeSnapshot{}, &fakeHistory{}, targets(),
		WithRunLock(lock, "k"))

	_, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, lock.released)
	require.False(t, lock.held["k"])
}

func Test_Run_PausesEachPipeline(t *testing.T) {
	t.Parallel()
	var pauses atomic.Int32
	f := &fakeFetcher{pages: map[string]string{amazonURL: "1", phoneclickURL: "2", teknozoneURL: "3"}}
	tr := NewTracker(f, fakeExtractors(), &fakeSnapshot{}, &fakeHistory{}, targets(),
		WithPause(func(ctx context.Context) error {
			pauses.Add(1)
			return nil
		}))

	_, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, pauses.Load())
}

func Test_Run_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := NewTracker(&fakeFetcher{}, fakeExtractors(), &fakeSnapshot{}, &fakeHistory{}, targets(),
		WithPause(UniformPause(time.Second, 2*time.Second)))

	got, err := tr.Run(ctx)
	require.NoError(t, err)
	for _, r := range got {
		require.Equal(t, domain.ReadingStatusFetchFailed, r.Status)
	}
}

func Test_Run_NoSites(t *testing.T) {
	t.Parallel()
	tr := NewTracker(&fakeFetcher{}, fakeExtractors(), &fakeSnapshot{}, &fakeHistory{}, nil)
	_, err := tr.Run(context.Background())
	require.ErrorIs(t, err, ErrNoSites)
}

func Test_UniformPause_Bounds(t *testing.T) {
	t.Parallel()
	start := time.Now()
	require.NoError(t, UniformPause(10*time.Millisecond, 20*time.Millisecond)(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
