package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"price-tracker/internal/domain"
)

const DefaultLockKey = "price-tracker:run"

// Target is one product page to track.
type Target struct {
	Site domain.SiteID
	URL  string
}

// Tracker runs one fetch-and-extract pipeline per target concurrently and
// records the outcome of every site, failed ones included.
type Tracker struct {
	fetcher    PageFetcher
	extractors map[domain.SiteID]Extractor
	snapshot   SnapshotWriter
	history    HistoryWriter
	targets    []Target

	lock    RunLock
	lockKey string
	clock   Clock
	pause   PauseFunc
	log     *zap.Logger
}

type Option func(*Tracker)

func WithClock(c Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

func WithPause(p PauseFunc) Option {
	return func(t *Tracker) { t.pause = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

func WithRunLock(l RunLock, key string) Option {
	return func(t *Tracker) { t.lock, t.lockKey = l, key }
}

func NewTracker(fetcher PageFetcher, extractors map[domain.SiteID]Extractor, snapshot SnapshotWriter, history HistoryWriter, targets []Target, opts ...Option) *Tracker {
	ordered := make([]Target, len(targets))
	copy(ordered, targets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Site.Index() < ordered[j].Site.Index()
	})

	t := &Tracker{
		fetcher:    fetcher,
		extractors: extractors,
		snapshot:   snapshot,
		history:    history,
		targets:    ordered,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.clock == nil {
		t.clock = realClock{}
	}
	if t.pause == nil {
		t.pause = noPause
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	if t.lock == nil {
		t.lock = NoopRunLock{}
	}
	if t.lockKey == "" {
		t.lockKey = DefaultLockKey
	}
	return t
}

// Run returns exactly one reading per target in site order. Fetch and parse
// failures are recorded as failed readings; a snapshot or history write
// failure is returned wrapped in domain.ErrOutput along with the readings.
func (t *Tracker) Run(ctx context.Context) ([]domain.PriceReading, error) {
	if len(t.targets) == 0 {
		return nil, ErrNoSites
	}
	log := t.log.With(zap.String("run_id", uuid.NewString()))

	ok, err := t.lock.TryAcquire(ctx, t.lockKey)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		log.Warn("run.locked", zap.String("key", t.lockKey))
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := t.lock.Release(context.WithoutCancel(ctx), t.lockKey); err != nil {
			log.Warn("run.unlock_failed", zap.Error(err))
		}
	}()

	log.Info("run.start", zap.Int("sites", len(t.targets)))
	readings := make([]domain.PriceReading, len(t.targets))
	var wg sync.WaitGroup
	for i, tg := range t.targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			readings[i] = t.track(ctx, log, tg)
		}()
	}
	wg.Wait()

	at := t.clock.Now()
	if err := t.snapshot.WriteSnapshot(readings, at); err != nil {
		log.Error("run.snapshot_failed", zap.Error(err))
		return readings, fmt.Errorf("%w: %w", domain.ErrOutput, err)
	}
	if err := t.history.AppendHistory(readings); err != nil {
		log.Error("run.history_failed", zap.Error(err))
		return readings, fmt.Errorf("%w: %w", domain.ErrOutput, err)
	}

	failed := 0
	for _, r := range readings {
		if r.Status.Failed() {
			failed++
		}
	}
	log.Info("run.done", zap.Int("ok", len(readings)-failed), zap.Int("failed", failed))
	return readings, nil
}

func (t *Tracker) track(ctx context.Context, log *zap.Logger, tg Target) (r domain.PriceReading) {
	log = log.With(zap.String("site", string(tg.Site)), zap.String("url", tg.URL))
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("track.panic", zap.Any("panic", rec))
			r = domain.NewFailedReading(tg.Site, tg.URL, fmt.Errorf("panic: %v", rec), t.clock.Now())
		}
	}()

	if err := t.pause(ctx); err != nil {
		fe := &domain.FetchError{URL: tg.URL, Err: err}
		log.Warn("track.fetch_failed", zap.Error(fe))
		return domain.NewFailedReading(tg.Site, tg.URL, fe, t.clock.Now())
	}

	html, err := t.fetcher.Fetch(ctx, tg.URL)
	if err != nil {
		log.Warn("track.fetch_failed", zap.Error(err))
		return domain.NewFailedReading(tg.Site, tg.URL, err, t.clock.Now())
	}

	ex, ok := t.extractors[tg.Site]
	if !ok {
		err := domain.NewParseError(tg.Site, "no extractor for site")
		log.Error("track.parse_failed", zap.Error(err))
		return domain.NewFailedReading(tg.Site, tg.URL, err, t.clock.Now())
	}
	ext, err := ex.Extract(html)
	if err == nil {
		r, err = domain.NewOKReading(tg.Site, tg.URL, ext, t.clock.Now())
	}
	if err != nil {
		log.Warn("track.parse_failed", zap.Error(err), zap.Int("html_bytes", len(html)))
		return domain.NewFailedReading(tg.Site, tg.URL, err, t.clock.Now())
	}
	log.Info("track.ok", zap.String("price", r.PriceString()), zap.String("title", r.Title))
	return r
}
