package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anatolykoptev/go_travel/internal/engine"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval    = 6 * time.Hour
	DefaultRegionDelay = 10 * time.Second
	DefaultCallTimeout = 20 * time.Second
)

// ErrSweepRunning is returned when a sweep is requested while the same sweep is in flight.
var ErrSweepRunning = errors.New("sweep already running")

// Source is the external video search API.
type Source interface {
	SearchByKeyword(ctx context.Context, keyword string, limit int) ([]engine.RawVideoRecord, error)
	SearchShortsByRegion(ctx context.Context, query string, limit int) ([]engine.RawVideoRecord, error)
}

// Ingester persists search results. Deduplication by external id is its job, not the scheduler's.
type Ingester interface {
	SaveFromAPI(ctx context.Context, records []engine.RawVideoRecord, category string) (engine.BatchResult, error)
	SaveByRegionAndCity(ctx context.Context, records []engine.RawVideoRecord, region, city string) (engine.BatchResult, error)
}

// Options configures a Scheduler. Zero fields take the defaults above;
// a zero CategoryDelay means the category sweep fires as soon as Start is called.
// A nil Table selects DefaultTable; a non-nil empty table sweeps nothing.
type Options struct {
	Table         *Table
	Interval      time.Duration
	CategoryDelay time.Duration
	RegionDelay   time.Duration
	ResultLimit   int
	CallTimeout   time.Duration
	Clock         Clock
}

// Scheduler drives the category sweep and the region/city sweep on
// independent fixed-delay loops.
type Scheduler struct {
	source Source
	ingest Ingester
	table  Table
	clock  Clock

	interval      time.Duration
	categoryDelay time.Duration
	regionDelay   time.Duration
	callTimeout   time.Duration
	limit         int

	// held for the whole sweep; TryLock keeps a sweep from overlapping itself
	categoryRun sync.Mutex
	regionRun   sync.Mutex

	mu   sync.RWMutex
	last map[string]Report
}

// New builds a scheduler over source and ingest.
func New(source Source, ingest Ingester, opts Options) *Scheduler {
	s := &Scheduler{
		source:        source,
		ingest:        ingest,
		clock:         opts.Clock,
		interval:      opts.Interval,
		categoryDelay: opts.CategoryDelay,
		regionDelay:   opts.RegionDelay,
		callTimeout:   opts.CallTimeout,
		limit:         opts.ResultLimit,
		last:          make(map[string]Report),
	}
	if opts.Table != nil {
		s.table = *opts.Table
	} else {
		s.table = DefaultTable()
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.regionDelay <= 0 {
		s.regionDelay = DefaultRegionDelay
	}
	if s.callTimeout <= 0 {
		s.callTimeout = DefaultCallTimeout
	}
	if s.limit <= 0 {
		s.limit = DefaultResultLimit
	}
	return s
}

// Start runs both sweep loops until ctx is done. An in-flight sweep stops
// at its next item boundary; Start returns once both loops have exited.
// Plain cancellation returns nil; any other cause (a deadline, a
// context.WithCancelCause error) is returned.
func (s *Scheduler) Start(ctx context.Context) error {
	slog.Info("sweep scheduler started",
		slog.Duration("interval", s.interval),
		slog.Duration("region_delay", s.regionDelay),
		slog.Int("categories", len(s.table.categories)),
		slog.Int("regions", len(s.table.regions)))

	var g errgroup.Group
	g.Go(func() error {
		return s.loop(ctx, CategorySweep, s.categoryDelay, s.RunCategorySweep)
	})
	g.Go(func() error {
		return s.loop(ctx, RegionCitySweep, s.regionDelay, s.RunRegionCitySweep)
	})
	err := g.Wait()
	slog.Info("sweep scheduler stopped", slog.Any("reason", err))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loop waits delay, runs the sweep, and then waits the interval measured from
// the end of that run (fixed delay, never fixed rate). It returns the context's
// cause once ctx is done.
func (s *Scheduler) loop(ctx context.Context, name string, delay time.Duration, run func(context.Context) (Report, error)) error {
	for {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return context.Cause(ctx)
			case <-s.clock.After(delay):
			}
		}
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		if _, err := run(ctx); err != nil {
			slog.Info("sweep skipped", slog.String("sweep", name), slog.Any("reason", err))
		}
		delay = s.interval
	}
}

// RunCategorySweep searches every category keyword once and hands each batch to
// the ingester tagged with its category.
func (s *Scheduler) RunCategorySweep(ctx context.Context) (Report, error) {
	if !s.categoryRun.TryLock() {
		return Report{}, ErrSweepRunning
	}
	defer s.categoryRun.Unlock()
	return s.sweep(ctx, CategorySweep, func(ctx context.Context) ([]ItemResult, bool) {
		return fold(ctx, s.table.CategoryJobs(s.limit), s.runKeyword)
	}), nil
}

// RunRegionCitySweep searches every (region, city) pair once for short-form
// "{city} 여행" videos and hands each batch to the ingester tagged with both.
func (s *Scheduler) RunRegionCitySweep(ctx context.Context) (Report, error) {
	if !s.regionRun.TryLock() {
		return Report{}, ErrSweepRunning
	}
	defer s.regionRun.Unlock()
	return s.sweep(ctx, RegionCitySweep, func(ctx context.Context) ([]ItemResult, bool) {
		return fold(ctx, s.table.RegionCityJobs(s.limit), s.runRegionCity)
	}), nil
}

func (s *Scheduler) sweep(ctx context.Context, name string, items func(context.Context) ([]ItemResult, bool)) Report {
	engine.IncrSweepStarted()
	rep := Report{Sweep: name, StartedAt: time.Now()}
	slog.Info("sweep started", slog.String("sweep", name))

	_ = engine.TrackOperation(ctx, name+"_sweep", s.interval, func(ctx context.Context) error {
		rep.Items, rep.Cancelled = items(ctx)
		return nil
	})
	rep.FinishedAt = time.Now()

	if rep.Cancelled {
		engine.IncrSweepCancelled()
	}
	totals := rep.Totals()
	slog.Info("sweep finished",
		slog.String("sweep", name),
		slog.Int("items", len(rep.Items)),
		slog.Int("failed", rep.Failed()),
		slog.Int("fetched", rep.Fetched()),
		slog.Int("created", totals.Created),
		slog.Int("updated", totals.Updated),
		slog.Bool("cancelled", rep.Cancelled),
		slog.Duration("elapsed", rep.Duration()))

	s.mu.Lock()
	s.last[name] = rep
	s.mu.Unlock()
	return rep
}

// fold runs step for each job in order, one at a time. Cancellation is only
// observed between jobs; the bool result reports whether jobs were left undone.
func fold[J any](ctx context.Context, jobs []J, step func(context.Context, J) ItemResult) ([]ItemResult, bool) {
	items := make([]ItemResult, 0, len(jobs))
	for _, job := range jobs {
		if ctx.Err() != nil {
			return items, true
		}
		item := step(ctx, job)
		engine.RecordSweepItem(item.Fetched, item.BatchResult, item.Err)
		items = append(items, item)
	}
	return items, false
}

// callContext detaches from sweep cancellation so an in-flight call is never cut
// short by shutdown, and bounds it by the per-call timeout instead.
func (s *Scheduler) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
}

func (s *Scheduler) runKeyword(ctx context.Context, job KeywordJob) (item ItemResult) {
	item = ItemResult{Keyword: job.Keyword, Query: job.Keyword}
	defer recoverItem(&item)

	records, err := s.fetch(ctx, func(ctx context.Context) ([]engine.RawVideoRecord, error) {
		return s.source.SearchByKeyword(ctx, job.Keyword, job.Limit)
	})
	if err != nil {
		item.setErr(err)
		logItemFailure(CategorySweep, item)
		return item
	}
	item.Fetched = len(records)
	if len(records) == 0 {
		slog.Debug("sweep: no results", slog.String("keyword", job.Keyword))
		return item
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	item.BatchResult, err = s.ingest.SaveFromAPI(callCtx, records, job.Category)
	if err != nil {
		item.setErr(err)
		logItemFailure(CategorySweep, item)
	}
	return item
}

func (s *Scheduler) runRegionCity(ctx context.Context, job RegionCityJob) (item ItemResult) {
	item = ItemResult{Region: job.Region, City: job.City, Query: job.Query()}
	defer recoverItem(&item)

	records, err := s.fetch(ctx, func(ctx context.Context) ([]engine.RawVideoRecord, error) {
		return s.source.SearchShortsByRegion(ctx, job.Query(), job.Limit)
	})
	if err != nil {
		item.setErr(err)
		logItemFailure(RegionCitySweep, item)
		return item
	}
	item.Fetched = len(records)
	if len(records) == 0 {
		slog.Debug("sweep: no results", slog.String("region", job.Region), slog.String("city", job.City))
		return item
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	item.BatchResult, err = s.ingest.SaveByRegionAndCity(callCtx, records, job.Region, job.City)
	if err != nil {
		item.setErr(err)
		logItemFailure(RegionCitySweep, item)
	}
	return item
}

func (s *Scheduler) fetch(ctx context.Context, call func(context.Context) ([]engine.RawVideoRecord, error)) ([]engine.RawVideoRecord, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	records, err := call(callCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, engine.ErrTransport) {
		err = fmt.Errorf("%w: %w", engine.ErrTransport, err)
	}
	return records, err
}

// recoverItem turns a collaborator panic into an item failure so the sweep goes on.
func recoverItem(item *ItemResult) {
	if r := recover(); r != nil {
		item.setErr(fmt.Errorf("panic: %v", r))
		slog.Error("sweep: item panicked", slog.String("query", item.Query), slog.Any("panic", r))
	}
}

func logItemFailure(sweep string, item ItemResult) {
	slog.Warn("sweep: item failed",
		slog.String("sweep", sweep),
		slog.String("query", item.Query),
		slog.String("kind", item.ErrKind),
		slog.Any("error", item.Err))
}

// LastReport returns the most recent report of the named sweep.
func (s *Scheduler) LastReport(name string) (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.last[name]
	return rep, ok
}

// Table returns the keyword/region table the scheduler sweeps.
func (s *Scheduler) Table() Table { return s.table }
