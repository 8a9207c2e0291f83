// Package analyzer exposes the daily activity analyses: categorized time
// usage, keyword digests and day summaries, served from a tiered cache in
// front of the classifier, plus the month calendar built from them.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/runnerr0/memoir/internal/activity"
	"github.com/runnerr0/memoir/internal/cache"
	"github.com/runnerr0/memoir/internal/digest"
	"github.com/runnerr0/memoir/internal/keywords"
	"github.com/runnerr0/memoir/internal/logging"
	"github.com/runnerr0/memoir/internal/storage"
	"github.com/runnerr0/memoir/internal/usage"
	"github.com/runnerr0/memoir/internal/worker"
)

// DateLayout is the format of analysis dates.
const DateLayout = "2006-01-02"

// Audit actions.
const (
	AuditInvalidate   = "invalidate"
	AuditKeywordMerge = "keyword_merge"
)

var (
	// ErrEmptyInput is returned when an analysis is requested without any
	// visited pages. No classifier call is made.
	ErrEmptyInput = errors.New("no visited pages")

	// ErrInvalidDate is returned for dates not in DateLayout.
	ErrInvalidDate = errors.New("invalid date")
)

// Classifier assigns categories, extracts keywords and summarizes days.
// *classifier.Client satisfies it.
type Classifier interface {
	Categorize(ctx context.Context,
		pages []activity.VisitedPage) ([]activity.CategorizedPage, error)
	ExtractKeywords(ctx context.Context,
		pages []activity.VisitedPage) ([]keywords.KeywordFrequency, error)
	SummarizeDay(ctx context.Context, date string,
		pages []activity.CategorizedPage, zone *time.Location) (digest.DaySummary, error)
}

// Store is the persistence the analyzer needs. storage.Store satisfies it.
type Store interface {
	FindByUserAndDate(ctx context.Context, userID, date,
		kind string) (fn.Option[storage.DailyRecord], error)
	ListByUserAndDateRange(ctx context.Context, userID, from,
		to string) ([]storage.DailyRecord, error)
	Save(ctx context.Context, rec *storage.DailyRecord) error
	DeleteAll(ctx context.Context, records []storage.DailyRecord) error
	ListKeywords(ctx context.Context, userID,
		date string) ([]storage.KeywordRecord, error)
	ListKeywordsInRange(ctx context.Context, userID, from,
		to string) ([]storage.KeywordRecord, error)
	ApplyKeywordMerge(ctx context.Context, upserts []storage.KeywordRecord,
		superseded []string) error
	DeleteKeywordsForDay(ctx context.Context, userID, date string) (int64, error)
	RecordAudit(ctx context.Context, action, userID, detail string) error
}

// Config holds the analyzer tunables. Zero values take defaults.
type Config struct {
	// Zone is the single time zone used for hour buckets and "today".
	Zone *time.Location

	CacheTTL      time.Duration
	RefreshGrowth float64
	SweepInterval time.Duration

	Workers   int
	QueueSize int

	// TopKeywords caps TopKeywordsForToday.
	TopKeywords int

	// SlowThreshold is the duration above which an operation logs a
	// warning.
	SlowThreshold time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service runs the analyses. It owns the caches, the background task pool
// and the sweep worker.
type Service struct {
	cfg        Config
	classifier Classifier
	store      Store
	log        *slog.Logger

	tasks        *worker.Pool
	timeCache    *cache.Tiered[usage.ActivityStats]
	keywordCache *cache.Tiered[[]keywords.KeywordFrequency]
	summaryCache *cache.Tiered[digest.DaySummary]
	sweeper      *cache.Worker

	mu          sync.Mutex
	stopSweeper context.CancelFunc
	sweeperDone chan struct{}
}

// New creates a Service. Call Start to run the periodic cache sweep and Stop
// to drain background work.
func New(cfg Config, cls Classifier, store Store, log *slog.Logger) *Service {
	if cfg.Zone == nil {
		cfg.Zone = time.UTC
	}
	if cfg.TopKeywords <= 0 {
		cfg.TopKeywords = keywords.TopWindow
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = logging.DefaultSlowThreshold
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		cfg:        cfg,
		classifier: cls,
		store:      store,
		log:        log.With("component", "analyzer"),
		tasks:      worker.NewPool(cfg.Workers, cfg.QueueSize, log),
	}

	s.timeCache = cache.NewTiered(cache.Config{
		Name:          "time",
		TTL:           cfg.CacheTTL,
		RefreshGrowth: cfg.RefreshGrowth,
		Now:           cfg.Now,
	}, newRecordBacking(store, storage.KindTime, statsTotal), s.tasks, log)

	s.keywordCache = cache.NewTiered(cache.Config{
		Name:          "keywords",
		TTL:           cfg.CacheTTL,
		RefreshGrowth: cfg.RefreshGrowth,
		Now:           cfg.Now,
	}, newRecordBacking(store, storage.KindKeywords, keywordTotal), s.tasks, log)

	s.summaryCache = cache.NewTiered(cache.Config{
		Name:          "summary",
		TTL:           cfg.CacheTTL,
		RefreshGrowth: cfg.RefreshGrowth,
		Now:           cfg.Now,
	}, newRecordBacking(store, storage.KindSummary, summaryTotal), s.tasks, log)

	s.sweeper = cache.NewWorker(cfg.SweepInterval, log,
		s.timeCache, s.keywordCache, s.summaryCache)

	return s
}

// Start runs the cache sweep loop until Stop is called or ctx ends.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopSweeper != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.stopSweeper = cancel
	s.sweeperDone = done

	go func() {
		defer close(done)
		s.sweeper.Start(ctx)
	}()
}

// Stop ends the sweep loop and waits for queued background tasks.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.stopSweeper, s.sweeperDone
	s.stopSweeper, s.sweeperDone = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.tasks.Stop()
}

// Wait blocks until background tasks submitted so far have finished.
func (s *Service) Wait() {
	s.tasks.Wait()
}

// SweepCaches evicts expired in-process entries now and returns how many
// were removed.
func (s *Service) SweepCaches() int {
	return s.sweeper.SweepOnce()
}

// Today returns the current date in the analysis zone.
func (s *Service) Today() string {
	return s.cfg.Now().In(s.cfg.Zone).Format(DateLayout)
}

// AnalyzeDay returns the time-usage report of userID for date. A valid
// cached report is checked for refresh eligibility in the background;
// otherwise the pages are classified, aggregated and cached. The returned
// report is a copy the caller may modify.
func (s *Service) AnalyzeDay(ctx context.Context, userID, date string,
	pages []activity.VisitedPage) (stats usage.ActivityStats, err error) {

	log := s.opLogger(userID, date)
	defer logging.Track(log, "analyze_day", s.cfg.SlowThreshold)(&err)

	if len(pages) == 0 {
		return usage.ActivityStats{}, ErrEmptyInput
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return usage.ActivityStats{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	key := cache.Key{UserID: userID, Date: date, Kind: cache.KindTime}

	cached, err := s.timeCache.Get(ctx, key)
	if err != nil {
		return usage.ActivityStats{}, fmt.Errorf("read cached analysis: %w", err)
	}
	if cached.IsSome() {
		entry := cached.UnwrapOr(cache.Entry[usage.ActivityStats]{})
		log.Debug("Serving cached analysis", "cached_pages", entry.PageCount)
		s.timeCache.CheckRefresh(ctx, key, len(pages))
		return entry.Payload.Clone(), nil
	}

	categorized, err := s.classifier.Categorize(ctx, pages)
	if err != nil {
		return usage.ActivityStats{}, fmt.Errorf("categorize pages: %w", err)
	}

	stats = usage.Aggregate(categorized, s.cfg.Zone)

	s.timeCache.Put(ctx, key, cache.Entry[usage.ActivityStats]{
		Payload:   stats,
		PageCount: len(pages),
	})

	log.Info("Analyzed day",
		"pages", len(pages),
		"total_minutes", stats.TotalUsageMinutes,
	)

	return stats.Clone(), nil
}

// CategoryShares returns each category's rounded share of the report.
func (s *Service) CategoryShares(stats usage.ActivityStats) []usage.CategoryShare {
	return usage.Shares(stats)
}

// InvalidateCache removes the cached time, keyword and summary analyses of
// userID for date from both tiers and deletes the day's keyword rows.
func (s *Service) InvalidateCache(ctx context.Context, userID,
	date string) (err error) {

	log := s.opLogger(userID, date)
	defer logging.Track(log, "invalidate_cache", s.cfg.SlowThreshold)(&err)

	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	timeKey := cache.Key{UserID: userID, Date: date, Kind: cache.KindTime}
	if err := s.timeCache.Invalidate(ctx, timeKey); err != nil {
		return fmt.Errorf("invalidate time analysis: %w", err)
	}

	keywordKey := cache.Key{UserID: userID, Date: date, Kind: cache.KindKeywords}
	if err := s.keywordCache.Invalidate(ctx, keywordKey); err != nil {
		return fmt.Errorf("invalidate keyword analysis: %w", err)
	}

	summaryKey := cache.Key{UserID: userID, Date: date, Kind: cache.KindSummary}
	if err := s.summaryCache.Invalidate(ctx, summaryKey); err != nil {
		return fmt.Errorf("invalidate day summary: %w", err)
	}

	removed, err := s.store.DeleteKeywordsForDay(ctx, userID, date)
	if err != nil {
		return fmt.Errorf("delete keyword rows: %w", err)
	}

	detail := fmt.Sprintf("date=%s keyword_rows=%d", date, removed)
	if err := s.store.RecordAudit(ctx, AuditInvalidate, userID, detail); err != nil {
		log.Warn("Failed to record audit entry", "error", err)
	}

	log.Info("Invalidated cached analyses", "keyword_rows", removed)

	return nil
}

// IsRefreshCandidate reports whether the cached analysis of kind for
// userID and date was flagged for refresh.
func (s *Service) IsRefreshCandidate(userID, date string, kind cache.Kind) bool {
	key := cache.Key{UserID: userID, Date: date, Kind: kind}
	switch kind {
	case cache.KindTime:
		return s.timeCache.IsRefreshCandidate(key)
	case cache.KindKeywords:
		return s.keywordCache.IsRefreshCandidate(key)
	case cache.KindSummary:
		return s.summaryCache.IsRefreshCandidate(key)
	default:
		return false
	}
}

// opLogger scopes the service logger to one operation with a fresh
// correlation id.
func (s *Service) opLogger(userID, date string) *slog.Logger {
	return s.log.With(
		"correlation_id", uuid.NewString(),
		"user_id", userID,
		"date", date,
	)
}
