package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runnerr0/memoir/internal/activity"
	"github.com/runnerr0/memoir/internal/cache"
	"github.com/runnerr0/memoir/internal/digest"
	"github.com/runnerr0/memoir/internal/keywords"
	"github.com/runnerr0/memoir/internal/logging"
	"github.com/runnerr0/memoir/internal/storage"
	"github.com/runnerr0/memoir/internal/usage"
)

// ErrNoSummary is returned when no day summary is stored for a user and
// date.
var ErrNoSummary = errors.New("no day summary")

// SummarizeDay returns the narrative digest of userID's day. The pages are
// categorized once; the resulting time analysis replaces the cached one and
// the categorized pages go to the classifier for the timeline and summary
// text. A valid cached summary is returned without any classifier call.
func (s *Service) SummarizeDay(ctx context.Context, userID, date string,
	pages []activity.VisitedPage) (summary digest.DaySummary, err error) {

	log := s.opLogger(userID, date)
	defer logging.Track(log, "summarize_day", s.cfg.SlowThreshold)(&err)

	if len(pages) == 0 {
		return digest.DaySummary{}, ErrEmptyInput
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return digest.DaySummary{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	key := cache.Key{UserID: userID, Date: date, Kind: cache.KindSummary}

	cached, err := s.summaryCache.Get(ctx, key)
	if err != nil {
		return digest.DaySummary{}, fmt.Errorf("read cached summary: %w", err)
	}
	if cached.IsSome() {
		entry := cached.UnwrapOr(cache.Entry[digest.DaySummary]{})
		log.Debug("Serving cached summary", "cached_pages", entry.PageCount)
		s.summaryCache.CheckRefresh(ctx, key, len(pages))
		return entry.Payload.Clone(), nil
	}

	categorized, err := s.classifier.Categorize(ctx, pages)
	if err != nil {
		return digest.DaySummary{}, fmt.Errorf("categorize pages: %w", err)
	}

	stats := usage.Aggregate(categorized, s.cfg.Zone)
	s.timeCache.Put(ctx, cache.Key{UserID: userID, Date: date, Kind: cache.KindTime},
		cache.Entry[usage.ActivityStats]{Payload: stats, PageCount: len(pages)})

	summary, err = s.classifier.SummarizeDay(ctx, date, categorized, s.cfg.Zone)
	if err != nil {
		return digest.DaySummary{}, fmt.Errorf("summarize day: %w", err)
	}
	summary.Date = date
	summary.TotalUsageMinutes = stats.TotalUsageMinutes
	summary.Shares = usage.Shares(stats)

	s.summaryCache.Put(ctx, key, cache.Entry[digest.DaySummary]{
		Payload:   summary,
		PageCount: len(pages),
	})

	log.Info("Summarized day",
		"pages", len(pages),
		"summary_lines", len(summary.SummaryText),
	)

	return summary.Clone(), nil
}

// DailySummary returns the stored summary of userID for date without
// calling the classifier. ErrNoSummary is returned when the day was never
// summarized.
func (s *Service) DailySummary(ctx context.Context, userID,
	date string) (summary digest.DaySummary, err error) {

	log := s.opLogger(userID, date)
	defer logging.Track(log, "daily_summary", s.cfg.SlowThreshold)(&err)

	if _, err := time.Parse(DateLayout, date); err != nil {
		return digest.DaySummary{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	key := cache.Key{UserID: userID, Date: date, Kind: cache.KindSummary}
	cached, err := s.summaryCache.Get(ctx, key)
	if err != nil {
		return digest.DaySummary{}, fmt.Errorf("read summary: %w", err)
	}
	if cached.IsNone() {
		return digest.DaySummary{}, fmt.Errorf("%w for %s on %s",
			ErrNoSummary, userID, date)
	}

	return cached.UnwrapOr(cache.Entry[digest.DaySummary]{}).Payload.Clone(), nil
}

// MonthlyCalendar lists the days of month (YYYY-MM) on which userID has
// stored analyses. Each day is titled with its top keyword, taken from the
// stored keyword rows, else the day summary, else the cached keyword digest.
// Days without any keyword are titled digest.NoRecordTitle.
func (s *Service) MonthlyCalendar(ctx context.Context, userID,
	month string) (cal digest.MonthCalendar, err error) {

	log := s.opLogger(userID, month)
	defer logging.Track(log, "monthly_calendar", s.cfg.SlowThreshold)(&err)

	m, err := digest.ParseMonth(month)
	if err != nil {
		return digest.MonthCalendar{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	from, to := digest.MonthRange(m)

	records, err := s.store.ListByUserAndDateRange(ctx, userID, from, to)
	if err != nil {
		return digest.MonthCalendar{}, fmt.Errorf("list records: %w", err)
	}
	rows, err := s.store.ListKeywordsInRange(ctx, userID, from, to)
	if err != nil {
		return digest.MonthCalendar{}, fmt.Errorf("list keywords: %w", err)
	}

	var (
		days      = make(map[string]struct{})
		stored    = make(map[string][]keywords.KeywordFrequency)
		summaries = make(map[string][]keywords.KeywordFrequency)
		digests   = make(map[string][]keywords.KeywordFrequency)
	)

	for _, r := range rows {
		days[r.Date] = struct{}{}
		stored[r.Date] = append(stored[r.Date], keywords.KeywordFrequency{
			Keyword:   r.Keyword,
			Frequency: r.Frequency,
		})
	}

	for _, rec := range records {
		days[rec.Date] = struct{}{}

		switch rec.Kind {
		case storage.KindSummary:
			var summary digest.DaySummary
			if err := storage.DecodePayload(rec, &summary); err != nil {
				log.Warn("Skipping unreadable summary", "day", rec.Date, "error", err)
				continue
			}
			summaries[rec.Date] = summary.TopKeywords

		case storage.KindKeywords:
			var list []keywords.KeywordFrequency
			if err := storage.DecodePayload(rec, &list); err != nil {
				log.Warn("Skipping unreadable keyword digest", "day", rec.Date, "error", err)
				continue
			}
			digests[rec.Date] = list
		}
	}

	titles := make(map[string]string, len(days))
	for day := range days {
		titles[day] = digest.Title(stored[day], summaries[day], digests[day])
	}

	cal = digest.BuildCalendar(m, titles)
	log.Debug("Built month calendar", "days", len(cal.Days))

	return cal, nil
}
