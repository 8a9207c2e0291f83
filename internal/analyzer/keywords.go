package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/runnerr0/memoir/internal/activity"
	"github.com/runnerr0/memoir/internal/cache"
	"github.com/runnerr0/memoir/internal/keywords"
	"github.com/runnerr0/memoir/internal/logging"
	"github.com/runnerr0/memoir/internal/storage"
)

// ExtractKeywords returns the keywords of pages for userID, merged within
// the batch. The result is folded into today's stored keyword rows and
// cached under today's date. A valid cached result is returned without
// calling the classifier. The returned slice is a copy.
func (s *Service) ExtractKeywords(ctx context.Context, userID string,
	pages []activity.VisitedPage) (list []keywords.KeywordFrequency, err error) {

	date := s.Today()
	log := s.opLogger(userID, date)
	defer logging.Track(log, "extract_keywords", s.cfg.SlowThreshold)(&err)

	if len(pages) == 0 {
		return nil, ErrEmptyInput
	}

	key := cache.Key{UserID: userID, Date: date, Kind: cache.KindKeywords}

	cached, err := s.keywordCache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read cached keywords: %w", err)
	}
	if cached.IsSome() {
		entry := cached.UnwrapOr(cache.Entry[[]keywords.KeywordFrequency]{})
		log.Debug("Serving cached keywords", "cached_pages", entry.PageCount)
		s.keywordCache.CheckRefresh(ctx, key, len(pages))
		return slices.Clone(entry.Payload), nil
	}

	extracted, err := s.classifier.ExtractKeywords(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}

	list = keywords.Merge(extracted, nil)

	if err := s.consolidate(ctx, log, userID, date, list); err != nil {
		log.Warn("Failed to store keyword rows", "error", err)
	}

	s.keywordCache.Put(ctx, key, cache.Entry[[]keywords.KeywordFrequency]{
		Payload:   list,
		PageCount: len(pages),
	})

	log.Info("Extracted keywords", "pages", len(pages), "keywords", len(list))

	return slices.Clone(list), nil
}

// TopKeywordsForToday ranks today's stored keyword rows of userID and
// returns at most the configured number of entries.
func (s *Service) TopKeywordsForToday(ctx context.Context,
	userID string) (top []keywords.KeywordFrequency, err error) {

	date := s.Today()
	log := s.opLogger(userID, date)
	defer logging.Track(log, "top_keywords", s.cfg.SlowThreshold)(&err)

	rows, err := s.store.ListKeywords(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}

	list := make([]keywords.KeywordFrequency, 0, len(rows))
	for _, r := range rows {
		list = append(list, keywords.KeywordFrequency{
			Keyword:   r.Keyword,
			Frequency: r.Frequency,
		})
	}

	return keywords.TopN(list, s.cfg.TopKeywords), nil
}

// consolidate merges list into the stored keyword rows of userID for date.
// Rows that duplicate an earlier row's normalized keyword are folded into it
// and deleted.
func (s *Service) consolidate(ctx context.Context, log *slog.Logger, userID,
	date string, list []keywords.KeywordFrequency) error {

	rows, err := s.store.ListKeywords(ctx, userID, date)
	if err != nil {
		return fmt.Errorf("list keywords: %w", err)
	}

	stored := make([]keywords.Stored, 0, len(rows))
	for _, r := range rows {
		stored = append(stored, keywords.Stored{
			ID: r.ID,
			KeywordFrequency: keywords.KeywordFrequency{
				Keyword:   r.Keyword,
				Frequency: r.Frequency,
			},
		})
	}

	upserts, superseded := keywords.Plan(stored, list)
	if len(upserts) == 0 && len(superseded) == 0 {
		return nil
	}

	records := make([]storage.KeywordRecord, 0, len(upserts))
	for _, u := range upserts {
		records = append(records, storage.KeywordRecord{
			ID:        u.ID,
			UserID:    userID,
			Date:      date,
			Keyword:   u.Keyword,
			Frequency: u.Frequency,
		})
	}

	ids := make([]string, 0, len(superseded))
	for _, sup := range superseded {
		ids = append(ids, sup.ID)
	}

	if err := s.store.ApplyKeywordMerge(ctx, records, ids); err != nil {
		return fmt.Errorf("apply keyword merge: %w", err)
	}

	if len(ids) > 0 {
		detail := fmt.Sprintf("date=%s merged=%d superseded=%d",
			date, len(records), len(ids))
		if err := s.store.RecordAudit(ctx, AuditKeywordMerge, userID, detail); err != nil {
			log.Warn("Failed to record audit entry", "error", err)
		}
		log.Info("Consolidated duplicate keyword rows", "superseded", len(ids))
	}

	return nil
}
