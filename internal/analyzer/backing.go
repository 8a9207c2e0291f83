package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/runnerr0/memoir/internal/cache"
	"github.com/runnerr0/memoir/internal/digest"
	"github.com/runnerr0/memoir/internal/keywords"
	"github.com/runnerr0/memoir/internal/storage"
	"github.com/runnerr0/memoir/internal/usage"
)

// recordBacking persists cache entries as daily analysis records of one
// kind, with the payload stored as JSON.
type recordBacking[T any] struct {
	store Store
	kind  string
	total func(T) int64
}

func newRecordBacking[T any](store Store, kind string,
	total func(T) int64) *recordBacking[T] {

	return &recordBacking[T]{store: store, kind: kind, total: total}
}

func (b *recordBacking[T]) Load(ctx context.Context,
	key cache.Key) (fn.Option[cache.Entry[T]], error) {

	found, err := b.store.FindByUserAndDate(ctx, key.UserID, key.Date, b.kind)
	if err != nil {
		return fn.None[cache.Entry[T]](), err
	}
	if found.IsNone() {
		return fn.None[cache.Entry[T]](), nil
	}

	rec := found.UnwrapOr(storage.DailyRecord{})

	var payload T
	if err := storage.DecodePayload(rec, &payload); err != nil {
		return fn.None[cache.Entry[T]](), err
	}

	return fn.Some(cache.Entry[T]{
		Payload:   payload,
		PageCount: rec.PageCount,
		CachedAt:  rec.UpdatedAt,
	}), nil
}

func (b *recordBacking[T]) Store(ctx context.Context, key cache.Key,
	entry cache.Entry[T]) error {

	data, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", b.kind, err)
	}

	return b.store.Save(ctx, &storage.DailyRecord{
		UserID:    key.UserID,
		Date:      key.Date,
		Kind:      b.kind,
		Payload:   data,
		Total:     b.total(entry.Payload),
		PageCount: entry.PageCount,
	})
}

// Delete removes the stored record. The payload is not decoded, so corrupt
// records can be deleted too.
func (b *recordBacking[T]) Delete(ctx context.Context, key cache.Key) error {
	found, err := b.store.FindByUserAndDate(ctx, key.UserID, key.Date, b.kind)
	if err != nil {
		return err
	}

	var records []storage.DailyRecord
	found.WhenSome(func(rec storage.DailyRecord) {
		records = append(records, rec)
	})

	return b.store.DeleteAll(ctx, records)
}

func statsTotal(stats usage.ActivityStats) int64 {
	return int64(stats.TotalUsageMinutes)
}

func summaryTotal(summary digest.DaySummary) int64 {
	return int64(summary.TotalUsageMinutes)
}

func keywordTotal(list []keywords.KeywordFrequency) int64 {
	var sum int64
	for _, kf := range list {
		sum += int64(kf.Frequency)
	}
	return sum
}
