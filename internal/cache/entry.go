package cache

import (
	"fmt"
	"time"
)

// Kind separates the analyses cached for the same user and day.
type Kind string

const (
	KindTime     Kind = "time"
	KindKeywords Kind = "keywords"
	KindSummary  Kind = "summary"
)

// Key identifies one cached analysis.
type Key struct {
	UserID string
	Date   string // YYYY-MM-DD in the analysis time zone
	Kind   Kind
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.UserID, k.Date)
}

// Entry is a cached payload together with the number of pages it was
// computed from. Entries are only ever replaced as a whole.
type Entry[T any] struct {
	Payload   T
	PageCount int
	CachedAt  time.Time
}

// CachedAtMillis returns the cache time as unix milliseconds.
func (e Entry[T]) CachedAtMillis() int64 {
	return e.CachedAt.UnixMilli()
}

// Valid reports whether the entry is younger than ttl at now.
func (e Entry[T]) Valid(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CachedAt) < ttl
}
