package storage

import (
	"errors"
	"time"
)

// Kinds of daily analysis records.
const (
	KindTime     = "time"
	KindKeywords = "keywords"
	KindSummary  = "summary"
)

// ValidKind reports whether kind is a known record kind.
func ValidKind(kind string) bool {
	switch kind {
	case KindTime, KindKeywords, KindSummary:
		return true
	}
	return false
}

// ErrPersistedDataCorrupt is returned when a stored payload cannot be
// decoded. It is never treated as a missing record.
var ErrPersistedDataCorrupt = errors.New("persisted data corrupt")

// DailyRecord is one stored analysis result. There is at most one record
// per user, date and kind.
type DailyRecord struct {
	ID        int64
	UserID    string
	Date      string // YYYY-MM-DD
	Kind      string
	Payload   []byte // JSON
	Total     int64  // usage minutes or summed keyword frequency
	PageCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KeywordRecord is one stored keyword count for a user and date. Several
// rows may share a normalized keyword until they are consolidated.
type KeywordRecord struct {
	ID        string // ULID; empty for rows not yet inserted
	UserID    string
	Date      string
	Keyword   string
	Frequency int
	CreatedAt time.Time
}

// Stats holds aggregate statistics about the memoir database.
type Stats struct {
	DailyRecords   int64
	TimeRecords    int64
	KeywordRecords int64
	SummaryRecords int64
	KeywordRows    int64
	Users          int64
	AuditEntries   int64
	OldestDate     string
	NewestDate     string
	SchemaVersion  int
	TopKeywords    []KeywordCount
}

// KeywordCount pairs a keyword with its summed frequency.
type KeywordCount struct {
	Keyword string
	Count   int64
}

// PruneResult counts what PruneExpired removed.
type PruneResult struct {
	DailyRecords int64
	KeywordRows  int64
	AuditEntries int64
}

// Total returns the number of removed rows across all tables.
func (p PruneResult) Total() int64 {
	return p.DailyRecords + p.KeywordRows + p.AuditEntries
}
