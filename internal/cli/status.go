package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/memoir/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string             `json:"version"`
	DatabasePath      string             `json:"database_path"`
	DatabaseSizeBytes int64              `json:"database_size_bytes"`
	SchemaVersion     int                `json:"schema_version"`
	DailyRecords      int64              `json:"daily_records"`
	TimeRecords       int64              `json:"time_records"`
	KeywordRecords    int64              `json:"keyword_records"`
	SummaryRecords    int64              `json:"summary_records"`
	KeywordRows       int64              `json:"keyword_rows"`
	Users             int64              `json:"users"`
	AuditEntries      int64              `json:"audit_entries"`
	OldestDate        string             `json:"oldest_date,omitempty"`
	NewestDate        string             `json:"newest_date,omitempty"`
	RetentionDays     int                `json:"retention_days"`
	TimeZone          string             `json:"time_zone"`
	ClassifierModel   string             `json:"classifier_model"`
	APIKeyConfigured  bool               `json:"api_key_configured"`
	TopKeywords       []keywordCountJSON `json:"top_keywords"`
}

type keywordCountJSON struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return withEnv(c.globals, c.run)
}

func (c *StatusCommand) run(ctx context.Context, e *env) error {
	stats, err := e.store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	dbSize := getDatabaseSize(ctx, e.store.DB(), e.dbPath)

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(e, stats, dbSize)
	}
	return c.printStatusHuman(e, stats, dbSize)
}

func (c *StatusCommand) printStatusHuman(e *env, stats *storage.Stats, dbSize int64) error {
	fmt.Println("memoir Status")
	fmt.Println("=============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", e.dbPath, formatBytes(dbSize))
	fmt.Printf("Schema:        v%d\n", stats.SchemaVersion)
	fmt.Printf("Analyses:      %s (%s time, %s keywords, %s summaries)\n",
		formatNumber(stats.DailyRecords),
		formatNumber(stats.TimeRecords),
		formatNumber(stats.KeywordRecords),
		formatNumber(stats.SummaryRecords))
	fmt.Printf("Keyword rows:  %s\n", formatNumber(stats.KeywordRows))
	fmt.Printf("Users:         %s\n", formatNumber(stats.Users))
	fmt.Printf("Audit log:     %s entries\n", formatNumber(stats.AuditEntries))

	// Date range
	if stats.DailyRecords > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestDate)
		fmt.Printf("Newest:        %s\n", stats.NewestDate)
	}

	fmt.Printf("Retention:     %d days\n", e.cfg.Retention.Days)
	fmt.Printf("Time zone:     %s\n", e.cfg.Analytics.TimeZone)

	// Top keywords
	if len(stats.TopKeywords) > 0 {
		fmt.Println()
		fmt.Println("Top Keywords:")
		for _, k := range stats.TopKeywords {
			fmt.Printf("  %-20s %s\n", k.Keyword, formatNumber(k.Count))
		}
	}

	fmt.Println()
	fmt.Printf("Classifier:    %s at %s\n", e.cfg.Classifier.Model, e.cfg.Classifier.BaseURL)
	if e.cfg.Classifier.APIKey != "" {
		fmt.Println("API key:       configured")
	} else {
		fmt.Println("API key:       missing (set MEMOIR_API_KEY)")
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(e *env, stats *storage.Stats, dbSize int64) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      e.dbPath,
		DatabaseSizeBytes: dbSize,
		SchemaVersion:     stats.SchemaVersion,
		DailyRecords:      stats.DailyRecords,
		TimeRecords:       stats.TimeRecords,
		KeywordRecords:    stats.KeywordRecords,
		SummaryRecords:    stats.SummaryRecords,
		KeywordRows:       stats.KeywordRows,
		Users:             stats.Users,
		AuditEntries:      stats.AuditEntries,
		OldestDate:        stats.OldestDate,
		NewestDate:        stats.NewestDate,
		RetentionDays:     e.cfg.Retention.Days,
		TimeZone:          e.cfg.Analytics.TimeZone,
		ClassifierModel:   e.cfg.Classifier.Model,
		APIKeyConfigured:  e.cfg.Classifier.APIKey != "",
		TopKeywords:       make([]keywordCountJSON, len(stats.TopKeywords)),
	}

	for i, k := range stats.TopKeywords {
		out.TopKeywords[i] = keywordCountJSON{Keyword: k.Keyword, Count: k.Count}
	}

	return printJSON(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(ctx context.Context, db *sql.DB, dbPath string) int64 {
	// Try file stat first
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	// Fallback: query SQLite for in-memory or unavailable file
	var pageCount, pageSize int64
	if err := db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
		if len(s) > remainder {
			result.WriteString(",")
		}
	}
	for i := remainder; i < len(s); i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
