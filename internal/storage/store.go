package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/oklog/ulid/v2"
)

// Store defines the interface for memoir data operations.
type Store interface {
	FindByUserAndDate(ctx context.Context, userID, date, kind string) (fn.Option[DailyRecord], error)
	ListByUserAndDateRange(ctx context.Context, userID, from, to string) ([]DailyRecord, error)
	Save(ctx context.Context, rec *DailyRecord) error
	DeleteAll(ctx context.Context, records []DailyRecord) error
	ListKeywords(ctx context.Context, userID, date string) ([]KeywordRecord, error)
	ListKeywordsInRange(ctx context.Context, userID, from, to string) ([]KeywordRecord, error)
	ApplyKeywordMerge(ctx context.Context, upserts []KeywordRecord, superseded []string) error
	DeleteKeywordsForDay(ctx context.Context, userID, date string) (int64, error)
	ExclusionRules(ctx context.Context) (domains, regexes []string, err error)
	RecordAudit(ctx context.Context, action, userID, detail string) error
	PruneExpired(ctx context.Context, olderThan time.Time) (PruneResult, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// ownsDB is set when the store opened db itself and must close it.
	ownsDB bool

	// Prepared statements
	findRecord   *sql.Stmt
	upsertRecord *sql.Stmt
	deleteRecord *sql.Stmt
	listKeywords *sql.Stmt
	insertAudit  *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.findRecord, err = s.db.Prepare(`
		SELECT id, user_id, date, kind, payload, total, page_count, created_at, updated_at
		FROM daily_analysis WHERE user_id = ? AND date = ? AND kind = ?
	`)
	if err != nil {
		return err
	}

	s.upsertRecord, err = s.db.Prepare(`
		INSERT INTO daily_analysis (user_id, date, kind, payload, total, page_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date, kind) DO UPDATE SET
			payload    = excluded.payload,
			total      = excluded.total,
			page_count = excluded.page_count,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`)
	if err != nil {
		return err
	}

	s.deleteRecord, err = s.db.Prepare(`DELETE FROM daily_analysis WHERE id = ?`)
	if err != nil {
		return err
	}

	s.listKeywords, err = s.db.Prepare(`
		SELECT id, user_id, date, keyword, frequency, created_at
		FROM keyword_data WHERE user_id = ? AND date = ?
		ORDER BY id
	`)
	if err != nil {
		return err
	}

	s.insertAudit, err = s.db.Prepare(`
		INSERT INTO audit_log (action, user_id, detail) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}

	return nil
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// FindByUserAndDate returns the record for a user, date and kind, if any.
// The payload is returned as stored; see DecodePayload.
func (s *SQLiteStore) FindByUserAndDate(ctx context.Context, userID, date,
	kind string) (fn.Option[DailyRecord], error) {

	rec, err := scanRecord(s.findRecord.QueryRowContext(ctx, userID, date, kind))
	if errors.Is(err, sql.ErrNoRows) {
		return fn.None[DailyRecord](), nil
	}
	if err != nil {
		return fn.None[DailyRecord](), fmt.Errorf("find record: %w", err)
	}

	return fn.Some(rec), nil
}

// ListByUserAndDateRange returns every record of a user dated between from
// and to inclusive, ordered by date and kind. Payloads are returned as
// stored.
func (s *SQLiteStore) ListByUserAndDateRange(ctx context.Context, userID,
	from, to string) ([]DailyRecord, error) {

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, kind, payload, total, page_count, created_at, updated_at
		FROM daily_analysis WHERE user_id = ? AND date BETWEEN ? AND ?
		ORDER BY date, kind
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []DailyRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (DailyRecord, error) {
	var (
		rec                    DailyRecord
		payload                string
		createdStr, updatedStr string
	)
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Date, &rec.Kind, &payload,
		&rec.Total, &rec.PageCount, &createdStr, &updatedStr,
	)
	if err != nil {
		return DailyRecord{}, err
	}

	rec.Payload = []byte(payload)
	rec.CreatedAt, _ = parseTimestamp(createdStr)
	rec.UpdatedAt, _ = parseTimestamp(updatedStr)

	return rec, nil
}

// DecodePayload unmarshals the JSON payload of rec into v. Any failure is
// reported as ErrPersistedDataCorrupt.
func DecodePayload(rec DailyRecord, v any) error {
	if err := json.Unmarshal(rec.Payload, v); err != nil {
		return fmt.Errorf("%w: %s record %d for %s/%s: %v",
			ErrPersistedDataCorrupt, rec.Kind, rec.ID, rec.UserID,
			rec.Date, err)
	}
	return nil
}

// Save inserts rec or replaces the existing record for the same user, date
// and kind. ID and timestamps are filled in from the database.
func (s *SQLiteStore) Save(ctx context.Context, rec *DailyRecord) error {
	if !ValidKind(rec.Kind) {
		return fmt.Errorf("save record: unknown kind %q", rec.Kind)
	}
	if !json.Valid(rec.Payload) {
		return fmt.Errorf("save record: payload is not valid JSON")
	}

	var createdStr, updatedStr string
	err := s.upsertRecord.QueryRowContext(ctx,
		rec.UserID, rec.Date, rec.Kind, string(rec.Payload),
		rec.Total, rec.PageCount,
	).Scan(&rec.ID, &createdStr, &updatedStr)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	rec.CreatedAt, _ = parseTimestamp(createdStr)
	rec.UpdatedAt, _ = parseTimestamp(updatedStr)

	return nil
}

// DeleteAll removes the given records. Records that no longer exist are
// ignored.
func (s *SQLiteStore) DeleteAll(ctx context.Context, records []DailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt := tx.StmtContext(ctx, s.deleteRecord)
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ID); err != nil {
			return fmt.Errorf("delete record %d: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// ListKeywords returns the stored keyword rows for a user and date in
// insertion order.
func (s *SQLiteStore) ListKeywords(ctx context.Context, userID,
	date string) ([]KeywordRecord, error) {

	rows, err := s.listKeywords.QueryContext(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	return scanKeywords(rows)
}

// ListKeywordsInRange returns the keyword rows of a user dated between from
// and to inclusive, ordered by date and insertion.
func (s *SQLiteStore) ListKeywordsInRange(ctx context.Context, userID, from,
	to string) ([]KeywordRecord, error) {

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, keyword, frequency, created_at
		FROM keyword_data WHERE user_id = ? AND date BETWEEN ? AND ?
		ORDER BY date, id
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	return scanKeywords(rows)
}

func scanKeywords(rows *sql.Rows) ([]KeywordRecord, error) {
	defer rows.Close()

	records := []KeywordRecord{}
	for rows.Next() {
		var (
			k          KeywordRecord
			createdStr string
		)
		if err := rows.Scan(
			&k.ID, &k.UserID, &k.Date, &k.Keyword, &k.Frequency, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		k.CreatedAt, _ = parseTimestamp(createdStr)
		records = append(records, k)
	}

	return records, rows.Err()
}

// ApplyKeywordMerge writes a consolidation result in one transaction: rows
// with an ID get their keyword and frequency updated, rows without one are
// inserted under a new ULID, and the superseded IDs are deleted.
func (s *SQLiteStore) ApplyKeywordMerge(ctx context.Context,
	upserts []KeywordRecord, superseded []string) error {

	if len(upserts) == 0 && len(superseded) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, k := range upserts {
		if k.ID == "" {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO keyword_data (id, user_id, date, keyword, frequency)
				 VALUES (?, ?, ?, ?, ?)`,
				ulid.Make().String(), k.UserID, k.Date, k.Keyword, k.Frequency,
			)
			if err != nil {
				return fmt.Errorf("insert keyword %q: %w", k.Keyword, err)
			}
			continue
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE keyword_data
			 SET keyword = ?, frequency = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			k.Keyword, k.Frequency, k.ID,
		)
		if err != nil {
			return fmt.Errorf("update keyword %q: %w", k.Keyword, err)
		}
	}

	for _, id := range superseded {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM keyword_data WHERE id = ?", id,
		); err != nil {
			return fmt.Errorf("delete keyword %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// DeleteKeywordsForDay removes every keyword row for a user and date.
func (s *SQLiteStore) DeleteKeywordsForDay(ctx context.Context, userID,
	date string) (int64, error) {

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM keyword_data WHERE user_id = ? AND date = ?", userID, date,
	)
	if err != nil {
		return 0, fmt.Errorf("delete keywords: %w", err)
	}
	return res.RowsAffected()
}

// ExclusionRules returns the stored privacy rules split by type.
func (s *SQLiteStore) ExclusionRules(ctx context.Context) ([]string, []string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT rule_type, rule_value FROM exclusions ORDER BY id",
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query exclusions: %w", err)
	}
	defer rows.Close()

	var domains, regexes []string
	for rows.Next() {
		var ruleType, ruleValue string
		if err := rows.Scan(&ruleType, &ruleValue); err != nil {
			return nil, nil, err
		}
		switch ruleType {
		case "domain":
			domains = append(domains, ruleValue)
		case "regex":
			regexes = append(regexes, ruleValue)
		}
	}

	return domains, regexes, rows.Err()
}

// RecordAudit appends an entry to the audit log.
func (s *SQLiteStore) RecordAudit(ctx context.Context, action, userID,
	detail string) error {

	if _, err := s.insertAudit.ExecContext(ctx, action, userID, detail); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// PruneExpired deletes analysis records and keyword rows dated before
// olderThan, as seen in olderThan's location, and audit entries logged
// before it.
func (s *SQLiteStore) PruneExpired(ctx context.Context, olderThan time.Time) (PruneResult, error) {
	var result PruneResult

	cutoffDate := olderThan.Format("2006-01-02")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	prune := func(query string, arg any, n *int64) error {
		res, err := tx.ExecContext(ctx, query, arg)
		if err != nil {
			return err
		}
		*n, err = res.RowsAffected()
		return err
	}

	if err := prune("DELETE FROM daily_analysis WHERE date < ?",
		cutoffDate, &result.DailyRecords); err != nil {
		return PruneResult{}, fmt.Errorf("prune records: %w", err)
	}
	if err := prune("DELETE FROM keyword_data WHERE date < ?",
		cutoffDate, &result.KeywordRows); err != nil {
		return PruneResult{}, fmt.Errorf("prune keywords: %w", err)
	}
	if err := prune("DELETE FROM audit_log WHERE ts < ?",
		olderThan.UTC().Format("2006-01-02 15:04:05"),
		&result.AuditEntries); err != nil {
		return PruneResult{}, fmt.Errorf("prune audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return PruneResult{}, err
	}
	return result, nil
}

// PurgeAll deletes all analysis records, keyword rows and audit entries.
// Exclusion rules are kept.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM daily_analysis",
		"DELETE FROM keyword_data",
		"DELETE FROM audit_log",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return nil
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM daily_analysis", &stats.DailyRecords},
		{"SELECT COUNT(*) FROM daily_analysis WHERE kind = 'time'", &stats.TimeRecords},
		{"SELECT COUNT(*) FROM daily_analysis WHERE kind = 'keywords'", &stats.KeywordRecords},
		{"SELECT COUNT(*) FROM daily_analysis WHERE kind = 'summary'", &stats.SummaryRecords},
		{"SELECT COUNT(*) FROM keyword_data", &stats.KeywordRows},
		{`SELECT COUNT(*) FROM (
			SELECT user_id FROM daily_analysis
			UNION SELECT user_id FROM keyword_data
		)`, &stats.Users},
		{"SELECT COUNT(*) FROM audit_log", &stats.AuditEntries},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count (%s): %w", c.query, err)
		}
	}

	// Oldest and newest (handle empty DB)
	if stats.DailyRecords > 0 {
		err := s.db.QueryRowContext(ctx,
			"SELECT MIN(date), MAX(date) FROM daily_analysis",
		).Scan(&stats.OldestDate, &stats.NewestDate)
		if err != nil {
			return nil, fmt.Errorf("record date range: %w", err)
		}
	}

	version, err := schemaVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	stats.SchemaVersion = version

	// Top keywords
	rows, err := s.db.QueryContext(ctx, `
		SELECT lower(trim(keyword)) AS k, SUM(frequency) AS total
		FROM keyword_data GROUP BY k ORDER BY total DESC, k LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("top keywords: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kc KeywordCount
		if err := rows.Scan(&kc.Keyword, &kc.Count); err != nil {
			return nil, err
		}
		stats.TopKeywords = append(stats.TopKeywords, kc)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is only
// closed when the store was created by Open.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.findRecord, s.upsertRecord, s.deleteRecord,
		s.listKeywords, s.insertAudit,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
