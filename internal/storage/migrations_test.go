package storage

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func runMigrations(t *testing.T, db *sql.DB) *MigrationRunner {
	t.Helper()
	runner := NewMigrationRunner(db, "", nil)
	require.NoError(t, runner.Run(context.Background()))
	return runner
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	runMigrations(t, db)

	expectedTables := []string{
		"daily_analysis",
		"keyword_data",
		"exclusions",
		"audit_log",
		"schema_migrations",
	}
	for _, table := range expectedTables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	runMigrations(t, db)

	expectedIndexes := []string{
		"idx_daily_analysis_date",
		"idx_keyword_data_user_date",
		"idx_keyword_data_keyword",
		"idx_exclusions_rule",
		"idx_audit_log_ts",
		"idx_audit_log_action",
		"idx_keyword_data_date",
	}
	for _, idx := range expectedIndexes {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
		assert.Equal(t, idx, name)
	}
}

func TestMigrationRunner_DefaultExclusions(t *testing.T) {
	db := openTestDB(t)
	runMigrations(t, db)

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM exclusions WHERE is_default = 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 18, count, "should have 18 default exclusion rules")

	categories := map[string]int{
		"Banking - financial privacy":           5,
		"Payment - financial privacy":           2,
		"Password manager - credential privacy": 2,
		"Auth provider - credential privacy":    3,
		"Healthcare - medical privacy":          2,
		"Tax - financial privacy":               2,
		"Adult content exclusion":               2,
	}
	for reason, expected := range categories {
		var c int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM exclusions WHERE reason = ? AND is_default = 1", reason,
		).Scan(&c)
		require.NoError(t, err)
		assert.Equal(t, expected, c, "category %q should have %d rules", reason, expected)
	}
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := runMigrations(t, db)

	require.NoError(t, runner.Run(context.Background()))

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "should have exactly 2 migrations recorded after double-run")

	err = db.QueryRow("SELECT COUNT(*) FROM exclusions WHERE is_default = 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 18, count, "exclusions should not be duplicated on re-run")
}

func TestMigrationRunner_Version(t *testing.T) {
	db := openTestDB(t)
	runner := runMigrations(t, db)

	version, err := runner.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestMigrationRunner_RejectsUnknownJournalMode(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db, "wal; DROP TABLE x", nil)
	assert.Error(t, runner.Run(context.Background()))
}

func TestMigrationRunner_OneRecordPerUserDateKind(t *testing.T) {
	db := openTestDB(t)
	runMigrations(t, db)

	insert := `INSERT INTO daily_analysis (user_id, date, kind, payload) VALUES (?, ?, ?, '{}')`
	_, err := db.Exec(insert, "u1", "2025-03-14", KindTime)
	require.NoError(t, err)
	_, err = db.Exec(insert, "u1", "2025-03-14", KindKeywords)
	require.NoError(t, err)

	_, err = db.Exec(insert, "u1", "2025-03-14", KindSummary)
	require.NoError(t, err)

	_, err = db.Exec(insert, "u1", "2025-03-14", KindTime)
	assert.Error(t, err, "duplicate user/date/kind must be rejected")

	_, err = db.Exec(insert, "u1", "2025-03-14", "weekly")
	assert.Error(t, err, "unknown kind must be rejected")
}

func TestMigrationRunner_UpgradeKeepsRecords(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	v1 := NewMigrationRunner(db, "", nil)
	v1.migrations = v1.migrations[:1]
	require.NoError(t, v1.Run(ctx))

	_, err := db.Exec(`INSERT INTO daily_analysis (user_id, date, kind, payload, total)
		VALUES ('u1', '2025-03-14', 'time', '{"totalUsageMinutes":60}', 60)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO daily_analysis (user_id, date, kind, payload)
		VALUES ('u1', '2025-03-14', 'summary', '{}')`)
	require.Error(t, err, "v1 schema has no summary kind")

	runner := runMigrations(t, db)
	version, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	var (
		kind  string
		total int64
	)
	err = db.QueryRow(`SELECT kind, total FROM daily_analysis
		WHERE user_id = 'u1' AND date = '2025-03-14'`).Scan(&kind, &total)
	require.NoError(t, err)
	assert.Equal(t, KindTime, kind)
	assert.EqualValues(t, 60, total)

	_, err = db.Exec(`INSERT INTO daily_analysis (user_id, date, kind, payload)
		VALUES ('u1', '2025-03-14', 'summary', '{}')`)
	assert.NoError(t, err)
}
