package storage

import "database/sql"

// migrateV002 admits day summaries into daily_analysis. SQLite cannot alter
// a CHECK constraint, so the table is rebuilt and its rows copied over.
func migrateV002(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE daily_analysis_v2 (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			date       TEXT NOT NULL,
			kind       TEXT NOT NULL CHECK (kind IN ('time', 'keywords', 'summary')),
			payload    TEXT NOT NULL,
			total      INTEGER NOT NULL DEFAULT 0,
			page_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, date, kind)
		)`,

		`INSERT INTO daily_analysis_v2
			(id, user_id, date, kind, payload, total, page_count, created_at, updated_at)
		 SELECT id, user_id, date, kind, payload, total, page_count, created_at, updated_at
		 FROM daily_analysis`,

		`DROP TABLE daily_analysis`,
		`ALTER TABLE daily_analysis_v2 RENAME TO daily_analysis`,

		`CREATE INDEX IF NOT EXISTS idx_daily_analysis_date      ON daily_analysis(date)`,
		`CREATE INDEX IF NOT EXISTS idx_keyword_data_date        ON keyword_data(date)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
