package storage

import "database/sql"

// migrateV001 creates the initial memoir schema: analysis records, keyword
// rows, privacy exclusions and the audit log. Every statement uses IF NOT
// EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS daily_analysis (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			date       TEXT NOT NULL,
			kind       TEXT NOT NULL CHECK (kind IN ('time', 'keywords')),
			payload    TEXT NOT NULL,
			total      INTEGER NOT NULL DEFAULT 0,
			page_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, date, kind)
		)`,

		`CREATE TABLE IF NOT EXISTS keyword_data (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			date       TEXT NOT NULL,
			keyword    TEXT NOT NULL,
			frequency  INTEGER NOT NULL CHECK (frequency >= 1),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS exclusions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_type  TEXT NOT NULL CHECK (rule_type IN ('domain', 'regex')),
			rule_value TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			is_default BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(rule_type, rule_value)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			action  TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			detail  TEXT NOT NULL DEFAULT '',
			ts      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_daily_analysis_date    ON daily_analysis(date)`,
		`CREATE INDEX IF NOT EXISTS idx_keyword_data_user_date ON keyword_data(user_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_keyword_data_keyword   ON keyword_data(keyword)`,
		`CREATE INDEX IF NOT EXISTS idx_exclusions_rule        ON exclusions(rule_type, rule_value)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_ts           ON audit_log(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_action       ON audit_log(action)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	// ── Default exclusion rules ────────────────────────────────
	if err := seedDefaultExclusions(tx); err != nil {
		return err
	}

	return nil
}

// seedDefaultExclusions inserts the privacy rules applied before pages are
// sent to the classifier. Uses INSERT OR IGNORE so re-running is safe.
func seedDefaultExclusions(tx *sql.Tx) error {
	type rule struct {
		RuleType  string
		RuleValue string
		Reason    string
	}

	defaults := []rule{
		// Banking & Payments
		{"domain", "chase.com", "Banking - financial privacy"},
		{"domain", "paypal.com", "Payment - financial privacy"},
		{"domain", "kbstar.com", "Banking - financial privacy"},
		{"domain", "shinhan.com", "Banking - financial privacy"},
		{"domain", "wooribank.com", "Banking - financial privacy"},
		{"domain", "kakaobank.com", "Banking - financial privacy"},
		{"domain", "toss.im", "Payment - financial privacy"},
		// Password Managers
		{"domain", "1password.com", "Password manager - credential privacy"},
		{"domain", "bitwarden.com", "Password manager - credential privacy"},
		// Auth Providers
		{"domain", "accounts.google.com", "Auth provider - credential privacy"},
		{"domain", "nid.naver.com", "Auth provider - credential privacy"},
		{"domain", "accounts.kakao.com", "Auth provider - credential privacy"},
		// Healthcare
		{"domain", "mychart.com", "Healthcare - medical privacy"},
		{"domain", "nhis.or.kr", "Healthcare - medical privacy"},
		// Tax / Government
		{"domain", "hometax.go.kr", "Tax - financial privacy"},
		{"domain", "irs.gov", "Tax - financial privacy"},
		// Adult content (regex)
		{"regex", `.*\.xxx$`, "Adult content exclusion"},
		{"regex", `.*pornhub\.com$`, "Adult content exclusion"},
	}

	const insertSQL = `INSERT OR IGNORE INTO exclusions (rule_type, rule_value, reason, is_default) VALUES (?, ?, ?, 1)`

	for _, r := range defaults {
		if _, err := tx.Exec(insertSQL, r.RuleType, r.RuleValue, r.Reason); err != nil {
			return err
		}
	}

	return nil
}
