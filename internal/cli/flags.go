package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// AnalyzeCommand categorizes a day of visits and reports time usage.
type AnalyzeCommand struct {
	User   string `long:"user" description:"User ID (required)"`
	Date   string `long:"date" description:"Day to analyze as YYYY-MM-DD (default: today)"`
	File   string `long:"file" description:"JSON file of visited pages, - for stdin (required)"`
	Shares bool   `long:"shares" description:"Include category percentages"`

	globals *GlobalFlags
	version string
	stdin   io.Reader
}

// KeywordsCommand extracts keywords from visits and folds them into today's digest.
type KeywordsCommand struct {
	User string `long:"user" description:"User ID (required)"`
	File string `long:"file" description:"JSON file of visited pages, - for stdin (required)"`

	globals *GlobalFlags
	version string
	stdin   io.Reader
}

// TopCommand prints today's top keywords.
type TopCommand struct {
	User string `long:"user" description:"User ID (required)"`

	globals *GlobalFlags
	version string
}

// InvalidateCommand drops cached analyses so the next request recomputes.
type InvalidateCommand struct {
	User string `long:"user" description:"User ID (required)"`
	Date string `long:"date" description:"Day to invalidate as YYYY-MM-DD (default: today)"`

	globals *GlobalFlags
	version string
}

// ShowCommand prints a stored analysis record.
type ShowCommand struct {
	User   string `long:"user" description:"User ID (required)"`
	Date   string `long:"date" description:"Day as YYYY-MM-DD (default: today)"`
	Kind   string `long:"kind" description:"Record kind: time | keywords | summary" default:"time"`
	Format string `long:"format" description:"Output format: full | raw | json" default:"full"`

	globals *GlobalFlags
	version string
}

// SummarizeCommand writes the narrative digest of a day of visits.
type SummarizeCommand struct {
	User string `long:"user" description:"User ID (required)"`
	Date string `long:"date" description:"Day to summarize as YYYY-MM-DD (default: today)"`
	File string `long:"file" description:"JSON file of visited pages, - for stdin (required)"`

	globals *GlobalFlags
	version string
	stdin   io.Reader
}

// DayCommand prints the stored digest of one day.
type DayCommand struct {
	User string `long:"user" description:"User ID (required)"`
	Date string `long:"date" description:"Day as YYYY-MM-DD (default: today)"`

	globals *GlobalFlags
	version string
}

// MonthCommand prints the calendar of analyzed days in a month.
type MonthCommand struct {
	User  string `long:"user" description:"User ID (required)"`
	Month string `long:"month" description:"Month as YYYY-MM (default: this month)"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows database statistics and a configuration summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// PruneCommand deletes analyses older than the retention period.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	Force     bool   `long:"force" description:"Skip confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader
}

// PurgeCommand deletes ALL memoir data after a confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader
}
