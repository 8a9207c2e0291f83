package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/runnerr0/memoir/internal/activity"
	"github.com/runnerr0/memoir/internal/analyzer"
	"github.com/runnerr0/memoir/internal/classifier"
	"github.com/runnerr0/memoir/internal/config"
	"github.com/runnerr0/memoir/internal/logging"
	"github.com/runnerr0/memoir/internal/storage"
)

// env is what a command runs against: configuration, logger and an open
// store.
type env struct {
	cfg    *config.Config
	log    *slog.Logger
	store  *storage.SQLiteStore
	dbPath string

	// doer overrides the classifier HTTP client, for tests.
	doer classifier.Doer

	closers []io.Closer
}

// openEnv loads the configuration named by globals (or the default file),
// builds the logger and opens the database.
func openEnv(ctx context.Context, globals *GlobalFlags) (*env, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, err
	}
	if globals != nil && globals.Verbose {
		cfg.Logging.Level = "debug"
	}

	log, logCloser, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	dbPath, err := cfg.Storage.DBPath()
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("resolve db path: %w", err)
	}

	store, err := storage.Open(ctx, dbPath, cfg.Storage.SQLiteJournalMode, log)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	return &env{
		cfg:     cfg,
		log:     log,
		store:   store,
		dbPath:  dbPath,
		closers: []io.Closer{store, logCloser},
	}, nil
}

func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		cfg, err := config.Load(globals.Config)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadOrCreate()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Close releases the store and the log file.
func (e *env) Close() error {
	var first error
	for _, c := range e.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// withEnv opens an env, runs fn with a context cancelled on interrupt and
// closes the env afterwards.
func withEnv(globals *GlobalFlags, fn func(context.Context, *env) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e, err := openEnv(ctx, globals)
	if err != nil {
		return err
	}
	defer e.Close()

	return fn(ctx, e)
}

// auditlessStore drops audit entries when the audit log is disabled.
type auditlessStore struct {
	*storage.SQLiteStore
}

func (auditlessStore) RecordAudit(context.Context, string, string, string) error {
	return nil
}

// newAnalyzer wires the classifier client and the analyzer service from
// the configuration. The caller must Stop the returned service so queued
// cache writes finish before the process exits.
func (e *env) newAnalyzer(ctx context.Context) (*analyzer.Service, error) {
	zone, err := e.cfg.Analytics.Location()
	if err != nil {
		return nil, err
	}

	var redactor *classifier.Redactor
	if e.cfg.Privacy.RedactDenylisted {
		domains, regexes, err := e.store.ExclusionRules(ctx)
		if err != nil {
			return nil, fmt.Errorf("load exclusion rules: %w", err)
		}
		redactor, err = classifier.NewRedactor(
			append(e.cfg.Privacy.Domains(), domains...),
			append(append([]string{}, e.cfg.Privacy.DenylistRegex...), regexes...),
		)
		if err != nil {
			return nil, err
		}
	}

	client := classifier.NewClient(classifier.Config{
		BaseURL:               e.cfg.Classifier.BaseURL,
		APIKey:                e.cfg.Classifier.APIKey,
		Model:                 e.cfg.Classifier.Model,
		Timeout:               e.cfg.Classifier.Timeout(),
		CategorizeTemperature: e.cfg.Classifier.CategorizeTemperature,
		KeywordTemperature:    e.cfg.Classifier.KeywordTemperature,
		SummaryTemperature:    e.cfg.Classifier.SummaryTemperature,
		Redactor:              redactor,
	}, e.doer, e.log)

	var store analyzer.Store = e.store
	if !e.cfg.Logging.AuditLog {
		store = auditlessStore{e.store}
	}

	return analyzer.New(analyzer.Config{
		Zone:          zone,
		CacheTTL:      e.cfg.Cache.TTL(),
		RefreshGrowth: e.cfg.Cache.RefreshGrowth,
		SweepInterval: e.cfg.Cache.SweepInterval(),
		Workers:       e.cfg.Tasks.Workers,
		QueueSize:     e.cfg.Tasks.QueueSize,
		TopKeywords:   e.cfg.Analytics.TopKeywords,
		SlowThreshold: e.cfg.Logging.SlowThreshold(),
	}, client, store, e.log), nil
}

// readPages decodes visited pages from the file at path, or from stdin when
// path is "-". Both a bare JSON array and {"visitedPages": [...]} are
// accepted.
func readPages(path string, stdin io.Reader) ([]activity.VisitedPage, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}

	var data []byte
	var err error
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read pages: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			VisitedPages []activity.VisitedPage `json:"visitedPages"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode pages: %w", err)
		}
		return wrapped.VisitedPages, nil
	}

	var pages []activity.VisitedPage
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("decode pages: %w", err)
	}
	return pages, nil
}

// resolveDate returns date, or today in the analysis zone when empty.
func (e *env) resolveDate(date string) (string, error) {
	if date != "" {
		return date, nil
	}
	zone, err := e.cfg.Analytics.Location()
	if err != nil {
		return "", err
	}
	return time.Now().In(zone).Format(analyzer.DateLayout), nil
}

func requireUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("--user is required")
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
