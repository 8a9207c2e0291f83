package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	return withEnv(c.globals, c.run)
}

func (c *PruneCommand) run(ctx context.Context, e *env) error {
	retention := time.Duration(e.cfg.Retention.Days) * 24 * time.Hour
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return err
		}
		retention = d
	}
	if retention <= 0 {
		return fmt.Errorf("retention period must be positive")
	}

	zone, err := e.cfg.Analytics.Location()
	if err != nil {
		return err
	}
	cutoff := time.Now().In(zone).Add(-retention)

	if !c.Force && !(c.globals != nil && c.globals.JSON) {
		fmt.Printf("Delete analyses older than %s (before %s). Proceed? [y/N] ",
			formatDurationHuman(retention), cutoff.Format("2006-01-02"))
		if !confirm(c.stdin, "y", "yes") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	result, err := e.store.PruneExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]any{
			"pruned":        result.Total(),
			"daily_records": result.DailyRecords,
			"keyword_rows":  result.KeywordRows,
			"audit_entries": result.AuditEntries,
			"retention":     formatDurationHuman(retention),
			"cutoff":        cutoff.Format("2006-01-02"),
		})
	}

	fmt.Printf("Pruned %d daily records, %d keyword rows and %d audit entries older than %s.\n",
		result.DailyRecords, result.KeywordRows, result.AuditEntries,
		formatDurationHuman(retention))
	return nil
}

// confirm reads one line from in (stdin when nil) and reports whether it
// matches one of answers, case-insensitively.
func confirm(in io.Reader, answers ...string) bool {
	if in == nil {
		in = os.Stdin
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	input := strings.TrimSpace(scanner.Text())
	for _, a := range answers {
		if strings.EqualFold(input, a) {
			return true
		}
	}
	return false
}
