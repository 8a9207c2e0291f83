package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/runnerr0/memoir/internal/analyzer"
)

// Execute implements the go-flags Commander interface for DayCommand.
func (c *DayCommand) Execute(args []string) error {
	if err := requireUser(c.User); err != nil {
		return err
	}
	return withEnv(c.globals, c.run)
}

func (c *DayCommand) run(ctx context.Context, e *env) error {
	date, err := e.resolveDate(c.Date)
	if err != nil {
		return err
	}

	svc, err := e.newAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	summary, err := svc.DailySummary(ctx, c.User, date)
	if errors.Is(err, analyzer.ErrNoSummary) {
		return fmt.Errorf("no summary for %s on %s, run summarize first", c.User, date)
	}
	if err != nil {
		return fmt.Errorf("day %s: %w", date, err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(summaryJSON{UserID: c.User, Summary: summary})
	}

	printSummaryHuman(c.User, summary)
	return nil
}
