package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/memoir/internal/digest"
)

// Execute implements the go-flags Commander interface for MonthCommand.
func (c *MonthCommand) Execute(args []string) error {
	if err := requireUser(c.User); err != nil {
		return err
	}
	return withEnv(c.globals, c.run)
}

func (c *MonthCommand) run(ctx context.Context, e *env) error {
	month := c.Month
	if month == "" {
		zone, err := e.cfg.Analytics.Location()
		if err != nil {
			return err
		}
		month = time.Now().In(zone).Format(digest.MonthLayout)
	}

	svc, err := e.newAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	cal, err := svc.MonthlyCalendar(ctx, c.User, month)
	if err != nil {
		return fmt.Errorf("month %s: %w", month, err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(cal)
	}

	fmt.Printf("Calendar for %s, %04d-%02d\n", c.User, cal.Year, cal.Month)
	if len(cal.Days) == 0 {
		fmt.Println("No analyzed days.")
		return nil
	}
	for _, d := range cal.Days {
		fmt.Printf("  %s  %s\n", d.Date, d.Title)
	}
	return nil
}
