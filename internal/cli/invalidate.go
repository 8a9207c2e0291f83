package cli

import (
	"context"
	"fmt"
)

// Execute implements the go-flags Commander interface for InvalidateCommand.
func (c *InvalidateCommand) Execute(args []string) error {
	if err := requireUser(c.User); err != nil {
		return err
	}
	return withEnv(c.globals, c.run)
}

func (c *InvalidateCommand) run(ctx context.Context, e *env) error {
	date, err := e.resolveDate(c.Date)
	if err != nil {
		return err
	}

	svc, err := e.newAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	if err := svc.InvalidateCache(ctx, c.User, date); err != nil {
		return fmt.Errorf("invalidate %s: %w", date, err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]any{
			"invalidated": true,
			"userId":      c.User,
			"date":        date,
		})
	}

	fmt.Printf("Invalidated cached analyses for %s on %s.\n", c.User, date)
	return nil
}
