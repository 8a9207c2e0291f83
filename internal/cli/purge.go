package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}
	return withEnv(c.globals, c.run)
}

func (c *PurgeCommand) run(ctx context.Context, e *env) error {
	// Confirmation prompt unless --force
	if !c.Force {
		fmt.Println("⚠ WARNING: This will permanently delete ALL memoir data.")
		fmt.Println("  - All stored time and keyword analyses")
		fmt.Println("  - All keyword rows")
		fmt.Println("  - The audit log")
		fmt.Println()
		fmt.Println("Exclusion rules are kept. This action cannot be undone.")
		fmt.Println()
		fmt.Print(`Type "PURGE" to confirm: `)

		in := c.stdin
		if in == nil {
			in = os.Stdin
		}
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		input := strings.TrimSpace(scanner.Text())
		if input != "PURGE" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	if err := e.store.PurgeAll(ctx); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	// Output
	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"purged":  true,
			"message": "all data deleted",
		})
	}

	fmt.Println("Purged all data. memoir is empty.")
	return nil
}
