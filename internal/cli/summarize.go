package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/memoir/internal/digest"
)

// summaryJSON is the JSON output structure for the summarize and day
// commands.
type summaryJSON struct {
	UserID  string            `json:"userId"`
	Summary digest.DaySummary `json:"summary"`
}

// Execute implements the go-flags Commander interface for SummarizeCommand.
func (c *SummarizeCommand) Execute(args []string) error {
	if err := requireUser(c.User); err != nil {
		return err
	}
	return withEnv(c.globals, c.run)
}

func (c *SummarizeCommand) run(ctx context.Context, e *env) error {
	pages, err := readPages(c.File, c.stdin)
	if err != nil {
		return err
	}

	date, err := e.resolveDate(c.Date)
	if err != nil {
		return err
	}

	svc, err := e.newAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	summary, err := svc.SummarizeDay(ctx, c.User, date, pages)
	if err != nil {
		return fmt.Errorf("summarize %s: %w", date, err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(summaryJSON{UserID: c.User, Summary: summary})
	}

	printSummaryHuman(c.User, summary)
	return nil
}

func printSummaryHuman(user string, s digest.DaySummary) {
	title := fmt.Sprintf("Day summary for %s on %s", user, s.Date)
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))
	fmt.Printf("Total:         %d min\n", s.TotalUsageMinutes)

	if len(s.Shares) > 0 {
		parts := make([]string, 0, len(s.Shares))
		for _, share := range s.Shares {
			parts = append(parts, fmt.Sprintf("%s %d%%", share.Category, share.Percentage))
		}
		fmt.Printf("Categories:    %s\n", strings.Join(parts, ", "))
	}

	if len(s.TopKeywords) > 0 {
		words := make([]string, 0, len(s.TopKeywords))
		for _, kf := range s.TopKeywords {
			words = append(words, kf.Keyword)
		}
		fmt.Printf("Keywords:      %s\n", strings.Join(words, ", "))
	}

	if len(s.Timeline) > 0 {
		fmt.Println()
		fmt.Println("Timeline:")
		for _, e := range s.Timeline {
			fmt.Printf("  %-5s  %s\n", e.Time, e.Description)
		}
	}

	if len(s.SummaryText) > 0 {
		fmt.Println()
		fmt.Println("Summary:")
		for _, line := range s.SummaryText {
			fmt.Printf("  %s\n", line)
		}
	}
}
