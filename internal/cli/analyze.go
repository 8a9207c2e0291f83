package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/runnerr0/memoir/internal/activity"
	"github.com/runnerr0/memoir/internal/usage"
)

// analyzeJSON is the JSON output structure for the analyze command.
type analyzeJSON struct {
	UserID string                `json:"userId"`
	Date   string                `json:"date"`
	Stats  usage.ActivityStats   `json:"stats"`
	Shares []usage.CategoryShare `json:"shares,omitempty"`
}

// Execute implements the go-flags Commander interface for AnalyzeCommand.
func (c *AnalyzeCommand) Execute(args []string) error {
	if err := requireUser(c.User); err != nil {
		return err
	}
	return withEnv(c.globals, c.run)
}

func (c *AnalyzeCommand) run(ctx context.Context, e *env) error {
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

	stats, err := svc.AnalyzeDay(ctx, c.User, date, pages)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", date, err)
	}

	var shares []usage.CategoryShare
	if c.Shares {
		shares = svc.CategoryShares(stats)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(analyzeJSON{
			UserID: c.User,
			Date:   date,
			Stats:  stats,
			Shares: shares,
		})
	}

	printStatsHuman(c.User, date, stats, shares)
	return nil
}

func printStatsHuman(user, date string, stats usage.ActivityStats,
	shares []usage.CategoryShare) {

	title := fmt.Sprintf("Activity for %s on %s", user, date)
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))
	fmt.Printf("Total:         %d min\n", stats.TotalUsageMinutes)

	pct := make(map[activity.Category]int, len(shares))
	for _, s := range shares {
		pct[s.Category] = s.Percentage
	}

	if len(stats.CategorySummaries) > 0 {
		fmt.Println()
		fmt.Println("Categories:")
		for _, s := range stats.CategorySummaries {
			if p, ok := pct[s.Category]; ok {
				fmt.Printf("  %-10s %5d min  %3d%%\n", s.Category, s.Minutes, p)
				continue
			}
			fmt.Printf("  %-10s %5d min\n", s.Category, s.Minutes)
		}
	}

	if len(stats.HourlyBreakdown) > 0 {
		fmt.Println()
		fmt.Println("Hourly:")
		for _, h := range stats.HourlyBreakdown {
			fmt.Printf("  %02d:00  %3d min  %s\n", h.Hour, h.TotalMinutes,
				formatCategoryMinutes(h.CategoryMinutes))
		}
	}
}

// formatCategoryMinutes renders a per-category minute map in category order.
func formatCategoryMinutes(m map[activity.Category]int) string {
	order := make(map[activity.Category]int)
	for i, c := range activity.Categories() {
		order[c] = i
	}

	cats := make([]activity.Category, 0, len(m))
	for c := range m {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return order[cats[i]] < order[cats[j]] })

	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, fmt.Sprintf("%s %d", c, m[c]))
	}
	return strings.Join(parts, ", ")
}
