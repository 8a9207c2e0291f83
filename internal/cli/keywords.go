package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/memoir/internal/keywords"
)

// keywordsJSON is the JSON output structure for the keywords and top commands.
type keywordsJSON struct {
	UserID   string                      `json:"userId"`
	Date     string                      `json:"date"`
	Keywords []keywords.KeywordFrequency `json:"keywords"`
}

// Execute implements the go-flags Commander interface for KeywordsCommand.
func (c *KeywordsCommand) Execute(args []string) error {
	if err := requireUser(c.User); err != nil {
		return err
	}
	return withEnv(c.globals, c.run)
}

func (c *KeywordsCommand) run(ctx context.Context, e *env) error {
	pages, err := readPages(c.File, c.stdin)
	if err != nil {
		return err
	}

	svc, err := e.newAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	list, err := svc.ExtractKeywords(ctx, c.User, pages)
	if err != nil {
		return fmt.Errorf("extract keywords: %w", err)
	}

	return printKeywords(c.globals, "Keywords", c.User, svc.Today(), list)
}

// Execute implements the go-flags Commander interface for TopCommand.
func (c *TopCommand) Execute(args []string) error {
	if err := requireUser(c.User); err != nil {
		return err
	}
	return withEnv(c.globals, c.run)
}

func (c *TopCommand) run(ctx context.Context, e *env) error {
	svc, err := e.newAnalyzer(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	top, err := svc.TopKeywordsForToday(ctx, c.User)
	if err != nil {
		return fmt.Errorf("top keywords: %w", err)
	}

	return printKeywords(c.globals, "Top keywords", c.User, svc.Today(), top)
}

func printKeywords(globals *GlobalFlags, heading, user, date string,
	list []keywords.KeywordFrequency) error {

	if globals != nil && globals.JSON {
		return printJSON(keywordsJSON{UserID: user, Date: date, Keywords: list})
	}

	title := fmt.Sprintf("%s for %s on %s", heading, user, date)
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))

	if len(list) == 0 {
		fmt.Println("No keywords recorded.")
		return nil
	}
	for i, kf := range list {
		fmt.Printf("%2d. %-30s %d\n", i+1, kf.Keyword, kf.Frequency)
	}
	return nil
}
