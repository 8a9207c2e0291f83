package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/runnerr0/memoir/internal/activity"
)

const opCategorize = "categorize"

type pageCategory struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// Categorize assigns a category to every page with one classifier call. The
// result always has exactly len(pages) entries in input order: replies are
// matched by position, missing entries and unknown categories fall back to
// activity.DefaultCategory and surplus entries are dropped.
func (c *Client) Categorize(ctx context.Context,
	pages []activity.VisitedPage) ([]activity.CategorizedPage, error) {

	if len(pages) == 0 {
		return []activity.CategorizedPage{}, nil
	}

	sent, redacted := c.promptPages(pages)
	prompt, err := buildPagePrompt(
		fmt.Sprintf("Categorize these %d visited pages:", len(sent)), sent,
	)
	if err != nil {
		return nil, &Error{Op: opCategorize, Err: err}
	}
	if redacted > 0 {
		c.log.Debug("Redacted denylisted pages", "count", redacted)
	}

	content, err := c.complete(ctx, opCategorize, categorizeSystemPrompt,
		prompt, c.cfg.CategorizeTemperature)
	if err != nil {
		return nil, err
	}

	replies := parseCategories(content, c.log)
	return reconcile(pages, replies, c.log), nil
}

// parseCategories repairs content into category replies. Elements that are
// not objects of the expected shape become empty replies so positions are
// kept.
func parseCategories(content string, log *slog.Logger) []pageCategory {
	elements := decodeElements(arrayBounds(content))

	replies := make([]pageCategory, len(elements))
	for i, raw := range elements {
		if err := json.Unmarshal(raw, &replies[i]); err != nil {
			log.Warn("Unreadable category entry",
				"index", i, "error", err,
			)
			replies[i] = pageCategory{}
		}
	}
	return replies
}

// reconcile maps replies onto pages by index.
func reconcile(pages []activity.VisitedPage, replies []pageCategory,
	log *slog.Logger) []activity.CategorizedPage {

	out := make([]activity.CategorizedPage, len(pages))

	var padded, unknown, mismatched int
	for i, page := range pages {
		out[i] = activity.CategorizedPage{
			Page:     page,
			Category: activity.DefaultCategory,
		}

		if i >= len(replies) {
			padded++
			continue
		}

		reply := replies[i]
		if reply.URL != "" && hostOf(reply.URL) != hostOf(page.URL) {
			mismatched++
		}

		category, ok := activity.ParseCategory(reply.Category)
		if !ok {
			unknown++
			log.Warn("Unknown category, using default",
				"index", i, "category", reply.Category,
				"default", activity.DefaultCategory,
			)
			continue
		}
		out[i].Category = category
	}

	if padded > 0 || len(replies) > len(pages) {
		log.Warn("Classifier reply length differs from input",
			"pages", len(pages), "replies", len(replies), "padded", padded,
		)
	}
	if mismatched > 0 {
		log.Warn("Classifier echoed different urls than sent",
			"mismatched", mismatched, "pages", len(pages),
		)
	}
	if unknown > 0 {
		log.Debug("Defaulted unknown categories", "count", unknown)
	}

	return out
}
