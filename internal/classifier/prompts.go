package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/runnerr0/memoir/internal/activity"
)

// categorizeSystemPrompt asks for one category per page, in input order.
const categorizeSystemPrompt = `You classify web browsing history. ` +
	`For every visited page decide which single category fits best.

Allowed categories: Study, News, Content, Shopping, Work.

Respond with ONLY a JSON array, one element per input page and in the ` +
	`same order:
[{"title": "<page title>", "url": "<page url>", "category": "<category>"}]

Rules:
- Never skip, merge or reorder pages
- Use exactly one of the allowed category names
- Do NOT wrap the array in markdown or add any prose`

// keywordSystemPrompt asks for the topics the user spent the day on.
const keywordSystemPrompt = `You extract interest keywords from web ` +
	`browsing history. Read the page titles and urls and list the topics ` +
	`the user was looking at, with how many pages mention each topic.

Respond with ONLY a JSON object:
{"keywordFrequencies": [{"keyword": "<keyword>", "frequency": <count>}]}

Rules:
- Keywords are short nouns or noun phrases
- Frequency is a positive integer
- Do NOT wrap the object in markdown or add any prose`

type promptPage struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// buildPagePrompt embeds pages as JSON under a short instruction.
func buildPagePrompt(instruction string, pages []promptPage) (string, error) {
	payload, err := json.Marshal(struct {
		VisitedPages []promptPage `json:"visitedPages"`
	}{VisitedPages: pages})
	if err != nil {
		return "", fmt.Errorf("encode pages: %w", err)
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n")
	b.Write(payload)
	return b.String(), nil
}

// promptPages converts pages for the prompt, redacting denylisted ones. The
// second result counts redacted pages.
func (c *Client) promptPages(pages []activity.VisitedPage) ([]promptPage, int) {
	out := make([]promptPage, len(pages))

	var redacted int
	for i, p := range pages {
		if hidden, ok := c.cfg.Redactor.Redact(p); ok {
			p = hidden
			redacted++
		}
		out[i] = promptPage{Title: p.Title, URL: p.URL}
	}
	return out, redacted
}

// summarySystemPrompt asks for a narrative digest of one day.
const summarySystemPrompt = `You summarize a person's day from their web ` +
	`browsing history. Each visited page comes with its local start time ` +
	`and category.

Respond with ONLY a JSON object:
{"topKeywords": [{"keyword": "<keyword>", "frequency": <count>}],
 "dailyTimeline": [{"time": "HH:MM", "description": "<activity>"}],
 "summaryText": ["<sentence>", "<sentence>", "<sentence>"]}

Rules:
- At most 3 top keywords, most frequent first
- Timeline entries in chronological order
- Exactly 3 summary sentences
- Do NOT wrap the object in markdown or add any prose`
