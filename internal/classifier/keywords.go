package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/runnerr0/memoir/internal/activity"
	"github.com/runnerr0/memoir/internal/keywords"
)

const opKeywords = "keywords"

type keywordReply struct {
	KeywordFrequencies []struct {
		Keyword   string      `json:"keyword"`
		Frequency json.Number `json:"frequency"`
	} `json:"keywordFrequencies"`
}

// ExtractKeywords asks the classifier for the topics behind pages. Blank
// keywords are dropped and frequencies below one are raised to one; the
// list is otherwise returned as the classifier sent it. Denylisted pages
// are left out of the request entirely.
func (c *Client) ExtractKeywords(ctx context.Context,
	pages []activity.VisitedPage) ([]keywords.KeywordFrequency, error) {

	visible := make([]activity.VisitedPage, 0, len(pages))
	for _, p := range pages {
		if !c.cfg.Redactor.Matches(p.URL) {
			visible = append(visible, p)
		}
	}
	if len(visible) == 0 {
		return []keywords.KeywordFrequency{}, nil
	}

	sent, _ := c.promptPages(visible)
	prompt, err := buildPagePrompt(
		fmt.Sprintf("Extract keywords from these %d visited pages:", len(sent)),
		sent,
	)
	if err != nil {
		return nil, &Error{Op: opKeywords, Err: err}
	}

	content, err := c.complete(ctx, opKeywords, keywordSystemPrompt, prompt,
		c.cfg.KeywordTemperature)
	if err != nil {
		return nil, err
	}

	return parseKeywords(content)
}

func parseKeywords(content string) ([]keywords.KeywordFrequency, error) {
	raw, ok := objectBounds(content)
	if !ok {
		return nil, opError(opKeywords, ErrClassifierMalformed,
			"no JSON object in reply")
	}

	var reply keywordReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, opError(opKeywords, ErrClassifierMalformed,
			"decode keywords: %v", err)
	}

	out := make([]keywords.KeywordFrequency, 0, len(reply.KeywordFrequencies))
	for _, kf := range reply.KeywordFrequencies {
		keyword := strings.TrimSpace(kf.Keyword)
		if keyword == "" {
			continue
		}
		out = append(out, keywords.KeywordFrequency{
			Keyword:   keyword,
			Frequency: frequency(kf.Frequency),
		})
	}
	return out, nil
}

// frequency reads a count the classifier may send as an integer, a float or
// not at all. Anything below one counts as one and counts are capped at
// maxFrequency.
func frequency(n json.Number) int {
	if v, err := n.Int64(); err == nil {
		return int(min(max(v, 1), maxFrequency))
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	return int(min(max(math.Round(f), 1), maxFrequency))
}

const maxFrequency = math.MaxInt32
