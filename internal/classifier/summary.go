package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/memoir/internal/activity"
	"github.com/runnerr0/memoir/internal/digest"
	"github.com/runnerr0/memoir/internal/keywords"
)

const opSummary = "summary"

type summaryPage struct {
	Time     string `json:"time"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

type summaryReply struct {
	TopKeywords []struct {
		Keyword   string      `json:"keyword"`
		Frequency json.Number `json:"frequency"`
	} `json:"topKeywords"`
	DailyTimeline []digest.TimelineEntry `json:"dailyTimeline"`
	SummaryText   []string               `json:"summaryText"`
}

// SummarizeDay asks the classifier for a narrative digest of one day: the
// top keywords, a timeline and a short summary. Visit start times are
// rendered in zone. Denylisted pages are sent redacted. Only the keyword,
// timeline and text fields of the result are filled in.
func (c *Client) SummarizeDay(ctx context.Context, date string,
	pages []activity.CategorizedPage, zone *time.Location) (digest.DaySummary, error) {

	if len(pages) == 0 {
		return emptySummary(date), nil
	}
	if zone == nil {
		zone = time.UTC
	}

	sent := make([]summaryPage, len(pages))
	var redacted int
	for i, cp := range pages {
		page := cp.Page
		if hidden, ok := c.cfg.Redactor.Redact(page); ok {
			page = hidden
			redacted++
		}
		sent[i] = summaryPage{
			Time:     time.Unix(page.StartTimestamp, 0).In(zone).Format("15:04"),
			Title:    page.Title,
			URL:      page.URL,
			Category: string(cp.Category),
		}
	}
	if redacted > 0 {
		c.log.Debug("Redacted denylisted pages", "count", redacted)
	}

	payload, err := json.Marshal(struct {
		Date         string        `json:"date"`
		VisitedPages []summaryPage `json:"visitedPages"`
	}{Date: date, VisitedPages: sent})
	if err != nil {
		return digest.DaySummary{}, &Error{Op: opSummary,
			Err: fmt.Errorf("encode pages: %w", err)}
	}
	prompt := fmt.Sprintf("Summarize this day of %d visited pages:\n\n%s",
		len(sent), payload)

	content, err := c.complete(ctx, opSummary, summarySystemPrompt, prompt,
		c.cfg.SummaryTemperature)
	if err != nil {
		return digest.DaySummary{}, err
	}

	summary, err := parseSummary(content)
	if err != nil {
		return digest.DaySummary{}, err
	}
	summary.Date = date
	return summary, nil
}

func parseSummary(content string) (digest.DaySummary, error) {
	raw, ok := objectBounds(content)
	if !ok {
		return digest.DaySummary{}, opError(opSummary, ErrClassifierMalformed,
			"no JSON object in reply")
	}

	var reply summaryReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return digest.DaySummary{}, opError(opSummary, ErrClassifierMalformed,
			"decode summary: %v", err)
	}

	list := make([]keywords.KeywordFrequency, 0, len(reply.TopKeywords))
	for _, kf := range reply.TopKeywords {
		list = append(list, keywords.KeywordFrequency{
			Keyword:   kf.Keyword,
			Frequency: frequency(kf.Frequency),
		})
	}

	out := emptySummary("")
	out.TopKeywords = keywords.TopN(list, digest.SummaryKeywords)

	for _, e := range reply.DailyTimeline {
		e.Time = strings.TrimSpace(e.Time)
		e.Description = strings.TrimSpace(e.Description)
		if e.Description == "" {
			continue
		}
		out.Timeline = append(out.Timeline, e)
	}

	for _, line := range reply.SummaryText {
		if line = strings.TrimSpace(line); line != "" {
			out.SummaryText = append(out.SummaryText, line)
		}
	}

	return out, nil
}

func emptySummary(date string) digest.DaySummary {
	return digest.DaySummary{
		Date:        date,
		TopKeywords: []keywords.KeywordFrequency{},
		Timeline:    []digest.TimelineEntry{},
		SummaryText: []string{},
	}
}
