// Package digest holds the narrative views built on top of the daily
// analyses: the per-day summary and the month calendar.
package digest

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/runnerr0/memoir/internal/keywords"
	"github.com/runnerr0/memoir/internal/usage"
)

const (
	// MonthLayout is the format of calendar months.
	MonthLayout = "2006-01"

	// NoRecordTitle labels calendar days without a usable keyword.
	NoRecordTitle = "no record"

	// SummaryKeywords is how many keywords a day summary keeps.
	SummaryKeywords = 3
)

// TimelineEntry is one line of the day timeline, e.g. "09:00 reading news".
type TimelineEntry struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

// DaySummary is the narrative digest of one user's day.
type DaySummary struct {
	Date              string                      `json:"date"`
	TopKeywords       []keywords.KeywordFrequency `json:"topKeywords"`
	Timeline          []TimelineEntry             `json:"dailyTimeline"`
	SummaryText       []string                    `json:"summaryText"`
	TotalUsageMinutes int                         `json:"totalUsageMinutes"`
	Shares            []usage.CategoryShare       `json:"categoryPercentages"`
}

// Clone returns a copy of d that shares no slices with it.
func (d DaySummary) Clone() DaySummary {
	d.TopKeywords = slices.Clone(d.TopKeywords)
	d.Timeline = slices.Clone(d.Timeline)
	d.SummaryText = slices.Clone(d.SummaryText)
	d.Shares = slices.Clone(d.Shares)
	return d
}

// CalendarDay is one day with stored analyses.
type CalendarDay struct {
	Date  string `json:"date"`
	Title string `json:"title"`
}

// MonthCalendar lists the days of a month that have stored analyses.
type MonthCalendar struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"calendarData"`
}

// ParseMonth parses a YYYY-MM month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return t, nil
}

// MonthRange returns the first and last day of month as YYYY-MM-DD.
func MonthRange(month time.Time) (from, to string) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(time.DateOnly), last.Format(time.DateOnly)
}

// Title picks the top keyword of the first non-empty list, or NoRecordTitle.
func Title(lists ...[]keywords.KeywordFrequency) string {
	for _, list := range lists {
		if top := keywords.TopN(list, 1); len(top) > 0 {
			return top[0].Keyword
		}
	}
	return NoRecordTitle
}

// BuildCalendar turns per-date titles into a calendar for month, days in
// ascending order.
func BuildCalendar(month time.Time, titles map[string]string) MonthCalendar {
	days := make([]CalendarDay, 0, len(titles))
	for date, title := range titles {
		days = append(days, CalendarDay{Date: date, Title: title})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})

	return MonthCalendar{
		Year:  month.Year(),
		Month: int(month.Month()),
		Days:  days,
	}
}
