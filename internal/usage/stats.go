package usage

import (
	"maps"
	"math"
	"slices"

	"github.com/runnerr0/memoir/internal/activity"
)

// ActivityStats is the time-usage report for one user and day.
type ActivityStats struct {
	TotalUsageMinutes int               `json:"totalUsageMinutes"`
	CategorySummaries []CategorySummary `json:"categorySummaries"`
	HourlyBreakdown   []HourlyBreakdown `json:"hourlyBreakdown"`
}

// Clone returns a deep copy of s.
func (s ActivityStats) Clone() ActivityStats {
	out := ActivityStats{
		TotalUsageMinutes: s.TotalUsageMinutes,
		CategorySummaries: slices.Clone(s.CategorySummaries),
	}
	if s.HourlyBreakdown != nil {
		out.HourlyBreakdown = make([]HourlyBreakdown, len(s.HourlyBreakdown))
		for i, h := range s.HourlyBreakdown {
			h.CategoryMinutes = maps.Clone(h.CategoryMinutes)
			out.HourlyBreakdown[i] = h
		}
	}
	return out
}

// CategorySummary is the number of minutes spent in one category.
type CategorySummary struct {
	Category activity.Category `json:"category"`
	Minutes  int               `json:"minutes"`
}

// HourlyBreakdown holds the minutes observed in a single hour of the day.
type HourlyBreakdown struct {
	Hour            int                       `json:"hour"`
	TotalMinutes    int                       `json:"totalMinutes"`
	CategoryMinutes map[activity.Category]int `json:"categoryMinutes"`
}

// CategoryShare is a category's rounded percentage of total usage.
type CategoryShare struct {
	Category   activity.Category `json:"category"`
	Percentage int               `json:"percentage"`
}

// Shares converts the category summaries into whole percentages of the total.
// An empty report has no shares.
func Shares(stats ActivityStats) []CategoryShare {
	if stats.TotalUsageMinutes == 0 {
		return []CategoryShare{}
	}

	shares := make([]CategoryShare, 0, len(stats.CategorySummaries))
	for _, s := range stats.CategorySummaries {
		pct := math.Round(float64(s.Minutes) * 100 / float64(stats.TotalUsageMinutes))
		shares = append(shares, CategoryShare{
			Category:   s.Category,
			Percentage: int(pct),
		})
	}
	return shares
}
