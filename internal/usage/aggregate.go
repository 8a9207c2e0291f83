package usage

import (
	"sort"
	"time"

	"github.com/runnerr0/memoir/internal/activity"
)

const (
	// contentThresholdPct is the share of total seconds above which Content
	// is treated as over-represented.
	contentThresholdPct = 80

	// contentTargetPct is the share Content is reduced to once it crosses
	// the threshold.
	contentTargetPct = 70
)

// Aggregate sums the categorized pages into an ActivityStats report. Seconds
// are accumulated per category and, through Distribute, per hour of day in
// zone. The Content redistribution runs once on the category totals before
// everything is floored to whole minutes.
func Aggregate(pages []activity.CategorizedPage, zone *time.Location) ActivityStats {
	var (
		order      []activity.Category
		seen       = make(map[activity.Category]bool)
		total      int64
		catSeconds = make(map[activity.Category]int64)
		hourly     = make(map[int]map[activity.Category]int64)
	)

	// Redistribute may add Study and News to catSeconds, so ordering is
	// tracked separately.
	track := func(c activity.Category) {
		if !seen[c] {
			seen[c] = true
			order = append(order, c)
		}
	}

	for _, p := range pages {
		duration := p.Page.DurationSeconds
		if duration <= 0 {
			continue
		}

		category := p.Category
		if !category.Valid() {
			category = activity.DefaultCategory
		}

		track(category)
		catSeconds[category] += int64(duration)
		total += int64(duration)

		segments := Distribute(p.Page.StartTimestamp, duration, category, zone)
		for _, seg := range segments {
			bucket, ok := hourly[seg.Hour]
			if !ok {
				bucket = make(map[activity.Category]int64)
				hourly[seg.Hour] = bucket
			}
			bucket[seg.Category] += int64(seg.Seconds)
		}
	}

	if Redistribute(catSeconds, total) {
		track(activity.Study)
		track(activity.News)
	}

	summaries := make([]CategorySummary, 0, len(order))
	for _, c := range order {
		summaries = append(summaries, CategorySummary{
			Category: c,
			Minutes:  int(catSeconds[c] / 60),
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Minutes > summaries[j].Minutes
	})

	return ActivityStats{
		TotalUsageMinutes: int(total / 60),
		CategorySummaries: summaries,
		HourlyBreakdown:   hourlyBreakdown(hourly),
	}
}

// Redistribute applies the Content over-representation correction in place.
// When Content exceeds 80% of total it is cut to 70% of total and the
// difference is added to Study and News, Study taking the smaller half of an
// odd difference. It reports whether anything changed.
func Redistribute(seconds map[activity.Category]int64, total int64) bool {
	if total <= 0 {
		return false
	}

	content := seconds[activity.Content]
	if content*100 <= total*contentThresholdPct {
		return false
	}

	target := total * contentTargetPct / 100
	diff := content - target
	if diff <= 0 {
		return false
	}

	seconds[activity.Content] = target
	seconds[activity.Study] += diff / 2
	seconds[activity.News] += diff - diff/2

	return true
}

func hourlyBreakdown(hourly map[int]map[activity.Category]int64) []HourlyBreakdown {
	hours := make([]int, 0, len(hourly))
	for h := range hourly {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	out := make([]HourlyBreakdown, 0, len(hours))
	for _, h := range hours {
		entry := HourlyBreakdown{
			Hour:            h,
			CategoryMinutes: make(map[activity.Category]int, len(hourly[h])),
		}
		for c, secs := range hourly[h] {
			minutes := int(secs / 60)
			entry.CategoryMinutes[c] = minutes
			entry.TotalMinutes += minutes
		}
		out = append(out, entry)
	}
	return out
}
