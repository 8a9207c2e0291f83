package usage

import (
	"time"

	"github.com/runnerr0/memoir/internal/activity"
)

// Segment is the part of a single visit that falls inside one wall-clock hour.
type Segment struct {
	Hour     int
	Category activity.Category
	Seconds  int
}

// Distribute splits a visit of durationSeconds starting at startEpoch into
// per-hour segments in zone. Each hour ends at its :59:59 second inclusive,
// so a segment never crosses an hour boundary and the emitted seconds always
// sum to durationSeconds. Non-positive durations yield no segments.
func Distribute(startEpoch int64, durationSeconds int, category activity.Category,
	zone *time.Location) []Segment {

	if durationSeconds <= 0 {
		return nil
	}
	if zone == nil {
		zone = time.UTC
	}

	var segments []Segment
	current := startEpoch
	remaining := int64(durationSeconds)

	for remaining > 0 {
		local := time.Unix(current, 0).In(zone)
		hourStart := time.Date(
			local.Year(), local.Month(), local.Day(), local.Hour(),
			0, 0, 0, zone,
		)
		endOfHour := hourStart.Add(59*time.Minute + 59*time.Second).Unix()

		untilEnd := endOfHour - current + 1
		if untilEnd <= 0 {
			// Zone transitions can leave hourStart after current; fall back
			// to the absolute hour grid.
			untilEnd = 3600 - current%3600
		}

		n := min(remaining, untilEnd)
		segments = append(segments, Segment{
			Hour:     local.Hour(),
			Category: category,
			Seconds:  int(n),
		})

		current += n
		remaining -= n
	}

	return segments
}
