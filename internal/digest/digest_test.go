package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/memoir/internal/keywords"
	"github.com/runnerr0/memoir/internal/usage"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-02")
	require.NoError(t, err)
	assert.Equal(t, 2025, m.Year())

	_, err = ParseMonth("2025-13")
	assert.Error(t, err)
	_, err = ParseMonth("2025-02-01")
	assert.Error(t, err)
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		month    string
		from, to string
	}{
		{"2025-01", "2025-01-01", "2025-01-31"},
		{"2025-02", "2025-02-01", "2025-02-28"},
		{"2024-02", "2024-02-01", "2024-02-29"},
		{"2025-12", "2025-12-01", "2025-12-31"},
	}
	for _, tt := range tests {
		m, err := ParseMonth(tt.month)
		require.NoError(t, err)

		from, to := MonthRange(m)
		assert.Equal(t, tt.from, from, tt.month)
		assert.Equal(t, tt.to, to, tt.month)
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, NoRecordTitle, Title())
	assert.Equal(t, NoRecordTitle, Title(nil, []keywords.KeywordFrequency{}))

	rows := []keywords.KeywordFrequency{
		{Keyword: "Rust", Frequency: 2},
		{Keyword: "Go", Frequency: 2},
		{Keyword: "go", Frequency: 1},
	}
	assert.Equal(t, "Go", Title(rows))

	fallback := []keywords.KeywordFrequency{{Keyword: "SQLite", Frequency: 1}}
	assert.Equal(t, "SQLite", Title(nil, fallback))
	assert.Equal(t, "Go", Title(rows, fallback))
}

func TestBuildCalendar(t *testing.T) {
	m, err := ParseMonth("2025-01")
	require.NoError(t, err)

	cal := BuildCalendar(m, map[string]string{
		"2025-01-20": "Go",
		"2025-01-03": NoRecordTitle,
		"2025-01-11": "Rust",
	})

	assert.Equal(t, MonthCalendar{
		Year:  2025,
		Month: 1,
		Days: []CalendarDay{
			{Date: "2025-01-03", Title: NoRecordTitle},
			{Date: "2025-01-11", Title: "Rust"},
			{Date: "2025-01-20", Title: "Go"},
		},
	}, cal)

	assert.Empty(t, BuildCalendar(m, nil).Days)
}

func TestDaySummary_Clone(t *testing.T) {
	orig := DaySummary{
		Date:        "2025-01-20",
		TopKeywords: []keywords.KeywordFrequency{{Keyword: "Go", Frequency: 1}},
		Timeline:    []TimelineEntry{{Time: "09:00", Description: "docs"}},
		SummaryText: []string{"Read docs."},
		Shares:      []usage.CategoryShare{{Category: "Study", Percentage: 100}},
	}

	cp := orig.Clone()
	assert.Equal(t, orig, cp)

	cp.TopKeywords[0].Frequency = 9
	cp.Timeline[0].Description = "x"
	cp.SummaryText[0] = "x"
	cp.Shares[0].Percentage = 0

	assert.Equal(t, 1, orig.TopKeywords[0].Frequency)
	assert.Equal(t, "docs", orig.Timeline[0].Description)
	assert.Equal(t, "Read docs.", orig.SummaryText[0])
	assert.Equal(t, 100, orig.Shares[0].Percentage)
}
