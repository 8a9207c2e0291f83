package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/memoir/internal/storage"
)

func seedMonth(t *testing.T, e *env) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, e.store.ApplyKeywordMerge(ctx, []storage.KeywordRecord{
		{UserID: "u1", Date: "2025-01-05", Keyword: "Go", Frequency: 3},
		{UserID: "u1", Date: "2025-01-05", Keyword: "Rust", Frequency: 1},
	}, nil))
	require.NoError(t, e.store.Save(ctx, &storage.DailyRecord{
		UserID:  "u1",
		Date:    "2025-01-20",
		Kind:    storage.KindTime,
		Payload: []byte(`{"totalUsageMinutes":5}`),
	}))
}

func TestMonth_HumanOutput(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))
	seedMonth(t, e)

	cmd := &MonthCommand{User: "u1", Month: "2025-01", globals: &GlobalFlags{}}
	var err error
	output := captureOutput(t, func() {
		err = cmd.run(context.Background(), e)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Calendar for u1, 2025-01")
	assert.Contains(t, output, "  2025-01-05  Go")
	assert.Contains(t, output, "  2025-01-20  no record")
}

func TestMonth_JSON(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))
	seedMonth(t, e)

	cmd := &MonthCommand{User: "u1", Month: "2025-01", globals: &GlobalFlags{JSON: true}}
	var err error
	output := captureOutput(t, func() {
		err = cmd.run(context.Background(), e)
	})
	require.NoError(t, err)

	var result struct {
		Year         int `json:"year"`
		Month        int `json:"month"`
		CalendarData []struct {
			Date  string `json:"date"`
			Title string `json:"title"`
		} `json:"calendarData"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &result), "output: %s", output)

	assert.Equal(t, 2025, result.Year)
	assert.Equal(t, 1, result.Month)
	require.Len(t, result.CalendarData, 2)
	assert.Equal(t, "Go", result.CalendarData[0].Title)
}

func TestMonth_Empty(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))

	cmd := &MonthCommand{User: "u1", Month: "2025-06", globals: &GlobalFlags{}}
	var err error
	output := captureOutput(t, func() {
		err = cmd.run(context.Background(), e)
	})
	require.NoError(t, err)
	assert.Contains(t, output, "No analyzed days.")
}

func TestMonth_InvalidMonth(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))

	cmd := &MonthCommand{User: "u1", Month: "January", globals: &GlobalFlags{}}
	err := cmd.run(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "month January")
}
