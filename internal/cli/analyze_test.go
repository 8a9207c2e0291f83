package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/memoir/internal/storage"
)

func TestAnalyze_HumanOutput(t *testing.T) {
	cls := &fakeClassifier{category: "Study, 학습"}
	e := newTestEnv(t, cls)

	cmd := &AnalyzeCommand{
		User:    "u1",
		Date:    "2025-03-14",
		File:    writePages(t, goDocsPage(t)),
		Shares:  true,
		globals: &GlobalFlags{},
	}

	var err error
	output := captureOutput(t, func() {
		err = cmd.run(context.Background(), e)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Activity for u1 on 2025-03-14")
	assert.Contains(t, output, "Total:         60 min")
	assert.Contains(t, output, "Study")
	assert.Contains(t, output, "100%")
	assert.Contains(t, output, "09:00")
	assert.EqualValues(t, 1, cls.calls.Load())
}

func TestAnalyze_JSONOutputAndPersistence(t *testing.T) {
	cls := &fakeClassifier{category: "Study"}
	e := newTestEnv(t, cls)

	cmd := &AnalyzeCommand{
		User:    "u1",
		Date:    "2025-03-14",
		File:    writePages(t, goDocsPage(t)),
		globals: &GlobalFlags{JSON: true},
	}

	var err error
	output := captureOutput(t, func() {
		err = cmd.run(context.Background(), e)
	})
	require.NoError(t, err)

	var result struct {
		UserID string `json:"userId"`
		Date   string `json:"date"`
		Stats  struct {
			TotalUsageMinutes int `json:"totalUsageMinutes"`
			HourlyBreakdown   []struct {
				Hour            int            `json:"hour"`
				TotalMinutes    int            `json:"totalMinutes"`
				CategoryMinutes map[string]int `json:"categoryMinutes"`
			} `json:"hourlyBreakdown"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &result), "output: %s", output)

	assert.Equal(t, "u1", result.UserID)
	assert.Equal(t, 60, result.Stats.TotalUsageMinutes)
	require.Len(t, result.Stats.HourlyBreakdown, 1)
	assert.Equal(t, 9, result.Stats.HourlyBreakdown[0].Hour)
	assert.Equal(t, map[string]int{"Study": 60}, result.Stats.HourlyBreakdown[0].CategoryMinutes)

	// Stop drained the persistent write before run returned.
	rec, err := e.store.FindByUserAndDate(context.Background(), "u1", "2025-03-14", storage.KindTime)
	require.NoError(t, err)
	assert.True(t, rec.IsSome())
}

func TestAnalyze_SecondRunServedFromStore(t *testing.T) {
	cls := &fakeClassifier{category: "Study"}
	e := newTestEnv(t, cls)
	path := writePages(t, goDocsPage(t))

	for i := 0; i < 2; i++ {
		cmd := &AnalyzeCommand{User: "u1", Date: "2025-03-14", File: path, globals: &GlobalFlags{}}
		captureOutput(t, func() {
			require.NoError(t, cmd.run(context.Background(), e))
		})
	}

	assert.EqualValues(t, 1, cls.calls.Load(), "each run builds a new service; the second is a persistent hit")
}

func TestAnalyze_EmptyPages(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0600))

	cmd := &AnalyzeCommand{User: "u1", Date: "2025-03-14", File: path, globals: &GlobalFlags{}}
	err := cmd.run(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no visited pages")
}

func TestAnalyze_ReadsWrappedPagesFromStdin(t *testing.T) {
	cls := &fakeClassifier{category: "Work"}
	e := newTestEnv(t, cls)

	page, err := json.Marshal(goDocsPage(t))
	require.NoError(t, err)

	cmd := &AnalyzeCommand{
		User:    "u1",
		Date:    "2025-03-14",
		File:    "-",
		globals: &GlobalFlags{},
		stdin:   strings.NewReader(`{"visitedPages": [` + string(page) + `]}`),
	}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.run(context.Background(), e))
	})
	assert.Contains(t, output, "Work")
}

func TestAnalyze_ClassifierFailure(t *testing.T) {
	e := newTestEnv(t, http500())

	cmd := &AnalyzeCommand{
		User:    "u1",
		Date:    "2025-03-14",
		File:    writePages(t, goDocsPage(t)),
		globals: &GlobalFlags{},
	}
	err := cmd.run(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyze 2025-03-14")
}

func TestReadPages_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":`), 0600))

	_, err := readPages(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode pages")
}
