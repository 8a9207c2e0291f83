package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/memoir/internal/storage"
)

func TestStatus_EmptyDB(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))

	cmd := &StatusCommand{
		globals: &GlobalFlags{},
		version: "dev",
	}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.run(context.Background(), e))
	})

	assert.Contains(t, output, "memoir Status")
	assert.Contains(t, output, "Version:       dev")
	assert.Contains(t, output, "Analyses:      0 (0 time, 0 keywords, 0 summaries)")
	assert.Contains(t, output, "Retention:     90 days")
	assert.Contains(t, output, "Time zone:     Asia/Seoul")
	assert.Contains(t, output, "API key:       configured")
	assert.NotContains(t, output, "Oldest:")
	assert.NotContains(t, output, "Top Keywords:")
}

func TestStatus_WithData(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))
	ctx := context.Background()

	for _, date := range []string{"2025-03-12", "2025-03-14"} {
		require.NoError(t, e.store.Save(ctx, &storage.DailyRecord{
			UserID: "u1", Date: date, Kind: storage.KindTime, Payload: []byte(`{}`),
		}))
	}
	require.NoError(t, e.store.ApplyKeywordMerge(ctx, []storage.KeywordRecord{
		{UserID: "u1", Date: "2025-03-14", Keyword: "Go", Frequency: 3},
		{UserID: "u2", Date: "2025-03-14", Keyword: "Rust", Frequency: 1},
	}, nil))

	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "dev"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.run(ctx, e))
	})

	assert.Contains(t, output, "Analyses:      2 (2 time, 0 keywords, 0 summaries)")
	assert.Contains(t, output, "Keyword rows:  2")
	assert.Contains(t, output, "Users:         2")
	assert.Contains(t, output, "Oldest:        2025-03-12")
	assert.Contains(t, output, "Newest:        2025-03-14")
	assert.Contains(t, output, "Top Keywords:")
	assert.Contains(t, output, "go")
}

func TestStatus_JSONOutput(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))
	ctx := context.Background()

	require.NoError(t, e.store.ApplyKeywordMerge(ctx, []storage.KeywordRecord{
		{UserID: "u1", Date: "2025-03-14", Keyword: "Go", Frequency: 3},
	}, nil))

	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "1.0.0"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.run(ctx, e))
	})

	var result statusJSON
	require.NoError(t, json.Unmarshal([]byte(output), &result), "output: %s", output)
	assert.Equal(t, "1.0.0", result.Version)
	assert.Equal(t, 2, result.SchemaVersion)
	assert.EqualValues(t, 1, result.KeywordRows)
	assert.Greater(t, result.DatabaseSizeBytes, int64(0), "in-memory size comes from page_count")
	assert.True(t, result.APIKeyConfigured)
	require.Len(t, result.TopKeywords, 1)
	assert.Equal(t, keywordCountJSON{Keyword: "go", Count: 3}, result.TopKeywords[0])
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in))
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
	assert.Equal(t, "1.0 GB", formatBytes(1<<30))
}
