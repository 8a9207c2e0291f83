package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/memoir/internal/storage"
)

func seedRecord(t *testing.T, e *env, payload string) {
	t.Helper()
	require.NoError(t, e.store.Save(context.Background(), &storage.DailyRecord{
		UserID:    "u1",
		Date:      "2025-03-14",
		Kind:      storage.KindTime,
		Payload:   []byte(payload),
		Total:     60,
		PageCount: 1,
	}))
}

func TestShow_Full(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))
	seedRecord(t, e, `{"totalUsageMinutes":60}`)

	cmd := &ShowCommand{User: "u1", Date: "2025-03-14", Kind: "time", Format: "full", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.run(context.Background(), e))
	})

	assert.Contains(t, output, "User:      u1")
	assert.Contains(t, output, "Kind:      time")
	assert.Contains(t, output, "Total:     60")
	assert.Contains(t, output, "--- Payload ---")
	assert.Contains(t, output, `"totalUsageMinutes": 60`)
}

func TestShow_Raw(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))
	seedRecord(t, e, `{"totalUsageMinutes":60}`)

	cmd := &ShowCommand{User: "u1", Date: "2025-03-14", Kind: "time", Format: "raw", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.run(context.Background(), e))
	})

	assert.Equal(t, `{"totalUsageMinutes":60}`, strings.TrimSpace(output))
}

func TestShow_JSON(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))
	seedRecord(t, e, `{"totalUsageMinutes":60}`)

	cmd := &ShowCommand{User: "u1", Date: "2025-03-14", Kind: "time", Format: "full", globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.run(context.Background(), e))
	})

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result), "output: %s", output)
	assert.Equal(t, "u1", result["user_id"])
	assert.Equal(t, "time", result["kind"])
	assert.Equal(t, map[string]interface{}{"totalUsageMinutes": float64(60)}, result["payload"])
}

func TestShow_NotFound(t *testing.T) {
	e := newTestEnv(t, noClassifier(t))

	cmd := &ShowCommand{User: "u1", Date: "2025-03-14", Kind: "keywords", Format: "full", globals: &GlobalFlags{}}
	err := cmd.run(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no keywords analysis stored for u1 on 2025-03-14")
}
