package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/memoir/internal/activity"
	"github.com/runnerr0/memoir/internal/config"
	"github.com/runnerr0/memoir/internal/logging"
	"github.com/runnerr0/memoir/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// fakeClassifier answers chat-completion requests: categorization requests
// get category for every page, summary requests get summary and keyword
// requests get keywords.
type fakeClassifier struct {
	category string
	keywords string
	summary  string
	calls    atomic.Int32
}

func (f *fakeClassifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) < 2 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	content := f.keywords
	switch system := req.Messages[0].Content; {
	case strings.Contains(system, "classify"):
		content = `[{"category": "` + f.category + `"}]`
	case strings.Contains(system, "summarize"):
		content = f.summary
	}

	resp := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// newTestEnv returns an env over an in-memory store whose classifier is
// served by handler.
func newTestEnv(t *testing.T, handler http.Handler) *env {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Classifier.BaseURL = srv.URL
	cfg.Classifier.APIKey = "test-key"

	store, err := storage.Open(context.Background(), storage.MemoryPath, "", logging.Discard())
	require.NoError(t, err)

	e := &env{
		cfg:     cfg,
		log:     logging.Discard(),
		store:   store,
		dbPath:  storage.MemoryPath,
		closers: []io.Closer{store},
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// noClassifier fails the test if the classifier is called.
func noClassifier(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Fail(t, "classifier must not be called")
		http.Error(w, "unexpected", http.StatusInternalServerError)
	})
}

// writePages writes pages as a JSON array to a temp file and returns its path.
func writePages(t *testing.T, pages ...activity.VisitedPage) string {
	t.Helper()
	data, err := json.Marshal(pages)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pages.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func goDocsPage(t *testing.T) activity.VisitedPage {
	t.Helper()
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	return activity.VisitedPage{
		Title:           "Go Docs",
		URL:             "https://go.dev/doc/",
		VisitCount:      1,
		StartTimestamp:  time.Date(2025, 3, 14, 9, 0, 0, 0, seoul).Unix(),
		DurationSeconds: 3600,
	}
}

// isolateHome points HOME at a temp dir so commands that load the default
// config and database never touch the real ones.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.APIKeyEnv, "")
	return home
}

// http500 is a classifier that always fails.
func http500() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})
}
