package keywords

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "go", Normalize("  Go "))
	assert.Equal(t, "서울 맛집", Normalize("서울 맛집\t"))
	assert.Equal(t, "", Normalize("   "))
}

func TestMerge_CaseInsensitiveKeepsFirstSpelling(t *testing.T) {
	got := Merge(
		[]KeywordFrequency{{Keyword: "Go", Frequency: 3}},
		[]KeywordFrequency{{Keyword: "go", Frequency: 2}},
	)
	assert.Equal(t, []KeywordFrequency{{Keyword: "Go", Frequency: 5}}, got)
}

func TestMerge_FoldsDuplicatesWithinBatch(t *testing.T) {
	got := Merge([]KeywordFrequency{
		{Keyword: "Kubernetes", Frequency: 1},
		{Keyword: " kubernetes ", Frequency: 2},
		{Keyword: "Rust", Frequency: 1},
	}, nil)

	assert.Equal(t, []KeywordFrequency{
		{Keyword: "Kubernetes", Frequency: 3},
		{Keyword: "Rust", Frequency: 1},
	}, got)
}

func TestMerge_DropsBlankKeywords(t *testing.T) {
	got := Merge([]KeywordFrequency{{Keyword: "  ", Frequency: 4}}, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTopN_RanksAndTruncates(t *testing.T) {
	var list []KeywordFrequency
	for i := 1; i <= 12; i++ {
		list = append(list, KeywordFrequency{
			Keyword:   fmt.Sprintf("kw%02d", i),
			Frequency: i,
		})
	}
	list = append(list, KeywordFrequency{Keyword: "KW01", Frequency: 20})

	top := TopN(list, TopWindow)
	require.Len(t, top, TopWindow)
	assert.Equal(t, KeywordFrequency{Keyword: "kw01", Frequency: 21}, top[0])
	assert.Equal(t, "kw12", top[1].Keyword)
	assert.Equal(t, "kw05", top[8].Keyword)
}

func TestTopN_TiesKeepEncounterOrder(t *testing.T) {
	top := TopN([]KeywordFrequency{
		{Keyword: "b", Frequency: 2},
		{Keyword: "a", Frequency: 2},
		{Keyword: "c", Frequency: 5},
	}, TopWindow)

	assert.Equal(t, []string{"c", "b", "a"}, keywordsOf(top))
}

func TestTopN_Empty(t *testing.T) {
	assert.Empty(t, TopN(nil, TopWindow))
}

func TestPlan_ConsolidatesDuplicateRows(t *testing.T) {
	stored := []Stored{
		{ID: "1", KeywordFrequency: KeywordFrequency{Keyword: "서울 맛집", Frequency: 2}},
		{ID: "2", KeywordFrequency: KeywordFrequency{Keyword: "Go", Frequency: 1}},
		{ID: "3", KeywordFrequency: KeywordFrequency{Keyword: "서울 맛집 ", Frequency: 3}},
	}

	upserts, superseded := Plan(stored, nil)

	require.Len(t, superseded, 1)
	assert.Equal(t, "3", superseded[0].ID)
	require.Len(t, upserts, 1)
	assert.Equal(t, "1", upserts[0].ID)
	assert.Equal(t, 5, upserts[0].Frequency)
}

func TestPlan_AddsToExistingAndCreatesNew(t *testing.T) {
	stored := []Stored{
		{ID: "1", KeywordFrequency: KeywordFrequency{Keyword: "Go", Frequency: 1}},
		{ID: "2", KeywordFrequency: KeywordFrequency{Keyword: "Rust", Frequency: 4}},
	}

	upserts, superseded := Plan(stored, []KeywordFrequency{
		{Keyword: "go", Frequency: 2},
		{Keyword: "Zig", Frequency: 1},
		{Keyword: "zig", Frequency: 1},
	})

	assert.Empty(t, superseded)
	require.Len(t, upserts, 2)
	assert.Equal(t, Stored{ID: "1", KeywordFrequency: KeywordFrequency{Keyword: "Go", Frequency: 3}}, upserts[0])
	assert.Equal(t, Stored{KeywordFrequency: KeywordFrequency{Keyword: "Zig", Frequency: 2}}, upserts[1])
}

func keywordsOf(list []KeywordFrequency) []string {
	out := make([]string, len(list))
	for i, kf := range list {
		out[i] = kf.Keyword
	}
	return out
}

var keywordGen = rapid.SampledFrom([]string{
	"Go", "go", " GO", "Rust", "rust ", "Zig", "서울 맛집", "서울 맛집 ",
})

func drawKeywords(t *rapid.T, label string) []KeywordFrequency {
	return rapid.SliceOfN(rapid.Custom(func(t *rapid.T) KeywordFrequency {
		return KeywordFrequency{
			Keyword:   keywordGen.Draw(t, "keyword"),
			Frequency: rapid.IntRange(1, 50).Draw(t, "frequency"),
		}
	}), 0, 20).Draw(t, label)
}

func totals(list []KeywordFrequency) map[string]int {
	out := make(map[string]int)
	for _, kf := range list {
		out[Normalize(kf.Keyword)] += kf.Frequency
	}
	return out
}

// TestMergeProperties verifies that merging conserves per-keyword totals,
// never leaves two entries with the same normalized key, and that the totals
// do not depend on argument order.
func TestMergeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawKeywords(t, "a")
		b := drawKeywords(t, "b")

		ab := Merge(a, b)
		ba := Merge(b, a)

		seen := make(map[string]bool)
		for _, kf := range ab {
			key := Normalize(kf.Keyword)
			if seen[key] {
				t.Fatalf("duplicate normalized keyword %q", key)
			}
			seen[key] = true
		}

		want := totals(append(append([]KeywordFrequency{}, a...), b...))
		if got := totals(ab); fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("merge totals %v, want %v", got, want)
		}
		if fmt.Sprint(totals(ab)) != fmt.Sprint(totals(ba)) {
			t.Fatalf("merge is not commutative on totals")
		}
	})
}
