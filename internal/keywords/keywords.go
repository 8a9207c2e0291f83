// Package keywords merges and ranks keyword frequencies extracted from
// browsing history. Keywords compare by their trimmed lower-cased form while
// the first-seen spelling is kept for display.
package keywords

import (
	"sort"
	"strings"
)

// TopWindow is the number of keywords returned by a top query.
const TopWindow = 9

// KeywordFrequency is a keyword and how often it was observed.
type KeywordFrequency struct {
	Keyword   string `json:"keyword"`
	Frequency int    `json:"frequency"`
}

// Normalize returns the comparison key for a keyword.
func Normalize(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// Merge combines newKeywords with existingKeywords by normalized key,
// summing frequencies. Duplicates inside either list are folded too. The
// result keeps first-encounter order, newKeywords first, and the spelling of
// the first observation. Blank keywords are dropped.
func Merge(newKeywords, existingKeywords []KeywordFrequency) []KeywordFrequency {
	var (
		out   []KeywordFrequency
		index = make(map[string]int)
	)

	add := func(kf KeywordFrequency) {
		key := Normalize(kf.Keyword)
		if key == "" {
			return
		}
		if i, ok := index[key]; ok {
			out[i].Frequency += kf.Frequency
			return
		}
		index[key] = len(out)
		out = append(out, KeywordFrequency{
			Keyword:   strings.TrimSpace(kf.Keyword),
			Frequency: kf.Frequency,
		})
	}

	for _, kf := range newKeywords {
		add(kf)
	}
	for _, kf := range existingKeywords {
		add(kf)
	}

	if out == nil {
		out = []KeywordFrequency{}
	}
	return out
}

// Rank sorts merged keywords by frequency descending. Ties keep their
// encounter order.
func Rank(list []KeywordFrequency) []KeywordFrequency {
	ranked := Merge(list, nil)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Frequency > ranked[j].Frequency
	})
	return ranked
}

// TopN groups, sums and ranks list, returning at most n entries.
func TopN(list []KeywordFrequency, n int) []KeywordFrequency {
	ranked := Rank(list)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
