package keywords

// Stored is a persisted keyword row.
type Stored struct {
	ID string
	KeywordFrequency
}

// Plan folds incoming keywords into the stored rows of one user and day.
//
// Stored rows sharing a normalized keyword, which concurrent writers can
// produce, are consolidated into the first such row and the rest are
// returned as superseded so the caller can delete them. Each incoming
// keyword then either adds to the surviving row or becomes a new row with an
// empty ID. upserts holds every row that must be written.
func Plan(stored []Stored, incoming []KeywordFrequency) (upserts, superseded []Stored) {
	var (
		rows  []Stored
		index = make(map[string]int)
		dirty = make(map[int]bool)
	)

	for _, row := range stored {
		key := Normalize(row.Keyword)
		if i, ok := index[key]; ok {
			rows[i].Frequency += row.Frequency
			dirty[i] = true
			superseded = append(superseded, row)
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row)
	}

	for _, kf := range Merge(incoming, nil) {
		key := Normalize(kf.Keyword)
		if i, ok := index[key]; ok {
			rows[i].Frequency += kf.Frequency
			dirty[i] = true
			continue
		}
		index[key] = len(rows)
		dirty[len(rows)] = true
		rows = append(rows, Stored{KeywordFrequency: kf})
	}

	for i, row := range rows {
		if dirty[i] {
			upserts = append(upserts, row)
		}
	}

	return upserts, superseded
}
