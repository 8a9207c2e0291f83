package activity

import "strings"

// VisitedPage is a single browser visit as submitted by the extension.
type VisitedPage struct {
	Title           string `json:"title"`
	URL             string `json:"url"`
	VisitCount      int    `json:"visitCount"`
	StartTimestamp  int64  `json:"startTimestamp"`
	DurationSeconds int    `json:"durationSeconds"`
}

// Category is the topical bucket a page is assigned to.
type Category string

const (
	Study    Category = "Study"
	News     Category = "News"
	Content  Category = "Content"
	Shopping Category = "Shopping"
	Work     Category = "Work"
)

// DefaultCategory is assigned whenever the classifier gives no usable answer.
const DefaultCategory = Content

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{Study, News, Content, Shopping, Work}
}

// CategorizedPage pairs a visit with its category. Category is always one of
// Categories().
type CategorizedPage struct {
	Page     VisitedPage `json:"page"`
	Category Category    `json:"category"`
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	switch c {
	case Study, News, Content, Shopping, Work:
		return true
	}
	return false
}

// Labels the classifier was historically prompted with.
var koreanLabels = map[string]Category{
	"공부, 학습":    Study,
	"공부":        Study,
	"학습":        Study,
	"뉴스, 정보 탐색": News,
	"뉴스":        News,
	"정보 탐색":     News,
	"콘텐츠 소비":    Content,
	"콘텐츠":       Content,
	"쇼핑":        Shopping,
	"업무, 프로젝트":  Work,
	"업무":        Work,
	"프로젝트":      Work,
}

// ParseCategory resolves a classifier label into a Category. English names
// match case-insensitively, the Korean labels match exactly, and compound
// labels like "Study, 학습" resolve through their first recognizable part.
func ParseCategory(label string) (Category, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return DefaultCategory, false
	}

	if c, ok := lookupLabel(label); ok {
		return c, true
	}

	for _, part := range strings.Split(label, ",") {
		if c, ok := lookupLabel(strings.TrimSpace(part)); ok {
			return c, true
		}
	}

	return DefaultCategory, false
}

func lookupLabel(label string) (Category, bool) {
	for _, c := range Categories() {
		if strings.EqualFold(label, string(c)) {
			return c, true
		}
	}
	c, ok := koreanLabels[label]
	return c, ok
}
