package classify

import (
	"regexp"

	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

// KeywordModel picks the category whose keywords occur most often in the
// text. Ties go to the category listed first; no hits yields Other.
type KeywordModel struct {
	order    []models.Category
	patterns map[models.Category]*regexp.Regexp
}

// DefaultKeywords is the vocabulary used by NewKeywordModel(nil).
var DefaultKeywords = map[models.Category][]string{
	models.CategoryRoad:        {"pothole", "road", "street", "pavement", "sidewalk", "bridge", "traffic light", "asphalt"},
	models.CategoryWater:       {"water", "pipe", "leak", "drain", "drainage", "sewer", "flood", "overflow"},
	models.CategorySanitation:  {"garbage", "trash", "waste", "litter", "dump", "bin", "smell"},
	models.CategoryElectricity: {"power", "electricity", "outage", "streetlight", "wire", "sparks", "transformer"},
	models.CategorySafety:      {"danger", "unsafe", "accident", "crime", "fire", "violence", "theft"},
}

func NewKeywordModel(keywords map[models.Category][]string) *KeywordModel {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	m := &KeywordModel{patterns: make(map[models.Category]*regexp.Regexp)}
	for _, c := range models.Categories() {
		words, ok := keywords[c]
		if !ok || len(words) == 0 {
			continue
		}
		m.order = append(m.order, c)
		m.patterns[c] = keywordPattern(words...)
	}
	return m
}

func (m *KeywordModel) Category(text string) models.Category {
	best, bestHits := models.CategoryOther, 0
	for _, c := range m.order {
		if hits := len(m.patterns[c].FindAllStringIndex(text, -1)); hits > bestHits {
			best, bestHits = c, hits
		}
	}
	return best
}
