// Package classify suggests a category and urgency for free-text complaints.
package classify

import (
	"context"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

type Prediction struct {
	Category models.Category `json:"category"`
	Urgency  Urgency         `json:"urgency"`
}

// Classifier is the prediction backend used by the HTTP layer.
type Classifier interface {
	Predict(ctx context.Context, text string) (Prediction, error)
}

// CategoryModel maps preprocessed text to a category.
type CategoryModel interface {
	Category(text string) models.Category
}

// Fixed is a CategoryModel that always answers the same category.
type Fixed models.Category

func (f Fixed) Category(string) models.Category { return models.Category(f) }

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespace = regexp.MustCompile(`\s+`)

	highUrgency   = keywordPattern("leak", "danger", "outage", "sparks", "accident", "unsafe", "overflow", "fire")
	mediumUrgency = keywordPattern("delay", "not working", "broken", "clogged", "blocked", "power cut", "cuts")
)

func keywordPattern(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Preprocess lower-cases text, turns everything but ASCII letters, digits and
// whitespace into spaces, and collapses runs of whitespace to one space.
func Preprocess(text string) string {
	text = strings.ToLower(text)
	text = nonAlnum.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// UrgencyOf rates raw complaint text by keyword, matched case-insensitively on
// word boundaries. High keywords win over medium.
func UrgencyOf(text string) Urgency {
	text = strings.ToLower(text)
	switch {
	case highUrgency.MatchString(text):
		return UrgencyHigh
	case mediumUrgency.MatchString(text):
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// RuleBased combines keyword urgency with a pluggable category model.
type RuleBased struct {
	model CategoryModel
}

// NewRuleBased returns a classifier using model for categories. A nil model
// classifies everything as models.CategoryOther.
func NewRuleBased(model CategoryModel) *RuleBased {
	if model == nil {
		model = Fixed(models.CategoryOther)
	}
	return &RuleBased{model: model}
}

func (c *RuleBased) Predict(ctx context.Context, text string) (Prediction, error) {
	return Prediction{
		Category: c.model.Category(Preprocess(text)),
		Urgency:  UrgencyOf(text),
	}, nil
}
