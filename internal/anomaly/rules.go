package anomaly

import (
	"strings"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/cluster"
)

// categoryRule maps term evidence to an anomaly category. Rules are an
// explicit ordered list with a defined fallback so the mapping can be
// inspected and tested independently.
type categoryRule struct {
	category    string
	terms       []string
	description string
}

var categoryRules = []categoryRule{
	{
		category:    "stress surge",
		terms:       []string{"stress", "pressure", "anxious", "nervous", "deadline"},
		description: "Elevated stress indicators on %s",
	},
	{
		category:    "fatigue spike",
		terms:       []string{"sick", "tired", "exhausted", "drained"},
		description: "Significant fatigue indicators on %s",
	},
	{
		category:    "confidence dip",
		terms:       []string{"unprepared", "worry", "uncertain", "doubt"},
		description: "Confidence or self-doubt concerns on %s",
	},
	{
		category:    "emotional spike",
		terms:       []string{"overwhelmed", "emotional", "upset", "tears", "angry"},
		description: "Unusual emotional pattern detected on %s",
	},
}

const (
	fallbackCategory    = "unclassified"
	fallbackDescription = "Unusual behavioral pattern on %s"
)

// categorize assigns a category to an anomalous day: the day's own text plus
// the keywords of its nearest theme are matched against the rule table in
// order, falling back to "unclassified".
func categorize(day analysis.Day, themes []cluster.Theme) (category, description string) {
	evidence := strings.ToLower(day.Text)
	if theme := nearestTheme(day.Embedding, themes); theme != nil {
		evidence += " " + strings.Join(theme.Keywords, " ")
	}

	date := day.Date.Format("2006-01-02")
	for _, rule := range categoryRules {
		for _, term := range rule.terms {
			if strings.Contains(evidence, term) {
				return rule.category, strings.Replace(rule.description, "%s", date, 1)
			}
		}
	}
	return fallbackCategory, strings.Replace(fallbackDescription, "%s", date, 1)
}

// nearestTheme returns the theme with the closest centroid, or nil when no
// themes are available.
func nearestTheme(v []float32, themes []cluster.Theme) *cluster.Theme {
	if len(themes) == 0 {
		return nil
	}
	best := 0
	bestDist := analysis.Euclidean(v, themes[0].Centroid)
	for i := 1; i < len(themes); i++ {
		if d := analysis.Euclidean(v, themes[i].Centroid); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return &themes[best]
}
