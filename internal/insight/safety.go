package insight

import (
	"fmt"
	"strings"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
)

// riskTerms flag language that may indicate acute distress. Matching any of
// them produces a dedicated safety note; it never changes the other insights.
var riskTerms = []string{
	"hopeless",
	"worthless",
	"give up",
	"can't go on",
	"suicide",
	"self-harm",
}

// ambiguousTerms mark uncertainty language that deserves a context note but
// no stronger claim.
var ambiguousTerms = []string{
	"uncertain",
	"doubt",
	"worried",
	"unprepared",
}

const disclaimer = "These observations are descriptive summaries of logged entries, not a clinical assessment or diagnosis."

// safetyNotes scans the raw entry text for risk and uncertainty language.
// The non-diagnostic disclaimer is always the final note, even on empty
// input.
func safetyNotes(days []analysis.Day) []string {
	var riskDates, ambiguousDates []string
	for _, d := range days {
		text := strings.ToLower(d.Text)
		date := d.Date.Format("2006-01-02")
		if containsAny(text, riskTerms) {
			riskDates = append(riskDates, date)
		} else if containsAny(text, ambiguousTerms) {
			ambiguousDates = append(ambiguousDates, date)
		}
	}

	var notes []string
	if len(riskDates) > 0 {
		notes = append(notes, fmt.Sprintf(
			"Entries on %s contain language that may indicate distress. If these feelings persist, consider talking to a mental health professional or a crisis line.",
			strings.Join(riskDates, ", ")))
	}
	if len(ambiguousDates) > 0 {
		notes = append(notes, fmt.Sprintf(
			"Entries on %s use uncertainty language (for example \"worried\" or \"unprepared\"). This is surfaced as context only.",
			strings.Join(ambiguousDates, ", ")))
	}
	return append(notes, disclaimer)
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
