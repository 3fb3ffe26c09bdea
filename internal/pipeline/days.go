package pipeline

import (
	"fmt"
	"strings"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/sentiment"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/storage"
)

// DaysFromEntries converts stored entries into analysis input, composing the
// three modalities into one text and scoring mood from it. Entries without an
// embedding are skipped; callers embed first.
func DaysFromEntries(entries []storage.Entry) []analysis.Day {
	days := make([]analysis.Day, 0, len(entries))
	for _, e := range entries {
		if e.Embedding == nil {
			continue
		}
		text := ComposeText(e)
		days = append(days, analysis.Day{
			ID:        e.ID,
			Date:      e.Date,
			Text:      text,
			Mood:      sentiment.Score(text),
			Embedding: e.Embedding,
		})
	}
	return days
}

// ComposeText merges an entry's modalities into a single prefixed text, the
// same form the embedding input uses.
func ComposeText(e storage.Entry) string {
	var parts []string
	if t := strings.TrimSpace(e.Text); t != "" {
		parts = append(parts, "Diary: "+t)
	}
	if v := strings.TrimSpace(e.VoiceTranscript); v != "" {
		parts = append(parts, "Voice: "+v)
	}
	if c := strings.TrimSpace(e.ImageCaption); c != "" {
		if city := strings.TrimSpace(e.LocationCity); city != "" {
			parts = append(parts, fmt.Sprintf("Scene: %s (%s)", c, city))
		} else {
			parts = append(parts, "Scene: "+c)
		}
	}
	return strings.Join(parts, " ")
}
