// Package ingest loads daily entries from import files (JSON, PDF, HTML)
// and generates their embeddings.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/storage"
	"github.com/google/uuid"
)

// fileEntry mirrors one element of a JSON import file.
type fileEntry struct {
	EntryID         string `json:"entry_id"`
	Date            string `json:"date"`
	Text            string `json:"text"`
	VoiceTranscript string `json:"voice_transcript"`
	ImageCaption    string `json:"image_caption"`
	LocationCity    string `json:"location_city"`
}

// LoadJSON reads a JSON array of daily entries from path and returns them
// sorted by date ascending. Entries without an entry_id get a generated one.
func LoadJSON(path string) ([]storage.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseJSON(data)
}

// ParseJSON decodes the JSON import format.
func ParseJSON(data []byte) ([]storage.Entry, error) {
	var raw []fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing entries: %w", err)
	}

	entries := make([]storage.Entry, 0, len(raw))
	for i, fe := range raw {
		if strings.TrimSpace(fe.Date) == "" {
			return nil, fmt.Errorf("entry %d: missing date", i)
		}
		date, err := time.Parse("2006-01-02", fe.Date)
		if err != nil {
			return nil, fmt.Errorf("entry %d: parsing date %q: %w", i, fe.Date, err)
		}

		id := fe.EntryID
		if id == "" {
			id = uuid.NewString()
		}
		entries = append(entries, storage.Entry{
			ID:              id,
			Date:            date,
			Text:            fe.Text,
			VoiceTranscript: fe.VoiceTranscript,
			ImageCaption:    fe.ImageCaption,
			LocationCity:    fe.LocationCity,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}
